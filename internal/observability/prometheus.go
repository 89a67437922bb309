package observability

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// SetupPrometheusExporter creates a Prometheus reader and the handler that serves it
func SetupPrometheusExporter() (metric.Reader, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	// the exporter registers with the default registry
	return exporter, promhttp.Handler(), nil
}

// StartPrometheusServer serves handler at endpoint on a dedicated port
func StartPrometheusServer(handler http.Handler, endpoint, port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(endpoint, handler)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Prometheus metrics available at http://localhost:%s%s", port, endpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus server error: %v", err)
		}
	}()
	return server
}
