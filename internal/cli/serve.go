package cli

import (
	"atscore/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scoring API",
	Long: `Start an HTTP server exposing the scorer, the enhancer and the improve pipeline.

Available endpoints:
- POST /score: Score a resume, optionally against a job description
- POST /enhance: Rewrite weak phrasing in a resume
- POST /improve: Score, enhance and rescore a resume
- POST /compare: Compare two scores
- GET /health: Health check endpoint
- GET /stats: Scoring and rate limiting statistics
- GET /metrics: Prometheus metrics (when enabled)

TLS is served when --cert-file and --key-file are given or enabled in config.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetString("port")
	}
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("cert-file") {
		cfg.Server.TLS.CertFile, _ = flags.GetString("cert-file")
		cfg.Server.TLS.Enabled = true
	}
	if flags.Changed("key-file") {
		cfg.Server.TLS.KeyFile, _ = flags.GetString("key-file")
		cfg.Server.TLS.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.New(cmd.Context(), cfg, Version, logger)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}
