package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Scoring
	v.SetDefault("scoring.provider", ProviderLocal)
	v.SetDefault("scoring.fallback", true)
	v.SetDefault("scoring.taggerPolicy", "fail")
	v.SetDefault("scoring.lexiconFile", "")
	v.SetDefault("scoring.batchConcurrency", 4)

	v.SetDefault("enhance.guardReapplication", false)

	// Remote HTTP scorer; credentials have no default
	v.SetDefault("remote.http.name", "Remote ATS")
	v.SetDefault("remote.http.endpoint", "")
	v.SetDefault("remote.http.apiKey", "")
	v.SetDefault("remote.http.authHeader", "Authorization")
	v.SetDefault("remote.http.authScheme", "Bearer")
	v.SetDefault("remote.http.timeout", 30*time.Second)
	setCircuitBreakerDefaults(v, "remote.http.circuitBreaker")

	// Remote Gemini scorer
	v.SetDefault("remote.gemini.model", "gemini-2.0-flash")
	v.SetDefault("remote.gemini.apiKey", "")
	v.SetDefault("remote.gemini.temperature", 0.1)
	v.SetDefault("remote.gemini.timeout", 60*time.Second)
	v.SetDefault("remote.gemini.maxRetries", 2)
	setCircuitBreakerDefaults(v, "remote.gemini.circuitBreaker")

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.watchConfig", false)
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.serverAPIKeys", "")
	v.SetDefault("vault.secrets.remoteHTTPKey", "")
	v.SetDefault("vault.secrets.geminiKey", "")

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "atscore")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.prettyPrint", true)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}

func setCircuitBreakerDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".enabled", true)
	v.SetDefault(prefix+".maxRequests", 3)
	v.SetDefault(prefix+".interval", 60*time.Second)
	v.SetDefault(prefix+".timeout", 60*time.Second)
	v.SetDefault(prefix+".minRequests", 3)
	v.SetDefault(prefix+".failureThreshold", 0.6)
}
