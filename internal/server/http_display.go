package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Fprintln(s.out, "Available endpoints:")
	fmt.Fprintln(s.out, "  GET  /health    - Health check")
	fmt.Fprintln(s.out, "  GET  /stats     - Scoring statistics")
	if s.obs.MetricsHandler() != nil {
		fmt.Fprintf(s.out, "  GET  %-9s - Prometheus metrics\n", s.obs.MetricsPath())
	}
	fmt.Fprintln(s.out, "  POST /score     - Score a resume")
	fmt.Fprintln(s.out, "  POST /enhance   - Enhance a resume")
	fmt.Fprintln(s.out, "  POST /improve   - Score, enhance and rescore")
	fmt.Fprintln(s.out, "  POST /compare   - Compare two scores")
	fmt.Fprintf(s.out, "Scoring provider: %s\n", s.service.ProviderName())
}

func (s *Server) displayAuthInfo() {
	apiKeys, _, _ := s.access()
	if len(apiKeys) > 0 {
		fmt.Fprintf(s.out, "API authentication: ENABLED (%d keys configured)\n", len(apiKeys))
		fmt.Fprintln(s.out, "Include 'X-API-Key: <your-key>' header in POST requests")
	} else {
		fmt.Fprintln(s.out, "API authentication: DISABLED (no API keys configured)")
		fmt.Fprintln(s.out, "WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if size := s.maxRequestSize(); size > 0 {
		fmt.Fprintf(s.out, "Request size limit: %d bytes (%.1f MB)\n", size, float64(size)/(1024*1024))
	} else {
		fmt.Fprintln(s.out, "Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	_, rl, _ := s.access()
	if !rl.Enabled {
		fmt.Fprintln(s.out, "Rate limiting: DISABLED")
		return
	}
	fmt.Fprintf(s.out, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n", rl.RequestsPerMin, rl.BurstCapacity)
	if rl.ByAPIKey {
		fmt.Fprintln(s.out, "  - Per API key rate limiting enabled")
	}
	if rl.ByIP {
		fmt.Fprintln(s.out, "  - Per IP address rate limiting enabled")
	}
}
