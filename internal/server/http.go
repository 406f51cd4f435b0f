package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"
)

// HTTPServerConfig holds configuration for the HTTP transport.
type HTTPServerConfig struct {
	// ServerType is the transport flavour: "sse" or "streamable-http".
	ServerType string

	// BaseURL is the externally visible URL of the server. HTTP is only
	// allowed for loopback addresses.
	BaseURL string

	// RateLimitRate is the sustained request rate allowed per client IP.
	RateLimitRate float64

	// RateLimitBurst is the burst size allowed per client IP.
	RateLimitBurst int

	// HealthChecker optionally serves /healthz and /readyz on the same mux.
	HealthChecker *HealthChecker
}

// HTTPServer serves the MCP server over SSE or streamable HTTP with per-IP
// rate limiting and health endpoints.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
	config     HTTPServerConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPServer creates a new HTTP server for the given MCP server.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if config.ServerType != "sse" && config.ServerType != "streamable-http" {
		return nil, fmt.Errorf("unsupported server type: %s", config.ServerType)
	}
	if err := validateHTTPSRequirement(config.BaseURL); err != nil {
		return nil, err
	}
	if config.RateLimitRate <= 0 {
		config.RateLimitRate = 10
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = 20
	}

	return &HTTPServer{
		mcpServer: mcpServer,
		config:    config,
		limiters:  make(map[string]*rate.Limiter),
	}, nil
}

// Start starts the HTTP server. Blocks until the server stops.
func (s *HTTPServer) Start(addr string) error {
	mux := http.NewServeMux()

	if s.config.HealthChecker != nil {
		s.config.HealthChecker.RegisterHealthEndpoints(mux)
	}

	switch s.config.ServerType {
	case "sse":
		sseServer := mcpserver.NewSSEServer(s.mcpServer,
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
		)
		mux.Handle("/sse", s.rateLimitMiddleware(sseServer))
		mux.Handle("/message", s.rateLimitMiddleware(sseServer))

	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
		mux.Handle("/mcp", s.rateLimitMiddleware(httpServer))
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// rateLimitMiddleware enforces a per-IP request rate on the wrapped handler.
func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiterForIP(ip).Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) limiterForIP(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, ok := s.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.config.RateLimitRate), s.config.RateLimitBurst)
		s.limiters[ip] = limiter
	}
	return limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// validateHTTPSRequirement allows HTTP only for loopback addresses
// (localhost, 127.0.0.1, ::1)
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	// Parse URL to properly validate scheme and host
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	// Allow HTTP only for loopback addresses
	if u.Scheme == "http" {
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("HTTPS is required for non-local deployments (got: %s). Use HTTPS or localhost for development", baseURL)
		}
	} else if u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s. Must be http (localhost only) or https", u.Scheme)
	}

	return nil
}
