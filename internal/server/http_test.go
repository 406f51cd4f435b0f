package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateHTTPSRequirement(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{
			name:    "valid HTTPS URL",
			baseURL: "https://mcp.example.com",
			wantErr: false,
		},
		{
			name:    "valid HTTP localhost",
			baseURL: "http://localhost:8080",
			wantErr: false,
		},
		{
			name:    "valid HTTP 127.0.0.1",
			baseURL: "http://127.0.0.1:8080",
			wantErr: false,
		},
		{
			name:    "valid HTTP ::1 (IPv6 loopback)",
			baseURL: "http://[::1]:8080",
			wantErr: false,
		},
		{
			name:    "invalid HTTP non-localhost",
			baseURL: "http://mcp.example.com",
			wantErr: true,
		},
		{
			name:    "invalid HTTP with localhost substring",
			baseURL: "http://localhost.example.com",
			wantErr: true,
		},
		{
			name:    "invalid HTTP with 127.0.0.1 in domain",
			baseURL: "http://127.0.0.1.example.com",
			wantErr: true,
		},
		{
			name:    "empty URL",
			baseURL: "",
			wantErr: true,
		},
		{
			name:    "invalid scheme",
			baseURL: "ftp://example.com",
			wantErr: true,
		},
		{
			name:    "HTTPS with path",
			baseURL: "https://mcp.example.com/api",
			wantErr: false,
		},
		{
			name:    "HTTPS with port",
			baseURL: "https://mcp.example.com:8443",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPSRequirement(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPSRequirement() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewHTTPServerValidation(t *testing.T) {
	if _, err := NewHTTPServer(nil, HTTPServerConfig{ServerType: "tcp", BaseURL: "http://localhost:8080"}); err == nil {
		t.Error("expected error for unsupported server type")
	}

	if _, err := NewHTTPServer(nil, HTTPServerConfig{ServerType: "streamable-http", BaseURL: "http://mcp.example.com"}); err == nil {
		t.Error("expected error for non-local HTTP base URL")
	}

	s, err := NewHTTPServer(nil, HTTPServerConfig{ServerType: "streamable-http", BaseURL: "http://localhost:8080"})
	if err != nil {
		t.Fatalf("NewHTTPServer() error = %v", err)
	}
	if s.config.RateLimitRate != 10 || s.config.RateLimitBurst != 20 {
		t.Errorf("expected default rate limits, got rate=%v burst=%d", s.config.RateLimitRate, s.config.RateLimitBurst)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s, err := NewHTTPServer(nil, HTTPServerConfig{
		ServerType:     "streamable-http",
		BaseURL:        "http://localhost:8080",
		RateLimitRate:  1,
		RateLimitBurst: 2,
	})
	if err != nil {
		t.Fatalf("NewHTTPServer() error = %v", err)
	}

	called := 0
	handler := s.rateLimitMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called++
	}))

	// The burst allows two requests, the third is rejected.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/mcp", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 && rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Errorf("request %d: status = %d, want %d", i, rec.Code, http.StatusTooManyRequests)
		}
	}

	if called != 2 {
		t.Errorf("handler called %d times, want 2", called)
	}

	// A different IP gets its own limiter.
	req := httptest.NewRequest("POST", "/mcp", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh IP: status = %d, want %d", rec.Code, http.StatusOK)
	}
}
