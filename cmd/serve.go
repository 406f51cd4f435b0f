package cmd

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clinicdesk/clinicsched/internal/google"
	"github.com/clinicdesk/clinicsched/internal/instrumentation"
	"github.com/clinicdesk/clinicsched/internal/mcp/oauthbridge"
	"github.com/clinicdesk/clinicsched/internal/resources"
	"github.com/clinicdesk/clinicsched/internal/schedule"
	"github.com/clinicdesk/clinicsched/internal/server"
	"github.com/clinicdesk/clinicsched/internal/tools/booking_tools"
	"github.com/clinicdesk/clinicsched/internal/tools/google_tools"
)

// serveOptions holds the serve command configuration.
type serveOptions struct {
	debug     bool
	transport string
	httpAddr  string
	baseURL   string

	calendarID  string
	timezone    string
	signingKey  string
	offerTTL    time.Duration
	maxAttempts int

	rateLimitRate  float64
	rateLimitBurst int

	metrics MetricsConfig
}

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide clinic
appointment booking tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events transport
  - streamable-http: Streamable HTTP transport

Booking Policy:
  The booking policy (calendar, timezone, offer token lifetime) can be set
  via flags or environment variables:
    --calendar-id   OR CLINIC_CALENDAR_ID
    --timezone      OR CLINIC_TIMEZONE
    --signing-key   OR CLINIC_SIGNING_KEY (base64, at least 32 bytes)
    --offer-ttl     OR CLINIC_OFFER_TTL (e.g. 30m)

  Without a signing key, a random per-process key is generated and pending
  offers do not survive a restart.

Google Authentication:
  GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars are required for the
  OAuth flow. Tokens are stored per account under the user cache directory
  and refreshed automatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Public base URL of the server (HTTP transports only). Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")

	// Booking policy flags
	cmd.Flags().StringVar(&opts.calendarID, "calendar-id", "", "Google Calendar ID to book against (default: primary). Can also use CLINIC_CALENDAR_ID env var.")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "IANA timezone all slots are interpreted in (default: Europe/Rome). Can also use CLINIC_TIMEZONE env var.")
	cmd.Flags().StringVar(&opts.signingKey, "signing-key", "", "Key for signing confirmation offer tokens (base64 encoded, at least 32 bytes). Can also use CLINIC_SIGNING_KEY env var. Generate with: openssl rand -base64 32")
	cmd.Flags().DurationVar(&opts.offerTTL, "offer-ttl", 0, "How long a pending offer token stays redeemable (default: 30m). Can also use CLINIC_OFFER_TTL env var.")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", 0, "Maximum number of slots probed during a free-slot search (default: 10)")

	// HTTP rate limiting flags
	cmd.Flags().Float64Var(&opts.rateLimitRate, "rate-limit", 10, "Sustained requests per second allowed per client IP (HTTP transports only)")
	cmd.Flags().IntVar(&opts.rateLimitBurst, "rate-limit-burst", 20, "Request burst size allowed per client IP (HTTP transports only)")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// engineConfigFromOptions builds the booking policy from flags, falling back
// to environment variables and the clinic defaults.
func engineConfigFromOptions(opts serveOptions) (schedule.Config, error) {
	cfg := schedule.DefaultConfig()

	calendarID := opts.calendarID
	if calendarID == "" {
		calendarID = os.Getenv("CLINIC_CALENDAR_ID")
	}
	if calendarID != "" {
		cfg.CalendarID = calendarID
	}

	timezone := opts.timezone
	if timezone == "" {
		timezone = os.Getenv("CLINIC_TIMEZONE")
	}
	if timezone != "" {
		cfg.TimeZone = timezone
	}

	signingKey := opts.signingKey
	if signingKey == "" {
		signingKey = os.Getenv("CLINIC_SIGNING_KEY")
	}
	if signingKey != "" {
		decoded, err := base64.StdEncoding.DecodeString(signingKey)
		if err != nil {
			return cfg, fmt.Errorf("invalid signing key (must be base64 encoded): %w", err)
		}
		if len(decoded) < 32 {
			return cfg, fmt.Errorf("signing key must be at least 32 bytes (got %d bytes)", len(decoded))
		}
		cfg.SigningKey = decoded
	}

	offerTTL := opts.offerTTL
	if offerTTL == 0 {
		if ttlStr := os.Getenv("CLINIC_OFFER_TTL"); ttlStr != "" {
			parsed, err := time.ParseDuration(ttlStr)
			if err != nil {
				return cfg, fmt.Errorf("invalid CLINIC_OFFER_TTL %q: %w", ttlStr, err)
			}
			offerTTL = parsed
		}
	}
	if offerTTL > 0 {
		cfg.OfferTTL = offerTTL
	}

	if opts.maxAttempts > 0 {
		cfg.MaxSearchAttempts = opts.maxAttempts
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load metrics config from environment if not set via flags
	if !opts.metrics.Enabled {
		if os.Getenv("METRICS_ENABLED") == "true" {
			opts.metrics.Enabled = true
		}
	}
	if opts.metrics.Addr == "" || opts.metrics.Addr == ":9090" {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			opts.metrics.Addr = addr
		}
	}

	engineConfig, err := engineConfigFromOptions(opts)
	if err != nil {
		return fmt.Errorf("invalid booking configuration: %w", err)
	}

	// Logs go to stderr so the stdio transport keeps stdout for the protocol.
	logLevel := slog.LevelInfo
	if opts.debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if opts.transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.transport != "stdio" && opts.metrics.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		// Wait for metrics server to be ready or fail
		select {
		case <-metricsReady:
			log.Printf("Metrics server started on %s", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Create server context. HTTP transports cache tokens in memory so each
	// session does not hit the token files on disk.
	var serverContext *server.ServerContext
	if opts.transport == "stdio" {
		serverContext, err = server.NewServerContext(shutdownCtx, engineConfig)
	} else {
		tokenProvider := oauthbridge.NewCachingProvider(google.NewFileTokenProvider(), memory.New())
		serverContext, err = server.NewServerContextWithProvider(shutdownCtx, engineConfig, tokenProvider)
	}
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	serverContext.SetLogger(logger)

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(nil, instrConfig.AuditLogging))
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if opts.transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("clinicsched", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	// Register all tools and resources
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch opts.transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "sse", "streamable-http":
		fmt.Printf("Starting clinicsched MCP server with %s transport...\n", opts.transport)
		return runHTTPServer(shutdownCtx, mcpSrv, serverContext, opts)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", opts.transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Booking",
			register: func() error {
				return booking_tools.RegisterBookingTools(mcpSrv, sc)
			},
		},
		{
			name: "Google Auth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
		{
			name: "Clinic Resources",
			register: func() error {
				return resources.RegisterClinicResources(mcpSrv, sc.EngineConfig())
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, opts serveOptions) error {
	// Determine base URL from flag, environment variable, or auto-detection
	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = os.Getenv("MCP_BASE_URL")
	}
	if baseURL == "" {
		// Fall back to auto-detection for local development
		baseURL = fmt.Sprintf("http://%s", opts.httpAddr)
		if opts.httpAddr[0] == ':' {
			baseURL = fmt.Sprintf("http://localhost%s", opts.httpAddr)
		}
		log.Printf("No base URL configured, using auto-detected: %s", baseURL)
		log.Printf("For deployed instances, set --base-url flag or MCP_BASE_URL env var")
	} else {
		log.Printf("Using configured base URL: %s", baseURL)
	}

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		ServerType:     opts.transport,
		BaseURL:        baseURL,
		RateLimitRate:  opts.rateLimitRate,
		RateLimitBurst: opts.rateLimitBurst,
		HealthChecker:  server.NewHealthChecker(serverContext),
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	fmt.Printf("HTTP server starting on %s\n", opts.httpAddr)
	if opts.transport == "sse" {
		fmt.Printf("  SSE endpoint: /sse\n")
		fmt.Printf("  Message endpoint: /message\n")
	} else {
		fmt.Printf("  HTTP endpoint: /mcp\n")
	}
	fmt.Printf("  Health endpoints: /healthz, /readyz\n")
	if opts.metrics.Enabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", opts.metrics.Addr)
	}
	fmt.Printf("  Rate limit: %s req/s per IP (burst %d)\n",
		strconv.FormatFloat(opts.rateLimitRate, 'g', -1, 64), opts.rateLimitBurst)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(opts.httpAddr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
