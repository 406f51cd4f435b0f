package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clinicdesk/clinicsched/internal/calendar"
	"github.com/clinicdesk/clinicsched/internal/google"
	"github.com/clinicdesk/clinicsched/internal/instrumentation"
	"github.com/clinicdesk/clinicsched/internal/schedule"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	calendarClients map[string]*calendar.Client  // Maps account name to Calendar client
	engines         map[string]*schedule.Engine  // Maps account name to booking engine
	engineConfig    schedule.Config
	tokenProvider   google.TokenProvider
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	logger          *slog.Logger
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, engineConfig schedule.Config) (*ServerContext, error) {
	return NewServerContextWithProvider(ctx, engineConfig, google.NewFileTokenProvider())
}

// NewServerContextWithProvider creates a new server context with a custom
// token provider. Used by the HTTP transport where tokens come from the
// OAuth store instead of disk.
func NewServerContextWithProvider(ctx context.Context, engineConfig schedule.Config, provider google.TokenProvider) (*ServerContext, error) {
	if err := engineConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid booking configuration: %w", err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		calendarClients: make(map[string]*calendar.Client),
		engines:         make(map[string]*schedule.Engine),
		engineConfig:    engineConfig,
		tokenProvider:   provider,
		logger:          slog.Default(),
		shutdown:        false,
	}

	// Try to create default Calendar client, but don't fail if token is missing
	// Clients will be lazily initialized when first needed
	if calendar.HasTokenForAccountWithProvider("default", provider) {
		client, err := calendar.NewClientForAccountWithProvider(shutdownCtx, "default", provider)
		if err != nil {
			sc.logger.Warn("failed to create Calendar client for default account", "error", err)
		} else {
			sc.calendarClients["default"] = client
		}
	}

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// SetLogger sets the logger used by the server context
func (sc *ServerContext) SetLogger(logger *slog.Logger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if logger != nil {
		sc.logger = logger
	}
}

// SetMetrics sets the metrics recorder for booking instrumentation
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil if instrumentation is disabled
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger for tool invocations
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil if not configured
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// EngineConfig returns the booking configuration
func (sc *ServerContext) EngineConfig() schedule.Config {
	return sc.engineConfig
}

// CalendarClientForAccount returns the Calendar client for a specific account
// Creates and caches the client if it doesn't exist yet
// Returns nil if the account has no token
func (sc *ServerContext) CalendarClientForAccount(account string) *calendar.Client {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Check if client already exists
	if client, ok := sc.calendarClients[account]; ok {
		return client
	}

	// Try to create client if token exists
	if !calendar.HasTokenForAccountWithProvider(account, sc.tokenProvider) {
		return nil
	}

	client, err := calendar.NewClientForAccountWithProvider(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		sc.logger.Warn("failed to create Calendar client", "account", account, "error", err)
		return nil
	}

	sc.calendarClients[account] = client
	return client
}

// CalendarClient returns the Calendar client for the default account
func (sc *ServerContext) CalendarClient() *calendar.Client {
	return sc.CalendarClientForAccount("default")
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
	// Drop any engine built on the previous client
	delete(sc.engines, account)
}

// SetCalendarClient sets the Calendar client for the default account
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.SetCalendarClientForAccount("default", client)
}

// EngineForAccount returns the booking engine for a specific account.
// The engine is built lazily on top of the account's Calendar client.
// Returns nil if the account has no authenticated client.
func (sc *ServerContext) EngineForAccount(account string) *schedule.Engine {
	sc.mu.Lock()
	if engine, ok := sc.engines[account]; ok {
		sc.mu.Unlock()
		return engine
	}
	sc.mu.Unlock()

	client := sc.CalendarClientForAccount(account)
	if client == nil {
		return nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	// Another goroutine may have built it meanwhile
	if engine, ok := sc.engines[account]; ok {
		return engine
	}

	engine, err := schedule.NewEngine(sc.engineConfig, client, sc.logger)
	if err != nil {
		sc.logger.Warn("failed to create booking engine", "account", account, "error", err)
		return nil
	}

	sc.engines[account] = engine
	return engine
}

// Engine returns the booking engine for the default account
func (sc *ServerContext) Engine() *schedule.Engine {
	return sc.EngineForAccount("default")
}

// SetEngineForAccount sets the booking engine for a specific account.
// Used in tests to inject an engine built on a fake event store.
func (sc *ServerContext) SetEngineForAccount(account string, engine *schedule.Engine) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.engines[account] = engine
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
