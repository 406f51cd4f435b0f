package booking_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clinicdesk/clinicsched/internal/google"
	"github.com/clinicdesk/clinicsched/internal/schedule"
	"github.com/clinicdesk/clinicsched/internal/server"
)

// RegisterBookingTools registers all booking-related tools with the MCP server
func RegisterBookingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterAvailabilityTools(s, sc); err != nil {
		return fmt.Errorf("failed to register availability tools: %w", err)
	}

	if err := RegisterAppointmentTools(s, sc); err != nil {
		return fmt.Errorf("failed to register appointment tools: %w", err)
	}

	if err := RegisterInfoTools(s, sc); err != nil {
		return fmt.Errorf("failed to register info tools: %w", err)
	}

	return nil
}

// getEngine retrieves the booking engine for the specified account.
// A missing engine means no OAuth token exists for the account.
func getEngine(account string, sc *server.ServerContext) (*schedule.Engine, *mcp.CallToolResult) {
	engine := sc.EngineForAccount(account)
	if engine == nil {
		return nil, mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account))
	}
	return engine, nil
}

// rejection is the JSON payload returned when an operation is refused for a
// reason the caller can act on (missing fields, closed slot, no match).
type rejection struct {
	Status          schedule.Status `json:"status"`
	Message         string          `json:"message"`
	MissingFields   []string        `json:"missing_fields,omitempty"`
	AlternativeDate string          `json:"alternative_date,omitempty"`
	AlternativeTime string          `json:"alternative_time,omitempty"`
}

// jsonResult marshals a payload into a text tool result.
func jsonResult(payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// resultFromError maps engine errors to tool results. Caller mistakes
// (validation, policy, conflicts, unknown identities, unparseable dates,
// bad tokens) become rejected JSON payloads the assistant can relay to the
// user; backend failures become tool errors.
func resultFromError(err error) (*mcp.CallToolResult, error) {
	var (
		validation  *schedule.ValidationError
		policy      *schedule.PolicyViolationError
		notFound    *schedule.NotFoundError
		conflict    *schedule.ConflictError
		unparseable *schedule.UnparseableError
	)

	switch {
	case errors.As(err, &validation):
		return jsonResult(rejection{
			Status:        schedule.StatusRejected,
			Message:       validation.Error(),
			MissingFields: validation.Missing,
		})
	case errors.As(err, &policy):
		return jsonResult(rejection{
			Status:  schedule.StatusRejected,
			Message: policy.Error(),
		})
	case errors.As(err, &conflict):
		r := rejection{
			Status:  schedule.StatusRejected,
			Message: conflict.Error(),
		}
		if conflict.Alternative != nil {
			r.AlternativeDate = conflict.Alternative.Date
			r.AlternativeTime = conflict.Alternative.Time
		}
		return jsonResult(r)
	case errors.As(err, &notFound):
		return jsonResult(rejection{
			Status:  schedule.StatusRejected,
			Message: notFound.Error(),
		})
	case errors.As(err, &unparseable):
		return jsonResult(rejection{
			Status:  schedule.StatusRejected,
			Message: unparseable.Error(),
		})
	case errors.Is(err, schedule.ErrInvalidOffer):
		return jsonResult(rejection{
			Status:  schedule.StatusRejected,
			Message: err.Error(),
		})
	default:
		return mcp.NewToolResultError(err.Error()), nil
	}
}

// decisionFromArgs extracts an offer decision from request arguments.
// Returns nil when no confirmation token was provided.
func decisionFromArgs(args map[string]interface{}) *schedule.Decision {
	token, ok := args["confirmationToken"].(string)
	if !ok || token == "" {
		return nil
	}
	confirmed, _ := args["confirmed"].(bool)
	return &schedule.Decision{Token: token, Confirmed: confirmed}
}

// recordBookingOperation records the outcome of a booking operation when
// metrics are configured.
func recordBookingOperation(ctx context.Context, sc *server.ServerContext, operation, outcome string) {
	if m := sc.Metrics(); m != nil {
		m.RecordBookingOperation(ctx, operation, outcome)
	}
}
