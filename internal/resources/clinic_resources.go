package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clinicdesk/clinicsched/internal/schedule"
)

// RegisterClinicResources registers read-only clinic data resources
// These resources describe the treatment catalog and the booking policy
func RegisterClinicResources(s *mcpserver.MCPServer, cfg schedule.Config) error {
	// Register treatment catalog resource
	treatmentsResource := mcp.NewResource(
		"clinic://treatments",
		"Treatment Catalog",
		mcp.WithResourceDescription("The list of treatments that can be booked"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(treatmentsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTreatmentCatalog(ctx, request)
	})

	// Register booking policy resource
	policyResource := mcp.NewResource(
		"clinic://policy",
		"Booking Policy",
		mcp.WithResourceDescription("Opening hours, closure days and slot rules"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(policyResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleBookingPolicy(ctx, request, cfg)
	})

	return nil
}

// handleTreatmentCatalog returns the list of bookable treatments
func handleTreatmentCatalog(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalogData := map[string]interface{}{
		"treatments":        schedule.Treatments,
		"default_treatment": schedule.DefaultTreatment,
		"description":       "Treatments that can be booked at the clinic",
	}

	jsonData, err := json.MarshalIndent(catalogData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal treatment catalog: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleBookingPolicy returns the scheduling rules enforced by the engine
func handleBookingPolicy(_ context.Context, request mcp.ReadResourceRequest, cfg schedule.Config) ([]mcp.ResourceContents, error) {
	holidays := make([]string, 0, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		holidays = append(holidays, fmt.Sprintf("%02d-%02d", h.Month, h.Day))
	}

	policyData := map[string]interface{}{
		"timezone":      cfg.TimeZone,
		"open_hour":     cfg.OpenHour,
		"close_hour":    cfg.CloseHour,
		"slot_duration": cfg.SlotDuration.String(),
		"default_time":  cfg.DefaultTime,
		"closed_days":   []string{time.Saturday.String(), time.Sunday.String()},
		"holidays":      holidays,
		"description":   "Appointments must start on a weekday within opening hours and end by closing time",
	}

	jsonData, err := json.MarshalIndent(policyData, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking policy: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
