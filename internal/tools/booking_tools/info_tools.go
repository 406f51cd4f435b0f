package booking_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clinicdesk/clinicsched/internal/schedule"
	"github.com/clinicdesk/clinicsched/internal/server"
	"github.com/clinicdesk/clinicsched/internal/tools/common"
)

// RegisterInfoTools registers catalog and date helper tools with the MCP server.
// These tools answer from local policy and need no calendar access.
func RegisterInfoTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List treatments tool
	listTreatmentsTool := mcp.NewTool("booking_list_treatments",
		mcp.WithDescription("List the clinic's treatment catalog, or validate a single treatment name against it"),
		mcp.WithString("treatment",
			mcp.Description("Treatment name to validate (case-insensitive). Omit to list the full catalog."),
		),
	)

	s.AddTool(listTreatmentsTool, common.InstrumentedToolHandler(
		"booking_list_treatments", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTreatments(ctx, request, sc)
		}))

	// Parse date expression tool
	parseDateTool := mcp.NewTool("booking_parse_date",
		mcp.WithDescription("Resolve a natural-language date expression like 'tomorrow', 'next Tuesday', 'in 3 days', or 'December 5' into an ISO date"),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("The date expression to resolve"),
		),
	)

	s.AddTool(parseDateTool, common.InstrumentedToolHandler(
		"booking_parse_date", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleParseDate(ctx, request, sc)
		}))

	// Current date tool
	currentDateTool := mcp.NewTool("booking_current_date",
		mcp.WithDescription("Get the current date in the clinic's timezone, for resolving relative date expressions"),
	)

	s.AddTool(currentDateTool, common.InstrumentedToolHandler(
		"booking_current_date", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCurrentDate(ctx, request, sc)
		}))

	return nil
}

// treatmentCatalog is the JSON payload for a catalog listing.
type treatmentCatalog struct {
	Status           schedule.Status `json:"status"`
	Treatments       []string        `json:"treatments"`
	DefaultTreatment string          `json:"default_treatment"`
	Message          string          `json:"message"`
}

// treatmentCheck is the JSON payload for a single treatment validation.
type treatmentCheck struct {
	Status    schedule.Status `json:"status"`
	Treatment string          `json:"treatment,omitempty"`
	Message   string          `json:"message"`
}

// currentDate is the JSON payload of the current-date helper.
type currentDate struct {
	Status      schedule.Status `json:"status"`
	CurrentDate string          `json:"current_date"`
	DayOfWeek   string          `json:"day_of_week"`
	Formatted   string          `json:"formatted"`
	Timezone    string          `json:"timezone"`
}

func handleListTreatments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	cfg := sc.EngineConfig()

	name, _ := args["treatment"].(string)
	if strings.TrimSpace(name) == "" {
		return jsonResult(treatmentCatalog{
			Status:           schedule.StatusApproved,
			Treatments:       schedule.Treatments,
			DefaultTreatment: cfg.DefaultTreatment,
			Message:          fmt.Sprintf("%d treatment(s) offered", len(schedule.Treatments)),
		})
	}

	canonical, ok := schedule.LookupTreatment(name)
	if !ok {
		return jsonResult(treatmentCheck{
			Status: schedule.StatusRejected,
			Message: fmt.Sprintf("%q is not an offered treatment. Available treatments: %s",
				name, strings.Join(schedule.Treatments, ", ")),
		})
	}

	return jsonResult(treatmentCheck{
		Status:    schedule.StatusApproved,
		Treatment: canonical,
		Message:   fmt.Sprintf("%q is offered", canonical),
	})
}

func handleParseDate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	expression, ok := args["expression"].(string)
	if !ok || expression == "" {
		return mcp.NewToolResultError("expression is required"), nil
	}

	loc, err := sc.EngineConfig().Location()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	parsed, err := schedule.ParseDateExpression(expression, time.Now().In(loc))
	if err != nil {
		return resultFromError(err)
	}

	return jsonResult(struct {
		Status  schedule.Status `json:"status"`
		Date    string          `json:"date"`
		DayName string          `json:"day_name"`
		Message string          `json:"message"`
	}{
		Status:  schedule.StatusApproved,
		Date:    parsed.Date,
		DayName: parsed.DayName,
		Message: parsed.Message,
	})
}

func handleCurrentDate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	cfg := sc.EngineConfig()
	loc, err := cfg.Location()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	now := time.Now().In(loc)
	return jsonResult(currentDate{
		Status:      schedule.StatusApproved,
		CurrentDate: now.Format("2006-01-02"),
		DayOfWeek:   now.Format("Monday"),
		Formatted:   now.Format("Monday, January 02, 2006"),
		Timezone:    cfg.TimeZone,
	})
}
