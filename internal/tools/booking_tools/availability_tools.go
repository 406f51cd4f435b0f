package booking_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clinicdesk/clinicsched/internal/instrumentation"
	"github.com/clinicdesk/clinicsched/internal/schedule"
	"github.com/clinicdesk/clinicsched/internal/server"
	"github.com/clinicdesk/clinicsched/internal/tools/common"
)

// RegisterAvailabilityTools registers slot availability tools with the MCP server
func RegisterAvailabilityTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Check availability tool
	checkAvailabilityTool := mcp.NewTool("booking_check_availability",
		mcp.WithDescription("Check whether an appointment slot is free. When the slot is occupied, the result offers the next free slot with a confirmation token; call again with the token and the user's decision to resolve the offer."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("date",
			mcp.Description("Appointment date (e.g., '2025-12-05', '5.12.2025', 'December 5, 2025'). Required unless resolving an offer."),
		),
		mcp.WithString("time",
			mcp.Description("Appointment time (e.g., '14:00', '2pm'). Defaults to the clinic's default time."),
		),
		mcp.WithString("confirmationToken",
			mcp.Description("Token from a previous pending result, to resolve the offered alternative"),
		),
		mcp.WithBoolean("confirmed",
			mcp.Description("Whether the user accepted the offered alternative (used with confirmationToken)"),
		),
	)

	s.AddTool(checkAvailabilityTool, common.InstrumentedToolHandlerWithService(
		"booking_check_availability", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheckAvailability(ctx, request, sc)
		}))

	// Find next free slot tool
	findNextSlotTool := mcp.NewTool("booking_find_next_slot",
		mcp.WithDescription("Find the next free appointment slot, probing forward in fixed increments from the given date and time"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date to start searching from (e.g., '2025-12-05')"),
		),
		mcp.WithString("time",
			mcp.Description("Time to start searching from (e.g., '14:00'). Defaults to the clinic's default time."),
		),
		mcp.WithNumber("maxAttempts",
			mcp.Description("Maximum number of slots to check (default: 10)"),
		),
	)

	s.AddTool(findNextSlotTool, common.InstrumentedToolHandlerWithService(
		"booking_find_next_slot", instrumentation.ServiceCalendar, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindNextSlot(ctx, request, sc)
		}))

	// Day availability tool
	availableSlotsTool := mcp.NewTool("booking_available_slots",
		mcp.WithDescription("List all free appointment slots on a given date during business hours"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date to list slots for (e.g., '2025-12-05')"),
		),
	)

	s.AddTool(availableSlotsTool, common.InstrumentedToolHandlerWithService(
		"booking_available_slots", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAvailableSlots(ctx, request, sc)
		}))

	return nil
}

func handleCheckAvailability(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	decision := decisionFromArgs(args)
	date, _ := args["date"].(string)
	timeStr, _ := args["time"].(string)

	if decision == nil && date == "" {
		return mcp.NewToolResultError("date is required"), nil
	}

	engine, errResult := getEngine(account, sc)
	if errResult != nil {
		return errResult, nil
	}

	result, err := engine.CheckAvailability(ctx, date, timeStr, decision)
	if err != nil {
		recordBookingOperation(ctx, sc, "check_availability", "error")
		return resultFromError(err)
	}

	recordBookingOperation(ctx, sc, "check_availability", string(result.Status))
	if m := sc.Metrics(); m != nil {
		if decision != nil {
			outcome := "declined"
			if decision.Confirmed {
				outcome = "confirmed"
			}
			m.RecordOfferOutcome(ctx, outcome)
		} else {
			m.RecordConflictCheck(ctx, !result.IsAvailable)
		}
	}

	return jsonResult(result)
}

func handleFindNextSlot(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	date, ok := args["date"].(string)
	if !ok || date == "" {
		return mcp.NewToolResultError("date is required"), nil
	}
	timeStr, _ := args["time"].(string)

	maxAttempts := 0
	if v, ok := args["maxAttempts"].(float64); ok {
		maxAttempts = int(v)
	}

	engine, errResult := getEngine(account, sc)
	if errResult != nil {
		return errResult, nil
	}

	result, err := engine.FindNextFreeSlot(ctx, date, timeStr, maxAttempts)
	if err != nil {
		recordBookingOperation(ctx, sc, "find_next_slot", "error")
		return resultFromError(err)
	}

	recordBookingOperation(ctx, sc, "find_next_slot", string(result.Status))
	if m := sc.Metrics(); m != nil {
		m.RecordSlotSearch(ctx, result.AttemptsChecked, result.Status == schedule.StatusApproved)
	}

	return jsonResult(result)
}

func handleAvailableSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	date, ok := args["date"].(string)
	if !ok || date == "" {
		return mcp.NewToolResultError("date is required"), nil
	}

	engine, errResult := getEngine(account, sc)
	if errResult != nil {
		return errResult, nil
	}

	result, err := engine.AvailableSlots(ctx, date)
	if err != nil {
		recordBookingOperation(ctx, sc, "available_slots", "error")
		return resultFromError(err)
	}

	recordBookingOperation(ctx, sc, "available_slots", string(result.Status))
	return jsonResult(result)
}
