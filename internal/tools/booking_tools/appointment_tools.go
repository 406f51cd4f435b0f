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

// RegisterAppointmentTools registers appointment lifecycle tools with the MCP server
func RegisterAppointmentTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Insert appointment tool
	insertTool := mcp.NewTool("booking_insert_appointment",
		mcp.WithDescription("Book a new appointment. The slot is re-checked immediately before booking; a conflict aborts the booking and reports the next free alternative."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Full name of the patient"),
		),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Email address of the patient"),
		),
		mcp.WithString("phone",
			mcp.Required(),
			mcp.Description("Phone number of the patient"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Appointment date (e.g., '2025-12-05', '5.12.2025', 'December 5, 2025')"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Appointment time (e.g., '14:00', '2pm')"),
		),
		mcp.WithString("treatment",
			mcp.Description("Treatment name from the clinic catalog (default: 'General Consultation')"),
		),
	)

	s.AddTool(insertTool, common.InstrumentedToolHandlerWithService(
		"booking_insert_appointment", instrumentation.ServiceCalendar, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleInsertAppointment(ctx, request, sc)
		}))

	// Cancel appointment tool
	cancelTool := mcp.NewTool("booking_cancel_appointment",
		mcp.WithDescription("Cancel the first upcoming appointment matching the given email or phone. At least one identifier is required."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("email",
			mcp.Description("Email address used when booking"),
		),
		mcp.WithString("phone",
			mcp.Description("Phone number used when booking"),
		),
	)

	s.AddTool(cancelTool, common.InstrumentedToolHandlerWithService(
		"booking_cancel_appointment", instrumentation.ServiceCalendar, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCancelAppointment(ctx, request, sc)
		}))

	// Move appointment tool
	moveTool := mcp.NewTool("booking_move_appointment",
		mcp.WithDescription("Reschedule the first upcoming appointment matching the given email or phone to a new slot. When the new slot is occupied, the result offers the next free slot with a confirmation token; call again with the token and the user's decision to complete or abandon the move."),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("email",
			mcp.Description("Email address used when booking"),
		),
		mcp.WithString("phone",
			mcp.Description("Phone number used when booking"),
		),
		mcp.WithString("newDate",
			mcp.Description("New appointment date (e.g., '2025-12-05'). Required unless resolving an offer."),
		),
		mcp.WithString("newTime",
			mcp.Description("New appointment time (e.g., '14:00'). Required unless resolving an offer."),
		),
		mcp.WithString("confirmationToken",
			mcp.Description("Token from a previous pending result, to resolve the offered alternative"),
		),
		mcp.WithBoolean("confirmed",
			mcp.Description("Whether the user accepted the offered alternative (used with confirmationToken)"),
		),
	)

	s.AddTool(moveTool, common.InstrumentedToolHandlerWithService(
		"booking_move_appointment", instrumentation.ServiceCalendar, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMoveAppointment(ctx, request, sc)
		}))

	return nil
}

func handleInsertAppointment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	name, _ := args["name"].(string)
	email, _ := args["email"].(string)
	phone, _ := args["phone"].(string)
	date, _ := args["date"].(string)
	timeStr, _ := args["time"].(string)
	treatment, _ := args["treatment"].(string)

	engine, errResult := getEngine(account, sc)
	if errResult != nil {
		return errResult, nil
	}

	result, err := engine.Insert(ctx, schedule.InsertRequest{
		FullName:  name,
		Email:     email,
		Phone:     phone,
		Date:      date,
		Time:      timeStr,
		Treatment: treatment,
	})
	if err != nil {
		recordBookingOperation(ctx, sc, "insert", "error")
		return resultFromError(err)
	}

	recordBookingOperation(ctx, sc, "insert", string(result.Status))
	return jsonResult(result)
}

func handleCancelAppointment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	email, _ := args["email"].(string)
	phone, _ := args["phone"].(string)

	engine, errResult := getEngine(account, sc)
	if errResult != nil {
		return errResult, nil
	}

	result, err := engine.Cancel(ctx, email, phone)
	if err != nil {
		recordBookingOperation(ctx, sc, "cancel", "error")
		return resultFromError(err)
	}

	recordBookingOperation(ctx, sc, "cancel", string(result.Status))
	return jsonResult(result)
}

func handleMoveAppointment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(ctx, args)

	email, _ := args["email"].(string)
	phone, _ := args["phone"].(string)
	newDate, _ := args["newDate"].(string)
	newTime, _ := args["newTime"].(string)
	decision := decisionFromArgs(args)

	engine, errResult := getEngine(account, sc)
	if errResult != nil {
		return errResult, nil
	}

	result, err := engine.Move(ctx, schedule.MoveRequest{
		Email:    email,
		Phone:    phone,
		NewDate:  newDate,
		NewTime:  newTime,
		Decision: decision,
	})
	if err != nil {
		recordBookingOperation(ctx, sc, "move", "error")
		return resultFromError(err)
	}

	recordBookingOperation(ctx, sc, "move", string(result.Status))
	if m := sc.Metrics(); m != nil && decision != nil {
		outcome := "declined"
		if decision.Confirmed {
			outcome = "confirmed"
		}
		m.RecordOfferOutcome(ctx, outcome)
	}

	return jsonResult(result)
}
