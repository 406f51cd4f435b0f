package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/clinicdesk/clinicsched/internal/logging"
)

// Engine executes the booking operations against a remote event store.
// It holds no booking state of its own; every call re-reads the calendar.
type Engine struct {
	cfg     Config
	loc     *time.Location
	store   EventStore
	signer  *OfferSigner
	limiter *rate.Limiter
	logger  *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates an engine for the given store and policy.
func NewEngine(cfg Config, store EventStore, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	signer, err := NewOfferSigner(cfg.SigningKey, cfg.OfferTTL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	probes := cfg.ProbesPerSecond
	if probes <= 0 {
		probes = DefaultProbesPerSecond
	}
	return &Engine{
		cfg:     cfg,
		loc:     loc,
		store:   store,
		signer:  signer,
		limiter: rate.NewLimiter(rate.Limit(probes), 1),
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Config returns the engine's policy configuration.
func (e *Engine) Config() Config { return e.cfg }

// Location returns the zone all slots are interpreted in.
func (e *Engine) Location() *time.Location { return e.loc }

// Decision is a caller's response to a pending offer.
type Decision struct {
	Token     string
	Confirmed bool
}

// InsertRequest carries the fields of a booking request.
type InsertRequest struct {
	FullName  string
	Email     string
	Phone     string
	Date      string
	Time      string
	Treatment string
}

// MoveRequest carries the fields of a reschedule request. Decision is set
// when the caller responds to a previously issued offer.
type MoveRequest struct {
	Email    string
	Phone    string
	NewDate  string
	NewTime  string
	Decision *Decision
}

// resolveSlot normalizes a date/time pair into the slot start instant.
// An empty time falls back to the configured default.
func (e *Engine) resolveSlot(date, timeStr string) (time.Time, error) {
	normalized, err := NormalizeTime(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	if normalized == "" {
		normalized = e.cfg.DefaultTime
	}
	return CombineDateTime(date, normalized, e.loc)
}

// conflicting returns timed events overlapping the window, excluding the
// given event ID (used when moving an event over its own slot).
func (e *Engine) conflicting(ctx context.Context, w Window, excludeID string) ([]Event, error) {
	events, err := e.store.ListEvents(ctx, e.cfg.CalendarID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	var conflicts []Event
	for _, ev := range events {
		if ev.AllDay || ev.ID == excludeID {
			continue
		}
		if w.Overlaps(Window{Start: ev.Start, End: ev.End}) {
			conflicts = append(conflicts, ev)
		}
	}
	return conflicts, nil
}

// FindNextFreeSlot probes forward from the given date/time in fixed
// one-slot increments until a free window is found, up to maxAttempts
// (the configured maximum when maxAttempts is zero or negative).
//
// The base search is a pure conflict probe: it does not skip non-business
// hours. Callers that need policy-clean slots gate the result themselves.
func (e *Engine) FindNextFreeSlot(ctx context.Context, date, timeStr string, maxAttempts int) (*SlotSearchResult, error) {
	if maxAttempts <= 0 {
		maxAttempts = e.cfg.MaxSearchAttempts
	}
	start, err := e.resolveSlot(date, timeStr)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &RemoteError{Op: "slot search", Attempts: attempt, Err: err}
		}
		slotStart := start.Add(time.Duration(attempt) * e.cfg.SlotDuration)
		conflicts, err := e.conflicting(ctx, NewWindow(slotStart, e.cfg.SlotDuration), "")
		if err != nil {
			return nil, &RemoteError{Op: "slot search", Attempts: attempt, Err: err}
		}
		if len(conflicts) == 0 {
			e.logger.DebugContext(ctx, "found free slot",
				logging.Operation("find_next_slot"),
				logging.Slot(slotStart.Format("2006-01-02"), slotStart.Format("15:04")),
				slog.Int("attempts", attempt+1))
			return &SlotSearchResult{
				Status:          StatusApproved,
				AvailableDate:   slotStart.Format("2006-01-02"),
				AvailableTime:   slotStart.Format("15:04"),
				AttemptsChecked: attempt + 1,
				Message: fmt.Sprintf("Found available slot at %s after checking %d slot(s)",
					slotStart.Format("2006-01-02 15:04"), attempt+1),
			}, nil
		}
	}

	return &SlotSearchResult{
		Status:          StatusRejected,
		AttemptsChecked: maxAttempts,
		Message:         fmt.Sprintf("No available slot found after checking %d time slots", maxAttempts),
	}, nil
}

// CheckAvailability checks whether a slot is free. When the slot is
// occupied and an alternative exists, the result is pending and carries a
// signed confirmation token; calling again with the token and the user's
// decision resolves the offer.
func (e *Engine) CheckAvailability(ctx context.Context, date, timeStr string, decision *Decision) (*AvailabilityResult, error) {
	if decision != nil {
		offer, err := e.verifyOffer(decision.Token, OfferOpCheckAvailability)
		if err != nil {
			return nil, err
		}
		if !decision.Confirmed {
			return &AvailabilityResult{
				Status:        StatusRejected,
				RequestedDate: offer.OriginalDate,
				RequestedTime: offer.OriginalTime,
				Message:       "User declined the alternative time slot",
			}, nil
		}
		return &AvailabilityResult{
			Status:        StatusApproved,
			IsAvailable:   true,
			RequestedDate: offer.AlternativeDate,
			RequestedTime: offer.AlternativeTime,
			Message: fmt.Sprintf("Alternative time slot approved: %s at %s",
				offer.AlternativeDate, offer.AlternativeTime),
		}, nil
	}

	start, err := e.resolveSlot(date, timeStr)
	if err != nil {
		return nil, err
	}
	isoDate, isoTime := start.Format("2006-01-02"), start.Format("15:04")

	if !e.cfg.IsBookable(start) {
		return nil, &PolicyViolationError{Date: isoDate, Time: isoTime}
	}

	conflicts, err := e.conflicting(ctx, NewWindow(start, e.cfg.SlotDuration), "")
	if err != nil {
		return nil, &RemoteError{Op: "availability check", Err: err}
	}

	if len(conflicts) == 0 {
		return &AvailabilityResult{
			Status:        StatusApproved,
			IsAvailable:   true,
			RequestedDate: isoDate,
			RequestedTime: isoTime,
			Message:       "Time slot is available",
		}, nil
	}

	next, err := e.FindNextFreeSlot(ctx, isoDate, isoTime, 0)
	if err != nil {
		return nil, err
	}
	if next.Status != StatusApproved {
		return &AvailabilityResult{
			Status:        StatusRejected,
			RequestedDate: isoDate,
			RequestedTime: isoTime,
			Message: fmt.Sprintf("Time slot is occupied. No alternative slots available in the next %d hours.",
				e.cfg.MaxSearchAttempts),
		}, nil
	}

	token, err := e.signer.Sign(Offer{
		Op:              OfferOpCheckAvailability,
		OriginalDate:    isoDate,
		OriginalTime:    isoTime,
		AlternativeDate: next.AvailableDate,
		AlternativeTime: next.AvailableTime,
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "issued availability offer",
		logging.Operation("check_availability"),
		slog.String("requested", isoDate+" "+isoTime),
		slog.String("alternative", next.AvailableDate+" "+next.AvailableTime))

	return &AvailabilityResult{
		Status:            StatusPending,
		RequestedDate:     isoDate,
		RequestedTime:     isoTime,
		AlternativeDate:   next.AvailableDate,
		AlternativeTime:   next.AvailableTime,
		ConfirmationToken: token,
		Hint: fmt.Sprintf("⚠️ The time slot %s on %s is occupied. Would you like to book %s at %s instead?",
			isoTime, isoDate, next.AvailableDate, next.AvailableTime),
		Message: fmt.Sprintf("Time slot is occupied. Would you like to book %s at %s instead?",
			next.AvailableDate, next.AvailableTime),
	}, nil
}

// Insert books a new appointment. The slot is re-checked immediately before
// the write; a conflict detected at that point aborts the booking and is
// reported with the next free alternative when one exists.
func (e *Engine) Insert(ctx context.Context, req InsertRequest) (*InsertResult, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", req.FullName},
		{"email", req.Email},
		{"phone", req.Phone},
		{"date", req.Date},
		{"time", req.Time},
	} {
		if isBlank(f.value) {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	treatment := req.Treatment
	if isBlank(treatment) {
		treatment = e.cfg.DefaultTreatment
	}

	start, err := e.resolveSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	end := start.Add(e.cfg.SlotDuration)
	isoDate, isoTime := start.Format("2006-01-02"), start.Format("15:04")

	if !e.cfg.IsBookable(start) {
		return nil, &PolicyViolationError{Date: isoDate, Time: isoTime}
	}

	// Final availability check before the write.
	conflicts, err := e.conflicting(ctx, Window{Start: start, End: end}, "")
	if err != nil {
		return nil, &RemoteError{Op: "insert pre-check", Err: err}
	}
	if len(conflicts) > 0 {
		return nil, e.conflictWithAlternative(ctx, isoDate, isoTime)
	}

	summary := treatment + " - " + req.FullName
	created, err := e.store.CreateEvent(ctx, e.cfg.CalendarID, EventInput{
		Summary:        summary,
		Description:    fmt.Sprintf("Treatment: %s\nPhone: %s", treatment, req.Phone),
		Start:          start,
		End:            end,
		TimeZone:       e.cfg.TimeZone,
		AttendeeEmails: []string{req.Email},
		Metadata: map[string]string{
			MetaEmailNorm: NormalizeEmail(req.Email),
			MetaPhoneNorm: NormalizePhone(req.Phone),
		},
	})
	if err != nil {
		return nil, &RemoteError{Op: "insert", Err: err}
	}

	inviteLink := BuildInviteLink(summary, []string{
		"Treatment: " + treatment,
		"Name: " + req.FullName,
		"Email: " + req.Email,
		"Phone: " + req.Phone,
	}, start, end)

	e.logger.InfoContext(ctx, "appointment booked",
		logging.Operation("insert"),
		slog.String("event_id", created.ID),
		logging.Slot(isoDate, isoTime),
		logging.UserHash(req.Email),
		logging.PhoneHash(req.Phone))

	msg := fmt.Sprintf("Confirmed ✅ %s for %s on %s at %s. Email: %s, Phone: %s. Add-to-calendar link: %s",
		treatment, req.FullName, isoDate, isoTime, req.Email, req.Phone, inviteLink)

	return &InsertResult{
		Status:     StatusApproved,
		OrderID:    created.ID,
		Link:       created.Link,
		InviteLink: inviteLink,
		CalendarID: e.cfg.CalendarID,
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		Date:       isoDate,
		Time:       isoTime,
		Treatment:  treatment,
		Message:    msg,
	}, nil
}

// Cancel deletes the first upcoming appointment matching the given email or
// phone. At least one identifier is required; OR semantics apply and the
// result discloses which identifiers verified the match.
func (e *Engine) Cancel(ctx context.Context, email, phone string) (*CancelResult, error) {
	if isBlank(email) && isBlank(phone) {
		return nil, &ValidationError{Missing: []string{"email or phone"}}
	}

	ev, via, err := e.findUpcomingMatch(ctx, email, phone)
	if err != nil {
		return nil, err
	}

	if err := e.store.DeleteEvent(ctx, e.cfg.CalendarID, ev.ID); err != nil {
		return nil, &RemoteError{Op: "cancel", Err: err}
	}

	eventTime := e.formatEventTime(*ev)
	e.logger.InfoContext(ctx, "appointment cancelled",
		logging.Operation("cancel"),
		slog.String("event_id", ev.ID),
		slog.String("matched_via", via.String()),
		logging.PhoneHash(phone))

	return &CancelResult{
		Status:     StatusApproved,
		OrderID:    ev.ID,
		EventName:  ev.Summary,
		EventTime:  eventTime,
		MatchedVia: via.String(),
		Message: fmt.Sprintf("✓ Appointment %q on %s has been successfully cancelled (%s)",
			ev.Summary, ev.Start.In(e.loc).Format("2006-01-02"), via),
	}, nil
}

// Move reschedules the first upcoming appointment matching the given email
// or phone. The new slot is policy-gated and re-checked (excluding the
// moved event itself) before the write. When the new slot is occupied the
// result is pending with a signed offer for the next free slot; resuming
// with the caller's decision completes or abandons the move.
func (e *Engine) Move(ctx context.Context, req MoveRequest) (*MoveResult, error) {
	resuming := req.Decision != nil
	if resuming {
		offer, err := e.verifyOffer(req.Decision.Token, OfferOpMove)
		if err != nil {
			return nil, err
		}
		if !req.Decision.Confirmed {
			return &MoveResult{
				Status:  StatusRejected,
				Message: "User declined the alternative time slot for rescheduling",
			}, nil
		}
		req.NewDate = offer.AlternativeDate
		req.NewTime = offer.AlternativeTime
		req.Email = offer.Email
		req.Phone = offer.Phone
	}

	if isBlank(req.Email) && isBlank(req.Phone) {
		return nil, &ValidationError{Missing: []string{"email or phone"}}
	}
	if isBlank(req.NewDate) || isBlank(req.NewTime) {
		var missing []string
		if isBlank(req.NewDate) {
			missing = append(missing, "new date")
		}
		if isBlank(req.NewTime) {
			missing = append(missing, "new time")
		}
		return nil, &ValidationError{Missing: missing}
	}

	ev, via, err := e.findUpcomingMatch(ctx, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}

	oldStart := ev.Start.In(e.loc)
	oldDate, oldTime := oldStart.Format("2006-01-02"), oldStart.Format("15:04")

	newStart, err := e.resolveSlot(req.NewDate, req.NewTime)
	if err != nil {
		return nil, err
	}
	newEnd := newStart.Add(e.cfg.SlotDuration)
	isoDate, isoTime := newStart.Format("2006-01-02"), newStart.Format("15:04")

	if !e.cfg.IsBookable(newStart) {
		return nil, &PolicyViolationError{Date: isoDate, Time: isoTime}
	}

	// Re-check the target slot, ignoring the event being moved.
	conflicts, err := e.conflicting(ctx, Window{Start: newStart, End: newEnd}, ev.ID)
	if err != nil {
		return nil, &RemoteError{Op: "move pre-check", Err: err}
	}
	if len(conflicts) > 0 {
		if resuming {
			// The approved alternative got taken in the meantime; do not
			// stack a second offer on top of a resumed one.
			return nil, e.conflictWithAlternative(ctx, isoDate, isoTime)
		}

		next, err := e.FindNextFreeSlot(ctx, isoDate, isoTime, 0)
		if err != nil {
			return nil, err
		}
		if next.Status != StatusApproved {
			return nil, &ConflictError{Date: isoDate, Time: isoTime}
		}

		token, err := e.signer.Sign(Offer{
			Op:              OfferOpMove,
			OriginalDate:    isoDate,
			OriginalTime:    isoTime,
			AlternativeDate: next.AvailableDate,
			AlternativeTime: next.AvailableTime,
			Email:           req.Email,
			Phone:           req.Phone,
		})
		if err != nil {
			return nil, err
		}

		return &MoveResult{
			Status:            StatusPending,
			AlternativeDate:   next.AvailableDate,
			AlternativeTime:   next.AvailableTime,
			ConfirmationToken: token,
			Hint: fmt.Sprintf("⚠️ The requested time slot %s on %s is occupied. Would you like to reschedule to %s at %s instead?",
				isoTime, isoDate, next.AvailableDate, next.AvailableTime),
			Message: fmt.Sprintf("The slot %s on %s is occupied. Alternative: %s at %s. Awaiting user confirmation.",
				isoTime, isoDate, next.AvailableDate, next.AvailableTime),
		}, nil
	}

	updated, err := e.store.UpdateEventTime(ctx, e.cfg.CalendarID, ev.ID, newStart, newEnd, e.cfg.TimeZone)
	if err != nil {
		return nil, &RemoteError{Op: "move", Err: err}
	}

	e.logger.InfoContext(ctx, "appointment rescheduled",
		logging.Operation("move"),
		slog.String("event_id", updated.ID),
		slog.String("from", oldDate+" "+oldTime),
		slog.String("to", isoDate+" "+isoTime),
		slog.String("matched_via", via.String()),
		logging.PhoneHash(req.Phone))

	return &MoveResult{
		Status:     StatusApproved,
		OrderID:    updated.ID,
		EventName:  ev.Summary,
		OldDate:    oldDate,
		OldTime:    oldTime,
		NewDate:    isoDate,
		NewTime:    isoTime,
		MatchedVia: via.String(),
		Message: fmt.Sprintf("Appointment %q successfully rescheduled from %s at %s to %s at %s (%s)",
			ev.Summary, oldDate, oldTime, isoDate, isoTime, via),
	}, nil
}

// AvailableSlots lists all free slots between opening and closing on the
// given date. Holiday dates are rejected outright; occupied and
// out-of-hours slots are filtered with a single range query for the day.
func (e *Engine) AvailableSlots(ctx context.Context, date string) (*DaySlotsResult, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, e.loc)
	isoDate := dayStart.Format("2006-01-02")

	if e.cfg.IsHoliday(dayStart) {
		return &DaySlotsResult{
			Status:         StatusRejected,
			Date:           isoDate,
			AvailableSlots: []string{},
			Message:        fmt.Sprintf("%s is a weekend or holiday - no appointments available", isoDate),
		}, nil
	}

	events, err := e.store.ListEvents(ctx, e.cfg.CalendarID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, &RemoteError{Op: "day availability", Err: err}
	}

	slots := []string{}
	for hour := e.cfg.OpenHour; hour < e.cfg.CloseHour; hour++ {
		slotStart := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, e.loc)
		if !e.cfg.IsBookable(slotStart) {
			continue
		}
		w := NewWindow(slotStart, e.cfg.SlotDuration)
		occupied := false
		for _, ev := range events {
			if ev.AllDay {
				continue
			}
			if w.Overlaps(Window{Start: ev.Start, End: ev.End}) {
				occupied = true
				break
			}
		}
		if !occupied {
			slots = append(slots, slotStart.Format("15:04"))
		}
	}

	return &DaySlotsResult{
		Status:         StatusApproved,
		Date:           isoDate,
		AvailableSlots: slots,
		Message:        fmt.Sprintf("%d slot(s) available on %s", len(slots), isoDate),
	}, nil
}

// findUpcomingMatch scans upcoming events for the first one matching the
// given identifiers.
func (e *Engine) findUpcomingMatch(ctx context.Context, email, phone string) (*Event, MatchVia, error) {
	events, err := e.store.ListUpcomingEvents(ctx, e.cfg.CalendarID, e.now().UTC(), 100)
	if err != nil {
		return nil, MatchVia{}, &RemoteError{Op: "lookup", Err: err}
	}

	emailNorm := NormalizeEmail(email)
	phoneNorm := NormalizePhone(phone)

	for i := range events {
		if via := MatchIdentity(events[i], emailNorm, phoneNorm); via.Matched() {
			return &events[i], via, nil
		}
	}
	return nil, MatchVia{}, &NotFoundError{Email: email, Phone: phone}
}

// verifyOffer checks a confirmation token and rejects offers issued by a
// different operation: a move offer cannot resolve an availability check
// and vice versa.
func (e *Engine) verifyOffer(token, op string) (*Offer, error) {
	offer, err := e.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	if offer.Op != op {
		return nil, fmt.Errorf("%w: token was issued for a different operation", ErrInvalidOffer)
	}
	return offer, nil
}

// conflictWithAlternative builds the ConflictError for an occupied slot,
// attaching the next free slot when the search finds one.
func (e *Engine) conflictWithAlternative(ctx context.Context, isoDate, isoTime string) error {
	next, err := e.FindNextFreeSlot(ctx, isoDate, isoTime, 0)
	if err != nil {
		return err
	}
	conflict := &ConflictError{Date: isoDate, Time: isoTime}
	if next.Status == StatusApproved {
		conflict.Alternative = &Slot{Date: next.AvailableDate, Time: next.AvailableTime}
	}
	return conflict
}

func (e *Engine) formatEventTime(ev Event) string {
	if ev.AllDay {
		return ev.Start.In(e.loc).Format("2006-01-02")
	}
	return ev.Start.In(e.loc).Format(time.RFC3339)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
