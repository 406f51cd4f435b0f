package schedule

// Status is the outcome class every operation reports.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

// AvailabilityResult is the outcome of CheckAvailability.
type AvailabilityResult struct {
	Status        Status `json:"status"`
	IsAvailable   bool   `json:"is_available"`
	RequestedDate string `json:"requested_date"`
	RequestedTime string `json:"requested_time"`

	// Set when Status is pending.
	AlternativeDate   string `json:"alternative_date,omitempty"`
	AlternativeTime   string `json:"alternative_time,omitempty"`
	ConfirmationToken string `json:"confirmation_token,omitempty"`
	Hint              string `json:"hint,omitempty"`

	Message string `json:"message"`
}

// SlotSearchResult is the outcome of FindNextFreeSlot.
type SlotSearchResult struct {
	Status          Status `json:"status"`
	AvailableDate   string `json:"available_date,omitempty"`
	AvailableTime   string `json:"available_time,omitempty"`
	AttemptsChecked int    `json:"attempts_checked"`
	Message         string `json:"message"`
}

// InsertResult is the outcome of a successful Insert.
type InsertResult struct {
	Status     Status `json:"status"`
	OrderID    string `json:"order_id"`
	Link       string `json:"link,omitempty"`
	InviteLink string `json:"public_add_link,omitempty"`
	CalendarID string `json:"calendar_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Treatment  string `json:"treatment"`
	Message    string `json:"message"`
}

// CancelResult is the outcome of a successful Cancel.
type CancelResult struct {
	Status     Status `json:"status"`
	OrderID    string `json:"order_id"`
	EventName  string `json:"event_name"`
	EventTime  string `json:"event_time"`
	MatchedVia string `json:"matched_via"`
	Message    string `json:"message"`
}

// MoveResult is the outcome of Move.
type MoveResult struct {
	Status    Status `json:"status"`
	OrderID   string `json:"order_id,omitempty"`
	EventName string `json:"event_name,omitempty"`
	OldDate   string `json:"old_date,omitempty"`
	OldTime   string `json:"old_time,omitempty"`
	NewDate   string `json:"new_date,omitempty"`
	NewTime   string `json:"new_time,omitempty"`

	// Set when Status is pending.
	AlternativeDate   string `json:"alternative_date,omitempty"`
	AlternativeTime   string `json:"alternative_time,omitempty"`
	ConfirmationToken string `json:"confirmation_token,omitempty"`
	Hint              string `json:"hint,omitempty"`

	MatchedVia string `json:"matched_via,omitempty"`
	Message    string `json:"message"`
}

// DaySlotsResult is the outcome of AvailableSlots.
type DaySlotsResult struct {
	Status         Status   `json:"status"`
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
	Message        string   `json:"message"`
}
