package meeting

import (
	"time"
)

// DefaultDuration is applied when a draft carries no end time.
const DefaultDuration = time.Hour

// Draft is the loosely-typed meeting description produced by the interpreter.
// Start and End are RFC 3339 strings with an explicit UTC offset; End may be empty.
type Draft struct {
	Title    string   `json:"title" validate:"required,max=256"`
	Start    string   `json:"start" validate:"required"`
	End      string   `json:"end,omitempty"`
	Invitees []string `json:"invitees" validate:"dive,required,email"`
}

// Meeting is a validated, future-dated meeting ready for booking.
type Meeting struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Invitees []string  `json:"invitees"`
}

// Duration returns End - Start.
func (m Meeting) Duration() time.Duration {
	return m.End.Sub(m.Start)
}

// Draft converts the meeting back into its draft form.
// Validating the result against the same instant yields an equal Meeting.
func (m Meeting) Draft() Draft {
	return Draft{
		Title:    m.Title,
		Start:    m.Start.Format(time.RFC3339Nano),
		End:      m.End.Format(time.RFC3339Nano),
		Invitees: append([]string(nil), m.Invitees...),
	}
}

// Status is the overall outcome of a booking attempt.
type Status string

const (
	StatusBooked         Status = "booked"
	StatusPartialFailure Status = "partial_failure"
	StatusFailed         Status = "failed"
)

// Provider identifies the component an error record belongs to.
// Besides downstream providers, the pre-booking stages are tagged too so that
// a Failed result always names where it stopped.
type Provider string

const (
	ProviderInput       Provider = "input"
	ProviderInterpreter Provider = "interpreter"
	ProviderValidator   Provider = "validator"
)

// Reference points at the artifacts created by a successful booking.
type Reference struct {
	MeetingID     string `json:"meeting_id,omitempty"`
	JoinURL       string `json:"join_url,omitempty"`
	CalendarEvent string `json:"calendar_event_id,omitempty"`
	CalendarLink  string `json:"calendar_link,omitempty"`
}

// IsZero reports whether nothing was created.
func (r Reference) IsZero() bool {
	return r == Reference{}
}

// ProviderFailure is one entry of Result.Errors.
type ProviderFailure struct {
	Provider Provider `json:"provider"`
	Kind     Kind     `json:"kind"`
	Detail   string   `json:"detail"`
}

// Result is the outcome of scheduling a single request.
type Result struct {
	Status           Status            `json:"status"`
	MeetingReference *Reference        `json:"meeting_reference"`
	Errors           []ProviderFailure `json:"errors"`
	Meeting          *Meeting          `json:"meeting,omitempty"`
}

// Failed builds a Failed result with a single error entry derived from err.
func Failed(provider Provider, err error) Result {
	return Result{
		Status: StatusFailed,
		Errors: []ProviderFailure{FailureFrom(provider, err)},
	}
}

// Conference is the online meeting created by the primary provider.
type Conference struct {
	ID      string `json:"id"`
	JoinURL string `json:"join_url,omitempty"`
	// Number and Password are the dial-in details, when the provider has any.
	Number   string `json:"number,omitempty"`
	Password string `json:"password,omitempty"`
	SIP      string `json:"sip,omitempty"`
}

// CalendarEntry is the event created by the secondary provider.
type CalendarEntry struct {
	ID   string `json:"id"`
	Link string `json:"link,omitempty"`
}
