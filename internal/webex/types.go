package webex

// ProviderName tags Webex results and errors.
const ProviderName = "webex"

// DefaultBaseURL is the Webex REST API root.
const DefaultBaseURL = "https://webexapis.com/v1"

// Invitee is one entry of MeetingInput.Invitees.
type Invitee struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// MeetingInput is the body of a create-meeting request.
type MeetingInput struct {
	Title    string    `json:"title"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
	Timezone string    `json:"timezone,omitempty"`
	Invitees []Invitee `json:"invitees,omitempty"`
	// SendEmail asks Webex to mail the invitation to host and invitees.
	SendEmail bool `json:"sendEmail"`
}

// Meeting is the subset of the Webex meeting resource this client reads.
type Meeting struct {
	ID            string `json:"id"`
	MeetingNumber string `json:"meetingNumber"`
	Title         string `json:"title"`
	Password      string `json:"password"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Timezone      string `json:"timezone"`
	WebLink       string `json:"webLink"`
	SIPAddress    string `json:"sipAddress"`
	HostEmail     string `json:"hostEmail"`
}

type apiError struct {
	Message    string `json:"message"`
	TrackingID string `json:"trackingId"`
	Errors     []struct {
		Description string `json:"description"`
	} `json:"errors"`
}
