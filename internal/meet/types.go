package meet

// ProviderName tags Meet results and errors.
const ProviderName = "google_meet"

// Space access types accepted by the Meet API.
const (
	AccessTypeOpen       = "OPEN"
	AccessTypeTrusted    = "TRUSTED"
	AccessTypeRestricted = "RESTRICTED"
)

// Space represents a Google Meet meeting space
type Space struct {
	// Name is the resource name of the space
	// Format: spaces/{space}
	Name string

	// MeetingURI is the URI to join the meeting
	MeetingURI string

	// MeetingCode is the meeting code (e.g., "abc-defg-hij")
	MeetingCode string

	AccessType string
}

// SpaceInput configures a new space
type SpaceInput struct {
	// AccessType defines who can join without knocking
	AccessType string

	EnableRecording     bool
	EnableTranscription bool
}
