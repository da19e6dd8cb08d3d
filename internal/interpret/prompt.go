package interpret

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// draftSchema describes the object the model must answer with.
var draftSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"title": {
			Type:        jsonschema.String,
			Description: "Short meeting title",
		},
		"start": {
			Type:        jsonschema.String,
			Description: "Start time, ISO 8601 with UTC offset (YYYY-MM-DDTHH:MM:SS+HH:MM)",
		},
		"end": {
			Type:        jsonschema.String,
			Description: "End time in the same format. Omit when no duration or end is mentioned",
		},
		"invitees": {
			Type:        jsonschema.Array,
			Items:       &jsonschema.Definition{Type: jsonschema.String},
			Description: "Email addresses mentioned in the request",
		},
	},
	Required: []string{"title", "start", "invitees"},
}

// BuildPrompt renders the completion prompt for text. The reference date is
// stated in loc so relative phrases ("tomorrow", "next Monday") resolve
// against the user's calendar day.
func BuildPrompt(text string, reference time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := reference.In(loc)

	schema, err := json.Marshal(draftSchema)
	if err != nil {
		// Static definition; only a programming error can get here.
		panic(fmt.Sprintf("marshal draft schema: %v", err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today is %s (%s). ", local.Format("2006-01-02"), local.Weekday())
	fmt.Fprintf(&b, "The user's time zone is %s (current offset %s).\n", loc.String(), local.Format("-07:00"))
	b.WriteString("Extract the meeting the user wants to schedule from the request below.\n")
	b.WriteString("Reply with a single JSON object and nothing else, matching this JSON schema:\n")
	b.Write(schema)
	b.WriteString("\nResolve relative dates against today. Express times in the user's time zone with an explicit offset. ")
	b.WriteString("If a duration is given, set end accordingly; otherwise leave end out.\n\n")
	b.WriteString("Request: ")
	b.WriteString(strings.TrimSpace(text))
	return b.String()
}
