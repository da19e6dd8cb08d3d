package meeting

import (
	"strings"
	"time"
)

// Layouts accepted for timestamps without an explicit offset. They are
// interpreted in the validator's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Validate normalizes a draft into a Meeting, treating timestamps without an
// offset as UTC. See ValidateIn.
func Validate(d Draft, now time.Time) (Meeting, error) {
	return ValidateIn(d, now, time.UTC)
}

// ValidateIn normalizes a draft into a Meeting. The rules apply in order:
//
//  1. a missing or unparsable start is a TimeError
//  2. a missing end becomes start + DefaultDuration
//  3. a start at or before now is a TimeError
//  4. an end at or before start is a TimeError
//
// Timestamps without an offset are read in loc. Invitees are trimmed and
// deduplicated. The function is pure: feeding the returned Meeting's Draft()
// back in with the same now yields an equal Meeting.
func ValidateIn(d Draft, now time.Time, loc *time.Location) (Meeting, error) {
	if loc == nil {
		loc = time.UTC
	}

	start, ok := parseTime(d.Start, loc)
	if !ok {
		return Meeting{}, &TimeError{Reason: ReasonInvalidStart}
	}

	var end time.Time
	if strings.TrimSpace(d.End) == "" {
		end = start.Add(DefaultDuration)
	} else if end, ok = parseTime(d.End, loc); !ok {
		return Meeting{}, &TimeError{Reason: ReasonInvalidEnd}
	}

	if !start.After(now) {
		return Meeting{}, &TimeError{Reason: ReasonStartNotFuture}
	}
	if !end.After(start) {
		return Meeting{}, &TimeError{Reason: ReasonEndBeforeStart}
	}

	return Meeting{
		Title:    strings.TrimSpace(d.Title),
		Start:    start,
		End:      end,
		Invitees: NormalizeInvitees(d.Invitees),
	}, nil
}

func parseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeInvitees trims addresses, drops empty ones and removes
// case-insensitive duplicates. The first spelling of each address wins and
// the original order is kept.
func NormalizeInvitees(invitees []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(invitees)+len(extra))
	out := make([]string, 0, len(invitees)+len(extra))
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			return
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	for _, a := range invitees {
		add(a)
	}
	for _, a := range extra {
		add(a)
	}
	return out
}
