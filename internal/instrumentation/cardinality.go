package instrumentation

import (
	"sort"
	"strings"
)

// ExtractUserDomain returns the domain of an email address, or "unknown".
// Metrics and general logs carry domains rather than full addresses.
func ExtractUserDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}
	return "unknown"
}

// InviteeDomains returns the sorted, distinct domains of emails.
func InviteeDomains(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		seen[ExtractUserDomain(e)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
