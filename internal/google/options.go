package google

import (
	"net/http"

	"google.golang.org/api/option"
)

// ClientOptions returns the service options for an already authorized HTTP
// client. A non-empty endpoint overrides the API base URL.
func ClientOptions(httpClient *http.Client, endpoint string) []option.ClientOption {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}
