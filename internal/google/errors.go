package google

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/teemow/donna/internal/meeting"
)

// ProviderError wraps err as a meeting.ProviderError for provider.
// HTTP status and message are lifted from a *googleapi.Error when present.
func ProviderError(provider meeting.Provider, err error) error {
	if err == nil {
		return nil
	}

	perr := &meeting.ProviderError{Provider: provider, Err: err}

	var gerr *googleapi.Error
	switch {
	case errors.As(err, &gerr):
		perr.Code = strconv.Itoa(gerr.Code)
		perr.Message = gerr.Message
		if perr.Message == "" {
			perr.Message = http.StatusText(gerr.Code)
		}
	case errors.Is(err, context.DeadlineExceeded):
		perr.Code = "timeout"
		perr.Message = "request timed out"
	case errors.Is(err, context.Canceled):
		perr.Code = "canceled"
		perr.Message = "request canceled"
	}
	return perr
}
