package interpret

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teemow/donna/internal/meeting"
)

// FieldError describes one shape violation in the model's answer.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors collects all violations of one answer.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%d invalid field(s): %s", len(e), strings.Join(msgs, "; "))
}

// newValidator returns a validator that reports json field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// decodeDraft decodes raw into a Draft and validates its shape. Wrong types
// (a numeric start, a string where the invitee list belongs) fail decoding;
// extra fields are ignored.
func decodeDraft(v *validator.Validate, raw string) (meeting.Draft, error) {
	var d meeting.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return meeting.Draft{}, fmt.Errorf("decode draft: %w", err)
	}

	d.Title = strings.TrimSpace(d.Title)
	d.Start = strings.TrimSpace(d.Start)
	d.End = strings.TrimSpace(d.End)
	for i := range d.Invitees {
		d.Invitees[i] = strings.TrimSpace(d.Invitees[i])
	}

	if err := v.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return meeting.Draft{}, translate(verrs)
		}
		return meeting.Draft{}, err
	}
	return d, nil
}

func translate(errs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, 0, len(errs))
	for _, fe := range errs {
		msg := fe.Error()
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = fmt.Sprintf("%q is not an email address", fe.Value())
		case "max":
			msg = fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
