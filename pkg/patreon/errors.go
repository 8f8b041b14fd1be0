package patreon

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Common errors returned by the client.
var (
	// ErrCursorPath is returned when a cursor path stops on something other
	// than a link.
	ErrCursorPath = errors.New("cursor path did not result in a link")

	// ErrMissingCampaignID is returned when a pledge page is requested without
	// a campaign.
	ErrMissingCampaignID = errors.New("campaign id is required")
)

// ErrorObject is one entry of a JSON:API "errors" array.
type ErrorObject struct {
	ID       string `json:"id"`
	CodeName string `json:"code_name"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
}

// APIError is returned when the API answers with an error payload or a
// non-success status. Body is the response exactly as received.
type APIError struct {
	StatusCode int
	Endpoint   string
	Errors     []ErrorObject
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		first := e.Errors[0]
		msg := first.Title
		if msg == "" {
			msg = first.CodeName
		}
		if first.Detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, first.Detail)
		}
		return fmt.Sprintf("patreon %s error (status %d): %s", e.Endpoint, e.StatusCode, msg)
	}
	return fmt.Sprintf("patreon %s error (status %d)", e.Endpoint, e.StatusCode)
}

// checkResponse turns an "errors" payload or a failing status into an
// *APIError. It returns nil for a usable document.
func checkResponse(endpoint string, status int, body []byte) error {
	errs := gjson.GetBytes(body, "errors")
	if !isSet(errs) && status < 400 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: status,
		Endpoint:   endpoint,
		Body:       body,
	}
	if errs.IsArray() {
		// Best effort: an unexpected error shape still surfaces through Body.
		_ = json.Unmarshal([]byte(errs.Raw), &apiErr.Errors)
	}
	return apiErr
}

// isSet reports whether an "errors" member carries anything. Null, false,
// "", 0 and empty arrays or objects do not.
func isSet(v gjson.Result) bool {
	switch v.Type {
	case gjson.True:
		return true
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) > 0
		}
		return len(v.Map()) > 0
	default:
		return false
	}
}
