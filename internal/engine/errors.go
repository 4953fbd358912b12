package engine

import (
	"encoding/json"
	"strings"

	"github.com/ppietruszewski/kneelog/internal/remote"
)

// unknownWriteError is the fallback when a failure carries no
// recognizable message.
const unknownWriteError = "unknown write error"

// normalizeError reduces a write failure of unknown shape to one
// human-readable string. Remote errors carry a JSON body that may hold
// a message or a provider-specific error_description; plain errors use
// their own text; anything empty falls back to a generic message.
func normalizeError(err error) string {
	if err == nil {
		return unknownWriteError
	}

	if re, ok := err.(*remote.Error); ok {
		if msg := messageFromBody(re.Body); msg != "" {
			return msg
		}
		return re.Error()
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return unknownWriteError
}

type errorBody struct {
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Err              string `json:"error"`
}

// messageFromBody extracts the most specific message field from a JSON
// error payload, or falls back to the raw body text.
func messageFromBody(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	var parsed errorBody
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		switch {
		case parsed.Message != "":
			return parsed.Message
		case parsed.ErrorDescription != "":
			return parsed.ErrorDescription
		case parsed.Err != "":
			return parsed.Err
		}
	}
	return body
}
