package apiclient

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind tags what went wrong with a call.
type Kind int

const (
	KindNetwork Kind = iota + 1 // the request never completed
	KindStatus                  // the server answered with a non-2xx status
	KindDecode                  // a 2xx body could not be decoded
	KindEncode                  // the request body could not be encoded
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Error is the error value returned by every Client call. Inspect it with errors.As.
type Error struct {
	Kind    Kind
	Status  int // the response status; 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Unauthorized reports whether the server rejected the session token.
func (e *Error) Unauthorized() bool {
	return e.Kind == KindStatus && e.Status == 401
}

func statusFallback(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

// errorMessage extracts a human readable message from an error body:
// {"message": "..."}, the server's {"error": "..."}, or the first of its per-field messages.
func errorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if msg, ok := payload[key].(string); ok && strings.TrimSpace(msg) != "" {
			return msg
		}
	}

	fields := make([]string, 0, len(payload))
	for fld, v := range payload {
		if _, ok := v.(string); ok {
			fields = append(fields, fld)
		}
	}
	if len(fields) == 0 {
		return ""
	}
	sort.Strings(fields)
	return fields[0] + ": " + payload[fields[0]].(string)
}
