package dispatcher

import (
	"encoding/json"

	"github.com/vitadek/starcharts/internal/apperr"
)

// ErrorBody is the wire shape spec.md §6 requires on failure: {"error":
// {"code","message","data"}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ToErrorBody converts any error into the wire envelope. Errors that are
// not already a tagged apperr.Error are folded into Internal rather than
// silently dropped — every boundary in this repository is expected to tag
// its own errors, so reaching this fallback indicates a bug worth keeping
// visible in the response rather than a parameter-for-parameter scenario
// spec.md §7 anticipates.
func ToErrorBody(err error) ErrorBody {
	if ae, ok := apperr.As(err); ok {
		return ErrorBody{Error: ErrorDetail{Code: string(ae.Kind), Message: ae.Message, Data: ae.Data}}
	}
	return ErrorBody{Error: ErrorDetail{Code: string(apperr.Internal), Message: err.Error()}}
}

// Encode marshals result on success or the error envelope on failure,
// matching spec.md §6's "on success the object is the result; on failure
// it is the error envelope" contract. Used by both the CLI and any future
// JSON tool-call transport sitting on top of this dispatcher.
func Encode(result any, err error) ([]byte, error) {
	if err != nil {
		return json.Marshal(ToErrorBody(err))
	}
	return json.Marshal(result)
}

// ExitCode maps an error to the CLI exit code spec.md §6 documents: 0
// success, 1 unrecoverable error, 2 upstream unavailable with no cached
// fallback, 3 integrity failure.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	ae, ok := apperr.As(err)
	if !ok {
		return 1
	}
	switch ae.Kind {
	case apperr.IntegrityError:
		return 3
	case apperr.SourceUnavailable, apperr.RateLimited:
		return 2
	default:
		return 1
	}
}
