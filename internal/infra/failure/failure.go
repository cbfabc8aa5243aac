package failure

// Tagged pipeline errors
// Every stage classifies its failure with a Kind so the boundary can map it
// to a status without string matching

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindParse
	KindSchema
	KindRender
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindSchema:
		return "schema"
	case KindRender:
		return "render"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a classified failure raised by one pipeline stage.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "pipeline error: <nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Parse(stage, msg string, err error) error {
	return &Error{Kind: KindParse, Stage: stage, Msg: msg, Err: err}
}

func Schema(stage, msg string) error {
	return &Error{Kind: KindSchema, Stage: stage, Msg: msg}
}

func Render(stage, msg string, err error) error {
	return &Error{Kind: KindRender, Stage: stage, Msg: msg, Err: err}
}

func IO(stage, msg string, err error) error {
	return &Error{Kind: KindIO, Stage: stage, Msg: msg, Err: err}
}

// As returns the classified error in err's chain, if any.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return KindUnknown
}

func StageOf(err error) string {
	if fe, ok := As(err); ok {
		return fe.Stage
	}
	return ""
}

// IsClient reports whether the caller can fix err by changing the upload.
func IsClient(err error) bool {
	switch KindOf(err) {
	case KindParse, KindSchema:
		return true
	default:
		return false
	}
}

func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsClient(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Message is the text shown to the caller. Client errors carry their own
// message, server errors stay generic.
func Message(err error) string {
	fe, ok := As(err)
	if !ok {
		return "Internal server error"
	}
	switch fe.Kind {
	case KindParse:
		return "Error loading CSV file: " + fe.Msg
	case KindSchema:
		return fe.Msg
	case KindRender:
		return "Failed to render infographic"
	case KindIO:
		return "Failed to deliver infographic"
	default:
		return "Internal server error"
	}
}
