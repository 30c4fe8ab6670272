package contracts

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a pipeline stage stopped
type FailureKind string

const (
	KindTransport     FailureKind = "transport"      // network, DNS, timeout, malformed body
	KindHTTP          FailureKind = "http_status"    // non-200 response
	KindSchema        FailureKind = "schema"         // expected key missing from response
	KindNotFound      FailureKind = "not_found"      // target id absent
	KindInvalidRecord FailureKind = "invalid_record" // required composition field missing
	KindPersist       FailureKind = "persist"        // filesystem write failed
)

// Sentinels for errors.Is
var (
	ErrTransport     = errors.New("transport error")
	ErrHTTPStatus    = errors.New("unexpected HTTP status")
	ErrSchema        = errors.New("unexpected response schema")
	ErrNotFound      = errors.New("composition not found")
	ErrInvalidRecord = errors.New("invalid composition record")
	ErrPersist       = errors.New("persist failed")
)

var kindSentinels = map[FailureKind]error{
	KindTransport:     ErrTransport,
	KindHTTP:          ErrHTTPStatus,
	KindSchema:        ErrSchema,
	KindNotFound:      ErrNotFound,
	KindInvalidRecord: ErrInvalidRecord,
	KindPersist:       ErrPersist,
}

// Failure is the typed error every pipeline stage returns
type Failure struct {
	Stage      string
	Kind       FailureKind
	Detail     string
	StatusCode int // set for KindHTTP
	Err        error
}

// Error implements error
func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %s", f.Stage, f.Detail)
	if f.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel for the failure kind
func (f *Failure) Is(target error) bool {
	sentinel, ok := kindSentinels[f.Kind]
	return ok && sentinel == target
}

// NewFailure builds a Failure for a stage
func NewFailure(stage string, kind FailureKind, detail string, err error) *Failure {
	return &Failure{
		Stage:  stage,
		Kind:   kind,
		Detail: detail,
		Err:    err,
	}
}

// AsFailure extracts a *Failure from an error chain
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
