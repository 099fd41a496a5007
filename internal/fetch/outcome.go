package fetch

import "fmt"

// Kind classifies an Outcome.
type Kind int

const (
	// Failed means the page could not be retrieved (network, status, type).
	Failed Kind = iota
	// Rejected means the page was retrieved but its text was not usable.
	Rejected
	// OK means the text passed validation.
	OK
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case Rejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Outcome is the result of fetching exactly one URL.
type Outcome struct {
	URL   string
	Kind  Kind
	Text  string // set only when Kind == OK
	Title string
	// Reason is a short human-readable explanation for non-OK outcomes.
	Reason string
	Err    error
	Status int
	// Forbidden is set for HTTP 403. The URL must not be retried.
	Forbidden bool
}

// OK reports whether the outcome carries accepted text.
func (o Outcome) OK() bool { return o.Kind == OK }

func (o Outcome) failed(err error) Outcome {
	o.Kind = Failed
	o.Err = err
	o.Reason = err.Error()
	return o
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}
