package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	genai "google.golang.org/genai"
)

// Kind classifies a remote-capability failure. Classification happens once
// at the client boundary; callers branch on Kind, never on error text.
type Kind int

const (
	KindUnknown Kind = iota
	// Transient: eligible for retry with backoff.
	KindOverloaded
	KindRateLimited
	KindNetwork
	// Terminal: retrying cannot help.
	KindBlocked
	KindContract
	KindInput
	KindUnreadable
)

func (k Kind) String() string {
	switch k {
	case KindOverloaded:
		return "overloaded"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	case KindBlocked:
		return "blocked"
	case KindContract:
		return "contract"
	case KindInput:
		return "input"
	case KindUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// Fault is a typed failure raised by clients.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Err }

func NewFault(kind Kind, msg string) error {
	return &Fault{Kind: kind, Message: msg}
}

func WrapFault(kind Kind, msg string, err error) error {
	return &Fault{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the fault kind, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// Transient reports whether the error is worth retrying.
// Untyped errors are not retried.
func Transient(err error) bool {
	switch KindOf(err) {
	case KindOverloaded, KindRateLimited, KindNetwork:
		return true
	}
	return false
}

// classifyTransport maps a raw genai/transport error into the taxonomy.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return WrapFault(KindRateLimited, "provider rate limit", err)
		case 500, 503:
			return WrapFault(KindOverloaded, "provider overloaded", err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapFault(KindNetwork, "call timed out", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return WrapFault(KindNetwork, "transport failure", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return WrapFault(KindNetwork, "transport failure", err)
	}
	return err
}
