package fetcher

import (
	"context"
	"errors"
	"net"
)

// Mode tags how markup was obtained.
type Mode int

const (
	// ModeFailed means neither fetch mode produced markup.
	ModeFailed Mode = iota
	// ModePrimary means the HTTP request succeeded.
	ModePrimary
	// ModeFallback means the browser rendered the page.
	ModeFallback
)

// String returns the mode label used in logs and metrics.
func (m Mode) String() string {
	switch m {
	case ModePrimary:
		return "primary"
	case ModeFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// ErrorKind classifies a failed fetch attempt.
type ErrorKind string

// Error kinds.
const (
	KindNone      ErrorKind = ""
	KindTimeout   ErrorKind = "timeout"
	KindStatus    ErrorKind = "status"
	KindTransport ErrorKind = "transport"
	KindRender    ErrorKind = "render"
)

// Outcome is the result of fetching one URL. It is never persisted.
type Outcome struct {
	URL    string
	Markup []byte
	Mode   Mode
	Status int
	Kind   ErrorKind
	Err    error
}

// OK reports whether the outcome carries usable markup.
func (o Outcome) OK() bool {
	return o.Mode != ModeFailed
}

func failed(url string, kind ErrorKind, status int, err error) Outcome {
	return Outcome{URL: url, Mode: ModeFailed, Status: status, Kind: kind, Err: err}
}

// classify maps a transport error to an ErrorKind.
func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
