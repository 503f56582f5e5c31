package healthboard

import (
	"time"

	"github.com/jpalmerr/healthboard/internal/probe"
)

// Verdict is the outcome of a single probe check.
//
// A probe's verdict is translated into a board status through the probe's
// status map (see [WithStatusMap]); the verdict itself is never stored.
type Verdict string

const (
	// VerdictUp indicates the endpoint is healthy and responding normally.
	VerdictUp Verdict = probe.VerdictUp

	// VerdictDown indicates the endpoint is unreachable or returning errors.
	VerdictDown Verdict = probe.VerdictDown

	// VerdictDegraded indicates the endpoint is partially functional.
	VerdictDegraded Verdict = probe.VerdictDegraded

	// VerdictUnknown indicates the response could not be interpreted.
	VerdictUnknown Verdict = probe.VerdictUnknown
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	return string(v)
}

// Extractor determines the [Verdict] of a probe from its HTTP response.
//
// Extractors should be pure functions of their inputs. They run inside a
// panic recovery boundary: a panicking extractor yields [VerdictDown] and an
// error carrying a correlation id, and the stack is logged server-side.
type Extractor func(body []byte, statusCode int) Verdict

// ProbeResult is passed to callbacks registered with [WithProbeCallback]
// after each check has been written to the board.
type ProbeResult struct {
	Category string
	Item     string
	URL      string

	Verdict Verdict

	// Status is the board status the verdict was mapped to.
	Status string

	Latency   time.Duration
	CheckedAt time.Time

	// Error is set when the request failed or the extractor panicked.
	Error error

	// RawResponse contains the HTTP response body, limited to 1MB.
	RawResponse []byte

	// StatusCode is zero if the request failed before receiving a response.
	StatusCode int
}
