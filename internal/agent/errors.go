package agent

import (
	"context"
	"errors"

	"github.com/ascendia-dental/frontdesk/internal/opendental"
)

// Workflow error taxonomy. All of these are caught at the orchestrator
// boundary and converted to a rendered reply; none crosses to the transport.
var (
	// ErrGatewayUnavailable wraps network/timeout/non-2xx gateway failures.
	ErrGatewayUnavailable = errors.New("agent: gateway unavailable")

	// ErrPatientNotFound means resolution produced no match; the caller is
	// asked for more identifying detail.
	ErrPatientNotFound = errors.New("agent: patient not found")

	// ErrSlotUnavailable means the conflict detector blocked the booking.
	ErrSlotUnavailable = errors.New("agent: slot unavailable")

	// ErrValidation marks a malformed or missing booking field; the reply
	// asks for exactly the missing piece.
	ErrValidation = errors.New("agent: validation failed")
)

// slotConflictError carries the rendered conflict reply through the error
// path. The boundary unwraps it to ErrSlotUnavailable and answers with the
// alternatives already baked into the reply.
type slotConflictError struct {
	reply string
}

func (e *slotConflictError) Error() string { return ErrSlotUnavailable.Error() }
func (e *slotConflictError) Unwrap() error { return ErrSlotUnavailable }

// asGatewayFailure classifies an error from a gateway call. Context
// cancellation and deadline expiry count: the client applies a fixed timeout
// and never retries, so a timeout is indistinguishable from an outage here.
func asGatewayFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, opendental.ErrPatientNotFound) {
		return ErrPatientNotFound
	}
	var apiErr *opendental.APIError
	if errors.As(err, &apiErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return errors.Join(ErrGatewayUnavailable, err)
	}
	// Transport-level failures (connection refused, DNS) arrive as wrapped
	// url.Error values; treat anything unrecognized as an outage.
	return errors.Join(ErrGatewayUnavailable, err)
}
