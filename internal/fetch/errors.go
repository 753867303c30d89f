package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"optionstracker/internal/client/ivx"
)

// FetchError is the terminal error for one provider call. Retryable errors
// have already exhausted their retry budget by the time callers see one.
type FetchError struct {
	Op        string
	Symbol    string
	Status    int
	Retryable bool
	NotFound  bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// retryable reports whether the call should be reattempted: timeouts and
// provider-side (5xx) failures are; 4xx and malformed payloads are not.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *ivx.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	// Transport-level failures without a status (connection reset, DNS).
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return false
}

func notFound(err error) bool {
	var apiErr *ivx.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func classify(op, symbol string, err error) *FetchError {
	fe := &FetchError{
		Op:        op,
		Symbol:    symbol,
		Retryable: retryable(err),
		NotFound:  notFound(err),
		Err:       err,
	}
	var apiErr *ivx.APIError
	if errors.As(err, &apiErr) {
		fe.Status = apiErr.Status
	}
	return fe
}
