package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
)

// maxResponseSize bounds carrier response bodies.
const maxResponseSize = 10 << 20

// doCarrierRequest sends req and returns the body of a 2xx response.
// Every failure is returned as a *ports.CarrierError.
func doCarrierRequest(client *http.Client, carrier domain.Carrier, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(req.Context(), carrier, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError(req.Context(), carrier, err)
	}

	if category, failed := statusCategory(resp.StatusCode); failed {
		return nil, ports.NewCarrierError(carrier, category,
			fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	return body, nil
}

func transportError(ctx context.Context, carrier domain.Carrier, err error) *ports.CarrierError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return ports.NewCarrierError(carrier, ports.CategoryTimeout, "request did not complete in time", err)
	}
	return ports.NewCarrierError(carrier, ports.CategoryProviderOutage, "request failed", err)
}

func statusCategory(status int) (ports.ErrorCategory, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ports.CategoryAuthentication, true
	case status == http.StatusNotFound:
		return ports.CategoryNotFound, true
	case status == http.StatusTooManyRequests || status >= 500:
		return ports.CategoryProviderOutage, true
	default:
		return ports.CategoryBadData, true
	}
}
