package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lekhapal/shg-digitizer/dto"
)

// upstreamError maps a provider failure onto the upload error taxonomy.
// status is the provider's HTTP status, or 0 when none is known.
func upstreamError(provider string, status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: %w: %v", dto.ErrUpstreamAPIFailure, provider, dto.ErrRateLimited, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: timed out: %w", dto.ErrUpstreamAPIFailure, provider, err)
	case status > 0:
		return fmt.Errorf("%w: %s returned HTTP %d: %w", dto.ErrUpstreamAPIFailure, provider, status, err)
	}
	return fmt.Errorf("%w: %s: %w", dto.ErrUpstreamAPIFailure, provider, err)
}
