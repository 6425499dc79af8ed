package provider

import (
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"agentdesk/internal/apperr"
)

// ClassifyAnthropic converts an Anthropic SDK error into a classified error.
// Non-API failures (transport, context) fall through to the generic
// normalization rules.
func ClassifyAnthropic(err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var ce *apperr.Error
	if errors.As(err, &ce) {
		return ce
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		kind := classifyStatus(apiErr.StatusCode)
		return apperr.Wrap(kind, fmt.Sprintf("anthropic api error (status %d)", apiErr.StatusCode), err).
			WithDetails(map[string]any{
				"provider":    "anthropic",
				"status_code": apiErr.StatusCode,
			})
	}

	return apperr.Normalize(err).WithDetail("provider", "anthropic")
}
