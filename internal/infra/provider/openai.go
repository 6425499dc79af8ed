package provider

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"agentdesk/internal/apperr"
)

// ClassifyOpenAI converts an OpenAI SDK error into a classified error.
func ClassifyOpenAI(err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var ce *apperr.Error
	if errors.As(err, &ce) {
		return ce
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := classifyStatus(apiErr.HTTPStatusCode)
		return apperr.Wrap(kind, fmt.Sprintf("openai api error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message), err).
			WithDetails(map[string]any{
				"provider":    "openai",
				"status_code": apiErr.HTTPStatusCode,
			})
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		kind := classifyStatus(reqErr.HTTPStatusCode)
		return apperr.Wrap(kind, fmt.Sprintf("openai request error (status %d)", reqErr.HTTPStatusCode), err).
			WithDetails(map[string]any{
				"provider":    "openai",
				"status_code": reqErr.HTTPStatusCode,
			})
	}

	return apperr.Normalize(err).WithDetail("provider", "openai")
}
