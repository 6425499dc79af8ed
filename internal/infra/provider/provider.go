// Package provider translates AI provider SDK failures into the
// application's error taxonomy. The resilience layer reasons about kinds,
// not SDK types, so every provider adapter runs its errors through one of
// these classifiers before returning.
package provider

import (
	"agentdesk/internal/apperr"
)

// classifyStatus maps an HTTP status code from a provider API to a kind.
// Zero status means the failure happened before a response arrived.
func classifyStatus(status int) apperr.Kind {
	switch {
	case status == 401 || status == 403:
		return apperr.ProviderAuthFailed
	case status == 404:
		return apperr.ProviderNotFound
	case status == 429:
		return apperr.ProviderRateLimited
	case status == 408:
		return apperr.TimeoutError
	case status >= 500:
		return apperr.ProviderUnavailable
	case status >= 400:
		return apperr.ProviderRequestFailed
	default:
		return apperr.ProviderRequestFailed
	}
}
