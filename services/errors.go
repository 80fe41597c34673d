// services/errors.go
package services

import "errors"

// Sentinel errors used across the analysis pipeline. Callers match with
// errors.Is; wrapped messages carry the provider/prompt detail.
var (
	// ErrNoProvidersConfigured is returned when an analysis is requested but
	// no provider API key is present.
	ErrNoProvidersConfigured = errors.New("no AI providers configured")

	// ErrProviderUnavailable marks a call against a provider that is not in
	// the registry. Units hitting it are recorded as failed, never fatal.
	ErrProviderUnavailable = errors.New("provider not available")

	// ErrProviderCall wraps transport or API failures from a provider.
	ErrProviderCall = errors.New("provider call failed")

	// ErrSchemaValidation wraps structured-output responses that did not
	// parse against the requested schema.
	ErrSchemaValidation = errors.New("structured response failed schema validation")

	// ErrEmptyResponse marks a provider answer with no usable text.
	ErrEmptyResponse = errors.New("empty response text")
)
