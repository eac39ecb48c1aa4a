package bestshot

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// CallError categorizes a Gemini API failure so the worker can log and
// count it by cause. The job outcome is the same either way; the category
// only feeds metrics and log severity.
type CallError struct {
	Type    CallErrorType
	Message string
	Err     error
}

// CallErrorType categorizes API call failures.
type CallErrorType int

const (
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey CallErrorType = iota
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeNetworkError indicates a connectivity or server issue.
	ErrTypeNetworkError
	// ErrTypeUnknown indicates an unrecognized error.
	ErrTypeUnknown
)

// MetricValue names the error category for the EMF Result dimension.
func (t CallErrorType) MetricValue() string {
	switch t {
	case ErrTypeInvalidKey:
		return "invalid_key"
	case ErrTypeQuotaExceeded:
		return "quota"
	case ErrTypeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// classifyError analyzes an error and returns a CallError with the
// appropriate type.
func classifyError(err error) *CallError {
	if err == nil {
		return nil
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		log.Error().Err(err).Msg("Invalid Gemini API key")
		return &CallError{
			Type:    ErrTypeInvalidKey,
			Message: "API key is invalid or has been revoked",
			Err:     err,
		}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		log.Error().Err(err).Msg("Gemini API quota exceeded")
		return &CallError{
			Type:    ErrTypeQuotaExceeded,
			Message: "API quota exceeded or rate limited",
			Err:     err,
		}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		log.Error().Err(err).Msg("Network error calling Gemini")
		return &CallError{
			Type:    ErrTypeNetworkError,
			Message: "Network error reaching the Gemini API",
			Err:     err,
		}

	default:
		log.Error().Err(err).Msg("Unknown Gemini API error")
		return &CallError{
			Type:    ErrTypeUnknown,
			Message: "Gemini API call failed",
			Err:     err,
		}
	}
}

// classifyAPIError categorizes a Google API error by status code.
func classifyAPIError(err *genai.APIError) *CallError {
	switch err.Code {
	case 400, 401, 403:
		log.Error().Int("code", err.Code).Msg("Gemini authentication failed")
		return &CallError{
			Type:    ErrTypeInvalidKey,
			Message: "API key is invalid, expired, or lacks permissions",
			Err:     err,
		}

	case 429:
		log.Error().Int("code", err.Code).Msg("Gemini rate limit exceeded")
		return &CallError{
			Type:    ErrTypeQuotaExceeded,
			Message: "API rate limit exceeded",
			Err:     err,
		}

	case 500, 502, 503, 504:
		log.Error().Int("code", err.Code).Msg("Gemini server error")
		return &CallError{
			Type:    ErrTypeNetworkError,
			Message: "Gemini API server error",
			Err:     err,
		}

	default:
		log.Error().Int("code", err.Code).Str("message", err.Message).Msg("Gemini API error")
		return &CallError{
			Type:    ErrTypeUnknown,
			Message: err.Message,
			Err:     err,
		}
	}
}
