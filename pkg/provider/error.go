package provider

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a credential or setting that is required by the
// attempted operation but was not configured. It is returned at first use,
// never at construction.
type ConfigurationError struct {
	// Backend is the backend that needed the setting.
	Backend Backend

	// Setting names the missing setting.
	Setting string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider: %s backend is not configured: %s is empty", e.Backend, e.Setting)
}

// ProviderError is a non-2xx response from an upstream.
type ProviderError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the upstream-reported message, or the raw response body.
	Message string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimit returns true if the upstream rejected the request for rate.
func (e *ProviderError) IsRateLimit() bool {
	return e.StatusCode == 429
}

// IsAuth returns true if the upstream rejected the credential.
func (e *ProviderError) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// NoImageReturnedError is returned when an image edit succeeded without an
// image part.
type NoImageReturnedError struct {
	// Text is whatever text the model returned instead.
	Text string
}

// Error implements the error interface.
func (e *NoImageReturnedError) Error() string {
	if e.Text == "" {
		return "provider: model did not return an image"
	}
	return "provider: model did not return an image: " + e.Text
}

// NoVideoReturnedError is returned when a finished video job carries no
// usable reference.
type NoVideoReturnedError struct {
	Text string
}

// Error implements the error interface.
func (e *NoVideoReturnedError) Error() string {
	if e.Text == "" {
		return "provider: model did not return a video"
	}
	return "provider: model did not return a video: " + e.Text
}

// NoAudioReturnedError is returned when speech synthesis produced no audio
// chunks.
type NoAudioReturnedError struct {
	Text string
}

// Error implements the error interface.
func (e *NoAudioReturnedError) Error() string {
	if e.Text == "" {
		return "provider: model did not return audio"
	}
	return "provider: model did not return audio: " + e.Text
}

// VideoGenerationError is a failure reported by the video job itself.
type VideoGenerationError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *VideoGenerationError) Error() string {
	return fmt.Sprintf("provider: video generation failed: %s (code=%s)", e.Message, e.Code)
}

// AsProviderError extracts *ProviderError from an error.
//
// Example:
//
//	if e, ok := provider.AsProviderError(err); ok && e.IsRateLimit() {
//	    // back off
//	}
func AsProviderError(err error) (*ProviderError, bool) {
	var e *ProviderError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Kind returns a short stable name for the error's category, or "" for
// errors outside the provider taxonomy.
func Kind(err error) string {
	var (
		cfg   *ConfigurationError
		perr  *ProviderError
		img   *NoImageReturnedError
		vid   *NoVideoReturnedError
		audio *NoAudioReturnedError
		job   *VideoGenerationError
	)
	switch {
	case errors.As(err, &cfg):
		return "configuration"
	case errors.As(err, &perr):
		return "provider"
	case errors.As(err, &img):
		return "no_image_returned"
	case errors.As(err, &vid):
		return "no_video_returned"
	case errors.As(err, &audio):
		return "no_audio_returned"
	case errors.As(err, &job):
		return "video_generation"
	}
	return ""
}
