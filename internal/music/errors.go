package music

import (
	"errors"
	"fmt"
	"time"
)

// Kind represents the category of a playback error
type Kind string

const (
	// KindIndexOutOfRange is returned for queue operations on invalid positions
	KindIndexOutOfRange Kind = "index_out_of_range"
	// KindQueueEmpty is returned when advancing/playing with nothing queued
	KindQueueEmpty Kind = "queue_empty"
	// KindUnsupportedSource is returned when the extractor cannot serve the source
	// (age-restricted, copyright-blocked, private, region-locked, removed)
	KindUnsupportedSource Kind = "unsupported_source"
	// KindNetworkFailure is returned for network problems during extraction
	KindNetworkFailure Kind = "network_failure"
	// KindRateLimited is returned when the source platform blocks or throttles us
	KindRateLimited Kind = "rate_limited"
	// KindMalformedOutput is returned when the extractor emits unparseable output
	KindMalformedOutput Kind = "malformed_output"
	// KindExtractionFailed is the catch-all for extractor failures
	KindExtractionFailed Kind = "extraction_failed"
	// KindFetchTimeout is returned when waiting for a cached source times out
	KindFetchTimeout Kind = "fetch_timeout"
	// KindTransportDisconnected is returned when the voice transport drops
	KindTransportDisconnected Kind = "transport_disconnected"
	// KindReconnectExhausted is returned after all reconnection attempts fail
	KindReconnectExhausted Kind = "reconnect_exhausted"
	// KindNotConnected is returned when playback is requested without a voice connection
	KindNotConnected Kind = "not_connected"
)

// Error is a structured playback failure carrying a technical message for
// diagnostics and a separate human-readable message for the end user.
type Error struct {
	Kind        Kind
	Message     string
	UserMessage string
	Timestamp   time.Time
	Err         error // wrapped cause
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured error
func NewError(kind Kind, message, userMessage string, err error) *Error {
	return &Error{
		Kind:        kind,
		Message:     message,
		UserMessage: userMessage,
		Timestamp:   time.Now(),
		Err:         err,
	}
}

// KindOf extracts the error kind, or "" for non-domain errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessageOf extracts the user-facing message, falling back to a generic one
func UserMessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.UserMessage != "" {
		return e.UserMessage
	}
	return "Something went wrong, please try again later"
}

// ErrIndexOutOfRange reports a queue operation on an invalid position
func ErrIndexOutOfRange(index, size int) *Error {
	return NewError(
		KindIndexOutOfRange,
		fmt.Sprintf("index %d out of range [0, %d)", index, size),
		fmt.Sprintf("There is no track at position %d", index+1),
		nil,
	)
}

// ErrQueueEmpty reports playback requested with nothing queued
func ErrQueueEmpty() *Error {
	return NewError(KindQueueEmpty, "queue is empty", "The queue is empty", nil)
}

// ErrFetchTimeout reports that a source did not become ready in time
func ErrFetchTimeout(trackID string, timeout time.Duration) *Error {
	return NewError(
		KindFetchTimeout,
		fmt.Sprintf("fetch for track %s timed out after %s", trackID, timeout),
		"The track took too long to load",
		nil,
	)
}

// ErrTransportDisconnected reports a dropped voice connection
func ErrTransportDisconnected(err error) *Error {
	return NewError(
		KindTransportDisconnected,
		"voice transport disconnected",
		"Lost the voice connection, trying to reconnect...",
		err,
	)
}

// ErrReconnectExhausted reports that all reconnection attempts failed
func ErrReconnectExhausted(attempts int) *Error {
	return NewError(
		KindReconnectExhausted,
		fmt.Sprintf("gave up reconnecting after %d attempts", attempts),
		"Could not reconnect to the voice channel, please restart the player",
		nil,
	)
}

// ErrNotConnected reports playback without a voice connection
func ErrNotConnected() *Error {
	return NewError(KindNotConnected, "not connected to a voice channel", "I am not in a voice channel", nil)
}
