package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLockHeld          = errors.New("lock already held")
	ErrVenueUnavailable  = errors.New("venue unavailable")
	ErrMalformedQuote    = errors.New("malformed quote")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrNoAdaptersEnabled = errors.New("no venue adapters enabled")
)

// VenueFailureReason classifies why a venue produced no quotes.
type VenueFailureReason string

const (
	ReasonTimeout      VenueFailureReason = "timeout"
	ReasonAuth         VenueFailureReason = "auth"
	ReasonRateLimited  VenueFailureReason = "rate_limited"
	ReasonProxyBlocked VenueFailureReason = "proxy_blocked"
	ReasonTransport    VenueFailureReason = "transport"
	ReasonBadResponse  VenueFailureReason = "bad_response"
	ReasonPanic        VenueFailureReason = "panic"
)

// VenueError reports a whole-venue fetch failure. It matches
// ErrVenueUnavailable under errors.Is.
type VenueError struct {
	Venue  string
	Reason VenueFailureReason
	Err    error
}

func (e *VenueError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("venue %s unavailable: %s", e.Venue, e.Reason)
	}
	return fmt.Sprintf("venue %s unavailable: %s: %v", e.Venue, e.Reason, e.Err)
}

func (e *VenueError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrVenueUnavailable}
	}
	return []error{ErrVenueUnavailable, e.Err}
}

// NewVenueError builds a VenueError.
func NewVenueError(venue string, reason VenueFailureReason, err error) *VenueError {
	return &VenueError{Venue: venue, Reason: reason, Err: err}
}

// MalformedQuoteError describes a quote rejected before aggregation.
type MalformedQuoteError struct {
	Venue     string
	RawSymbol string
	Reason    string
}

func (e *MalformedQuoteError) Error() string {
	return fmt.Sprintf("malformed quote %s/%q: %s", e.Venue, e.RawSymbol, e.Reason)
}

func (e *MalformedQuoteError) Unwrap() error { return ErrMalformedQuote }
