// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL with its click
// history, and the Event struct recorded in the store's event log.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
)

// DefaultValidity is applied when a URL is shortened without a validity period.
const DefaultValidity = 30 * time.Minute

// URL represents a shortened URL.
type URL struct {
	ID           string     // ID is the opaque unique identifier of the record.
	ShortCode    string     // ShortCode is the code the original URL is reachable under.
	OriginalURL  string     // OriginalURL is the full URL that the short code resolves to.
	CreatedAt    time.Time  // CreatedAt is the timestamp when the URL was created.
	Expiry       *time.Time // Expiry is nil when the URL never expires.
	Clicks       int64      // Clicks is the number of times the short code has been resolved.
	ClickDetails []Click    // ClickDetails holds one entry per resolution, oldest first.
}

// Click is a single simulated resolution of a short code.
type Click struct {
	Timestamp time.Time
	Source    string
	Location  string
}

// ExpiryFrom returns the expiry for a URL created at createdAt and valid for d.
// A non-positive d falls back to DefaultValidity.
func ExpiryFrom(createdAt time.Time, d time.Duration) *time.Time {
	if d <= 0 {
		d = DefaultValidity
	}
	t := createdAt.Add(d)
	return &t
}

// IsExpired reports whether the URL's expiry lies at or before now.
func (u *URL) IsExpired(now time.Time) bool {
	if u.Expiry == nil {
		return false
	}
	return !now.Before(*u.Expiry)
}

// Clone returns a deep copy of u.
func (u *URL) Clone() *URL {
	c := *u
	if u.Expiry != nil {
		t := *u.Expiry
		c.Expiry = &t
	}
	if u.ClickDetails != nil {
		c.ClickDetails = make([]Click, len(u.ClickDetails))
		copy(c.ClickDetails, u.ClickDetails)
	}
	return &c
}
