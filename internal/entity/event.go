package entity

import "time"

// EventType names an entry of the event log.
type EventType string

const (
	EventURLShortened        EventType = "URL_SHORTENED"
	EventURLShortenedSuccess EventType = "URL_SHORTENED_SUCCESS"
	EventURLClicked          EventType = "URL_CLICKED"
	EventClickFailed         EventType = "CLICK_FAILED"
	EventRedirectSuccess     EventType = "REDIRECT_SUCCESS"
	EventRedirectFailed      EventType = "REDIRECT_FAILED"
)

// Event is one entry of the append-only event log.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Message   string
	Data      map[string]any
}
