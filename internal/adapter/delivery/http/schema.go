package http

import (
	"sort"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const statusError = "error"

// shortenRequest represents the structure for a request to shorten a URL.
type shortenRequest struct {
	OriginalURL     string `json:"original_url"`
	ValidityMinutes *int   `json:"validity_minutes,omitempty"`
	CustomShortCode string `json:"custom_short_code,omitempty"`
}

// urlResponse represents a shortened URL. Stats is only set by the
// statistics endpoints.
type urlResponse struct {
	ID          string     `json:"id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	CreatedAt   time.Time  `json:"created_at"`
	Expiry      *time.Time `json:"expiry"`
	Expired     bool       `json:"expired"`
	Stats       *urlStats  `json:"stats,omitempty"`
}

// urlStats represents the click statistics for a URL.
type urlStats struct {
	Clicks       int64           `json:"clicks"`
	ClickDetails []clickResponse `json:"click_details"`
}

type clickResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Location  string    `json:"location"`
}

// toURLResponse converts an entity.URL to a urlResponse.
func toURLResponse(url *entity.URL, shortURL string, now time.Time) urlResponse {
	return urlResponse{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		ShortURL:    shortURL,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
		Expiry:      url.Expiry,
		Expired:     url.IsExpired(now),
	}
}

// toURLStatsResponse converts an entity.URL to a urlResponse carrying stats.
func toURLStatsResponse(url *entity.URL, shortURL string, now time.Time) urlResponse {
	resp := toURLResponse(url, shortURL, now)

	details := make([]clickResponse, 0, len(url.ClickDetails))
	for _, c := range url.ClickDetails {
		details = append(details, clickResponse{
			Timestamp: c.Timestamp,
			Source:    c.Source,
			Location:  c.Location,
		})
	}

	resp.Stats = &urlStats{
		Clicks:       url.Clicks,
		ClickDetails: details,
	}

	return resp
}

// homeResponse is the shortener view: the most recent URLs and the number
// of URLs shortened so far.
type homeResponse struct {
	Total  int           `json:"total"`
	Recent []urlResponse `json:"recent"`
}

// statisticsResponse is the statistics view over every URL.
type statisticsResponse struct {
	Total       int           `json:"total"`
	TotalClicks int64         `json:"total_clicks"`
	URLs        []urlResponse `json:"urls"`
}

type eventResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

func toEventResponses(events []entity.Event) []eventResponse {
	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse{
			Timestamp: e.Timestamp,
			Type:      string(e.Type),
			Message:   e.Message,
			Data:      e.Data,
		})
	}
	return resp
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	rateLimitedResponse = errorResponse{
		Status:  statusError,
		Message: "rate limit exceeded, please try again later",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

// validationErrorResponse constructs an errorResponse from field messages,
// ordered by field name.
func validationErrorResponse(fields map[string]string) errorResponse {
	errs := make([]validationError, 0, len(fields))
	for field, msg := range fields {
		errs = append(errs, validationError{Field: field, Message: msg})
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  errs,
	}
}

func badRequestResponse(msg string) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: msg,
	}
}
