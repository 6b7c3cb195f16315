// Package usecase implements URL shortening, click resolution and the
// statistics read side on top of a URL repository.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

const (
	defaultRecentLimit         = 5
	defaultMaxCustomCodeLength = 32
	defaultClickSource         = "Client-side navigation"
	defaultClickLocation       = "Hyderabad, India"
)

type urlRepository interface {
	Save(ctx context.Context, url *entity.URL) (*entity.URL, error)
	IncrementClicks(ctx context.Context, shortCode string, click entity.Click) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	Exists(shortCode string) bool
	List(ctx context.Context) ([]*entity.URL, error)
	Recent(ctx context.Context, n int) ([]*entity.URL, error)
	Count(ctx context.Context) (int, error)
	Events(ctx context.Context) ([]entity.Event, error)
	LogEvent(ctx context.Context, typ entity.EventType, msg string, data map[string]any) error
}

// Option configures a URLUseCase.
type Option func(*URLUseCase)

// WithShortCodeLength sets the length of generated short codes.
func WithShortCodeLength(n int) Option {
	return func(uc *URLUseCase) {
		uc.gen = shortcode.New(n)
	}
}

// WithDefaultValidity sets the validity applied when none is requested.
func WithDefaultValidity(d time.Duration) Option {
	return func(uc *URLUseCase) {
		if d > 0 {
			uc.defaultValidity = d
		}
	}
}

// WithMaxCustomCodeLength caps custom short codes. Zero disables the cap.
func WithMaxCustomCodeLength(n int) Option {
	return func(uc *URLUseCase) {
		uc.maxCustomCodeLength = n
	}
}

// WithRecentLimit sets how many URLs RecentURLs returns.
func WithRecentLimit(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.recentLimit = n
		}
	}
}

// WithExpiryEnforcement makes expired short codes resolve as not found.
func WithExpiryEnforcement(enforce bool) Option {
	return func(uc *URLUseCase) {
		uc.enforceExpiry = enforce
	}
}

// WithClickDefaults sets the simulated source and location of recorded clicks.
// Empty values keep the current defaults.
func WithClickDefaults(source, location string) Option {
	return func(uc *URLUseCase) {
		if source != "" {
			uc.clickSource = source
		}
		if location != "" {
			uc.clickLocation = location
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

// WithLogger sets the logger used for resolver transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		uc.logger = logger
	}
}

type URLUseCase struct {
	urlRepo  urlRepository
	gen      *shortcode.Generator
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time

	defaultValidity     time.Duration
	maxCustomCodeLength int
	recentLimit         int
	enforceExpiry       bool
	clickSource         string
	clickLocation       string
}

func New(urlRepo urlRepository, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:             urlRepo,
		gen:                 shortcode.New(shortcode.DefaultLength),
		validate:            newValidate(),
		logger:              slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:                 time.Now,
		defaultValidity:     entity.DefaultValidity,
		maxCustomCodeLength: defaultMaxCustomCodeLength,
		recentLimit:         defaultRecentLimit,
		clickSource:         defaultClickSource,
		clickLocation:       defaultClickLocation,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ShortenURL validates in and stores a new URL under the custom short code,
// or under a freshly generated one when none was given.
func (uc *URLUseCase) ShortenURL(ctx context.Context, in ShortenInput) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	if err := uc.Validate(in); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	validity := uc.defaultValidity
	if in.ValidityMinutes != nil {
		validity = time.Duration(*in.ValidityMinutes) * time.Minute
	}

	for {
		code := in.CustomShortCode
		if code == "" {
			var err error
			code, err = uc.gen.Generate(ctx, uc.urlRepo.Exists)
			if err != nil {
				return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
			}
		}

		now := uc.now()
		url, err := uc.urlRepo.Save(ctx, &entity.URL{
			ID:          uuid.NewString(),
			ShortCode:   code,
			OriginalURL: in.OriginalURL,
			CreatedAt:   now,
			Expiry:      entity.ExpiryFrom(now, validity),
		})
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				if in.CustomShortCode != "" {
					return nil, fmt.Errorf("%s: %w", op, &ValidationError{
						Fields: map[string]string{FieldCustomShortCode: MsgShortCodeTaken},
					})
				}
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		uc.logEvent(ctx, entity.EventURLShortenedSuccess, "Successfully shortened URL", map[string]any{
			"id":         url.ID,
			"short_code": url.ShortCode,
		})

		return url, nil
	}
}

// GetURLStats returns the URL with the given short code without recording a click.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// ListURLs returns every URL in creation order.
func (uc *URLUseCase) ListURLs(ctx context.Context) ([]*entity.URL, error) {
	const op = "usecase.URLUseCase.ListURLs"

	urls, err := uc.urlRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, nil
}

// RecentURLs returns the most recently shortened URLs, oldest first.
func (uc *URLUseCase) RecentURLs(ctx context.Context) ([]*entity.URL, error) {
	const op = "usecase.URLUseCase.RecentURLs"

	urls, err := uc.urlRepo.Recent(ctx, uc.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list recent urls: %w", op, err)
	}

	return urls, nil
}

// CountURLs returns the number of shortened URLs.
func (uc *URLUseCase) CountURLs(ctx context.Context) (int, error) {
	const op = "usecase.URLUseCase.CountURLs"

	count, err := uc.urlRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to count urls: %w", op, err)
	}

	return count, nil
}

// Events returns the event log.
func (uc *URLUseCase) Events(ctx context.Context) ([]entity.Event, error) {
	const op = "usecase.URLUseCase.Events"

	events, err := uc.urlRepo.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get events: %w", op, err)
	}

	return events, nil
}

// logEvent appends to the event log. The log is informational, so a failure
// is reported to the logger and not to the caller.
func (uc *URLUseCase) logEvent(ctx context.Context, typ entity.EventType, msg string, data map[string]any) {
	if err := uc.urlRepo.LogEvent(ctx, typ, msg, data); err != nil {
		uc.logger.WarnContext(ctx, "failed to log event",
			slog.String("type", string(typ)), slog.Any("err", err))
	}
}

// Now returns the use case's current time.
func (uc *URLUseCase) Now() time.Time {
	return uc.now()
}
