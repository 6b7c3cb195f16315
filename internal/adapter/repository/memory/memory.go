// Package memory provides the in-memory URL store. Records are kept in
// creation order next to a short code index, and every mutation is appended
// to an event log and announced to subscribers.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// Option configures a URLRepository.
type Option func(*URLRepository)

// WithClock overrides the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *URLRepository) {
		r.now = now
	}
}

type subscriber struct {
	id int
	fn func(entity.Event)
}

// URLRepository holds shortened URLs and the event log in memory.
type URLRepository struct {
	mu     sync.RWMutex
	urls   []*entity.URL
	byCode map[string]*entity.URL
	events []entity.Event

	subMu  sync.RWMutex
	subs   []subscriber
	nextID int

	now func() time.Time
}

// NewURLRepository creates an empty repository.
func NewURLRepository(opts ...Option) *URLRepository {
	r := &URLRepository{
		byCode: make(map[string]*entity.URL),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Save appends url unless its short code is taken. The check and the insert
// happen under one lock.
func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Save"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	if _, ok := r.byCode[url.ShortCode]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	stored := url.Clone()
	r.urls = append(r.urls, stored)
	r.byCode[stored.ShortCode] = stored
	ev := r.appendEventLocked(entity.EventURLShortened, "A new URL was shortened", map[string]any{
		"id":           stored.ID,
		"short_code":   stored.ShortCode,
		"original_url": stored.OriginalURL,
	})
	saved := stored.Clone()
	r.mu.Unlock()

	r.publish(ev)

	return saved, nil
}

// IncrementClicks adds one click to the URL with the given short code and
// records click as its newest click detail. A missing code leaves the store
// untouched apart from a CLICK_FAILED event.
func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string, click entity.Click) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.IncrementClicks"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	url, ok := r.byCode[shortCode]
	if !ok {
		ev := r.appendEventLocked(entity.EventClickFailed,
			fmt.Sprintf("Shortcode %s was not found", shortCode),
			map[string]any{"short_code": shortCode})
		r.mu.Unlock()

		r.publish(ev)
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	url.Clicks++
	url.ClickDetails = append(url.ClickDetails, click)
	ev := r.appendEventLocked(entity.EventURLClicked,
		fmt.Sprintf("Shortcode %s was clicked", shortCode),
		map[string]any{"short_code": shortCode, "clicks": url.Clicks})
	updated := url.Clone()
	r.mu.Unlock()

	r.publish(ev)

	return updated, nil
}

// RetrieveByShortCode returns a copy of the URL with the given short code.
func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveByShortCode"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.byCode[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return url.Clone(), nil
}

// Exists reports whether shortCode is taken.
func (r *URLRepository) Exists(shortCode string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byCode[shortCode]
	return ok
}

// List returns copies of all URLs in creation order.
func (r *URLRepository) List(ctx context.Context) ([]*entity.URL, error) {
	return r.Recent(ctx, 0)
}

// Recent returns copies of the last n URLs in creation order. A non-positive
// n returns all of them.
func (r *URLRepository) Recent(ctx context.Context, n int) ([]*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Recent"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.urls
	if n > 0 && n < len(src) {
		src = src[len(src)-n:]
	}

	urls := make([]*entity.URL, 0, len(src))
	for _, url := range src {
		urls = append(urls, url.Clone())
	}

	return urls, nil
}

// Count returns the number of stored URLs.
func (r *URLRepository) Count(ctx context.Context) (int, error) {
	const op = "adapter.repository.memory.URLRepository.Count"

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.urls), nil
}

// LogEvent appends an event that does not come from a store mutation.
func (r *URLRepository) LogEvent(ctx context.Context, typ entity.EventType, msg string, data map[string]any) error {
	const op = "adapter.repository.memory.URLRepository.LogEvent"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	ev := r.appendEventLocked(typ, msg, data)
	r.mu.Unlock()

	r.publish(ev)

	return nil
}

// Events returns a copy of the event log, oldest first.
func (r *URLRepository) Events(ctx context.Context) ([]entity.Event, error) {
	const op = "adapter.repository.memory.URLRepository.Events"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]entity.Event, len(r.events))
	copy(events, r.events)

	return events, nil
}

// Subscribe registers fn to be called after every appended event. Callbacks
// run outside the store lock, in the goroutine that caused the event.
func (r *URLRepository) Subscribe(fn func(entity.Event)) (unsubscribe func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscriber{id: id, fn: fn})

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()

		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

func (r *URLRepository) appendEventLocked(typ entity.EventType, msg string, data map[string]any) entity.Event {
	ev := entity.Event{
		Timestamp: r.now(),
		Type:      typ,
		Message:   msg,
		Data:      data,
	}
	r.events = append(r.events, ev)
	return ev
}

func (r *URLRepository) publish(ev entity.Event) {
	r.subMu.RLock()
	subs := make([]subscriber, len(r.subs))
	copy(subs, r.subs)
	r.subMu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
