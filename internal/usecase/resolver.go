package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// ShortLinkPrefix is the path prefix of short links.
const ShortLinkPrefix = "/short/"

// HomePath is where unresolvable short links are sent.
const HomePath = "/"

// ResolveState is a state of the redirect resolver.
type ResolveState int

const (
	StateIdle ResolveState = iota
	StateResolving
	StateRedirected
	StateNotFound
)

func (s ResolveState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateRedirected:
		return "redirected"
	case StateNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("ResolveState(%d)", int(s))
	}
}

// Resolution is the outcome of resolving a path. Target is where the client
// should navigate next; URL is set only when State is StateRedirected.
type Resolution struct {
	State     ResolveState
	ShortCode string
	Target    string
	URL       *entity.URL
}

// ClickMeta carries request details recorded with a click.
type ClickMeta struct {
	Referer string
}

// ParseShortLink extracts the short code from a path of the form
// /short/<code>. A leading "#" is tolerated.
func ParseShortLink(path string) (string, bool) {
	path = strings.TrimPrefix(path, "#")
	if !strings.HasPrefix(path, ShortLinkPrefix) {
		return "", false
	}

	code := strings.TrimPrefix(path, ShortLinkPrefix)
	if code == "" || strings.Contains(code, "/") {
		return "", false
	}

	return code, true
}

// Resolve runs the redirect state machine for path. Paths that are not
// short links leave the resolver idle. A known code records one click and
// redirects to the original URL; an unknown code is logged and routed home.
func (uc *URLUseCase) Resolve(ctx context.Context, path string, meta ClickMeta) Resolution {
	code, ok := ParseShortLink(path)
	if !ok {
		return Resolution{State: StateIdle, Target: HomePath}
	}

	res := Resolution{State: StateResolving, ShortCode: code}
	uc.logger.DebugContext(ctx, "resolving short link", slog.String("short_code", code))

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, code)
	if err == nil && uc.enforceExpiry && url.IsExpired(uc.now()) {
		err = fmt.Errorf("short code %s expired: %w", code, entity.ErrURLNotFound)
	}
	if err == nil {
		url, err = uc.urlRepo.IncrementClicks(ctx, code, uc.newClick(meta))
	}
	if err != nil {
		return uc.notFound(ctx, res, err)
	}

	uc.logEvent(ctx, entity.EventRedirectSuccess,
		fmt.Sprintf("Redirecting from shortcode %s to %s", code, url.OriginalURL),
		map[string]any{"short_code": code, "original_url": url.OriginalURL})

	res.State = StateRedirected
	res.Target = url.OriginalURL
	res.URL = url

	return res
}

func (uc *URLUseCase) notFound(ctx context.Context, res Resolution, err error) Resolution {
	if !errors.Is(err, entity.ErrURLNotFound) {
		uc.logger.ErrorContext(ctx, "failed to resolve short link",
			slog.String("short_code", res.ShortCode), slog.Any("err", err))
	}

	uc.logEvent(ctx, entity.EventRedirectFailed,
		fmt.Sprintf("Shortcode %s not found for redirection", res.ShortCode),
		map[string]any{"short_code": res.ShortCode})

	res.State = StateNotFound
	res.Target = HomePath

	return res
}

func (uc *URLUseCase) newClick(meta ClickMeta) entity.Click {
	source := meta.Referer
	if source == "" {
		source = uc.clickSource
	}

	return entity.Click{
		Timestamp: uc.now(),
		Source:    source,
		Location:  uc.clickLocation,
	}
}
