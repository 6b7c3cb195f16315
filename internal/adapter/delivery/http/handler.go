package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, in usecase.ShortenInput) (*entity.URL, error)
	Resolve(ctx context.Context, path string, meta usecase.ClickMeta) usecase.Resolution
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error)
	ListURLs(ctx context.Context) ([]*entity.URL, error)
	RecentURLs(ctx context.Context) ([]*entity.URL, error)
	CountURLs(ctx context.Context) (int, error)
	Events(ctx context.Context) ([]entity.Event, error)
	Now() time.Time
}

type urlHandler struct {
	useCase urlUseCase
	baseURL string
}

func newURLHandler(useCase urlUseCase, baseURL string) *urlHandler {
	return &urlHandler{
		useCase: useCase,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// shortURL returns the public short link for shortCode. Without a configured
// base URL the request's own scheme and host are used.
func (h *urlHandler) shortURL(r *http.Request, shortCode string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + usecase.ShortLinkPrefix + shortCode
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), usecase.ShortenInput{
		OriginalURL:     req.OriginalURL,
		ValidityMinutes: req.ValidityMinutes,
		CustomShortCode: req.CustomShortCode,
	})
	if err != nil {
		var vErr *usecase.ValidationError
		if errors.As(err, &vErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, validationErrorResponse(vErr.Fields))
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toURLResponse(url, h.shortURL(r, url.ShortCode), h.useCase.Now()))
}

// redirect resolves a short link and answers with 302 Found, either to the
// original URL or, for unknown codes, to the home route.
func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	res := h.useCase.Resolve(r.Context(), usecase.ShortLinkPrefix+shortCode, usecase.ClickMeta{
		Referer: r.Referer(),
	})

	httplog.LogEntrySetField(r.Context(), "resolve_state", slog.StringValue(res.State.String()))

	http.Redirect(w, r, res.Target, http.StatusFound)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	url, err := h.useCase.GetURLStats(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, urlNotFoundResponse)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toURLStatsResponse(url, h.shortURL(r, url.ShortCode), h.useCase.Now()))
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.useCase.ListURLs(r.Context())
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	now := h.useCase.Now()
	resp := make([]urlResponse, 0, len(urls))
	for _, url := range urls {
		resp = append(resp, toURLResponse(url, h.shortURL(r, url.ShortCode), now))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *urlHandler) home(w http.ResponseWriter, r *http.Request) {
	urls, err := h.useCase.RecentURLs(r.Context())
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	total, err := h.useCase.CountURLs(r.Context())
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	now := h.useCase.Now()
	resp := homeResponse{
		Total:  total,
		Recent: make([]urlResponse, 0, len(urls)),
	}
	for _, url := range urls {
		resp.Recent = append(resp.Recent, toURLResponse(url, h.shortURL(r, url.ShortCode), now))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *urlHandler) statistics(w http.ResponseWriter, r *http.Request) {
	urls, err := h.useCase.ListURLs(r.Context())
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	now := h.useCase.Now()
	resp := statisticsResponse{
		Total: len(urls),
		URLs:  make([]urlResponse, 0, len(urls)),
	}
	for _, url := range urls {
		resp.TotalClicks += url.Clicks
		resp.URLs = append(resp.URLs, toURLStatsResponse(url, h.shortURL(r, url.ShortCode), now))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

func (h *urlHandler) events(w http.ResponseWriter, r *http.Request) {
	events, err := h.useCase.Events(r.Context())
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toEventResponses(events))
}
