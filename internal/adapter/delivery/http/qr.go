package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/skip2/go-qrcode"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

var qrLevels = map[string]qrcode.RecoveryLevel{
	"low":     qrcode.Low,
	"medium":  qrcode.Medium,
	"high":    qrcode.High,
	"highest": qrcode.Highest,
}

// qrCode renders the short link of a known short code as a PNG QR code.
// Query parameters: size (128..1024, default 256) and level
// (low, medium, high, highest; default medium).
func (h *urlHandler) qrCode(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")
	query := r.URL.Query()

	size := defaultQRSize
	if s := query.Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < minQRSize || n > maxQRSize {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, badRequestResponse("size must be a number between 128 and 1024"))
			return
		}
		size = n
	}

	level := qrcode.Medium
	if l := query.Get("level"); l != "" {
		lvl, ok := qrLevels[l]
		if !ok {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, badRequestResponse("level must be one of low, medium, high, highest"))
			return
		}
		level = lvl
	}

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

	png, err := qrcode.Encode(h.shortURL(r, url.ShortCode), level, size)
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
