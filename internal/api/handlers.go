package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trending/internal/ranking"
	"trending/models"
	"trending/pkg/logger"
)

const dayFormat = "2006-01-02"

type Handler struct {
	ranking *ranking.Service
	log     zerolog.Logger
}

func NewHandler(r *ranking.Service) *Handler {
	return &Handler{
		ranking: r,
		log:     logger.With("http_api"),
	}
}

// Trending handles GET /api/v1/posts/trending?limit=&within_hours=
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 10)
	withinHours := intQuery(r, "within_hours", 0)

	scores, err := h.ranking.TopN(r.Context(), limit, withinHours)
	if err != nil {
		h.log.Error().Err(err).Msg("trending query failed")
		writeError(w, http.StatusInternalServerError, "internal", "trending query failed")
		return
	}
	writeData(w, http.StatusOK, scores)
}

// ShopDaily handles GET /api/v1/shops/{shopID}/metrics/daily?day=YYYY-MM-DD
func (h *Handler) ShopDaily(w http.ResponseWriter, r *http.Request) {
	h.daily(w, r, models.TargetShop, chi.URLParam(r, "shopID"))
}

// VariantDaily handles GET /api/v1/variants/{variantID}/metrics/daily?day=YYYY-MM-DD
func (h *Handler) VariantDaily(w http.ResponseWriter, r *http.Request) {
	h.daily(w, r, models.TargetProduct, chi.URLParam(r, "variantID"))
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request, entityType models.TargetType, rawID string) {
	entityID, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid entity id")
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("day"); raw != "" {
		day, err = time.Parse(dayFormat, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "day must be YYYY-MM-DD")
			return
		}
	}

	metric, err := h.ranking.GetDailyMetric(r.Context(), entityType, entityID, day)
	if err != nil {
		if errors.Is(err, ranking.ErrUnsupportedEntity) {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		h.log.Error().Err(err).Msg("daily metric query failed")
		writeError(w, http.StatusInternalServerError, "internal", "daily metric query failed")
		return
	}
	writeData(w, http.StatusOK, metric)
}

// ShopSummary handles GET /api/v1/shops/{shopID}/metrics/summary?start=&end=
func (h *Handler) ShopSummary(w http.ResponseWriter, r *http.Request) {
	shopID, err := uuid.Parse(chi.URLParam(r, "shopID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid shop id")
		return
	}

	start, err := time.Parse(dayFormat, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dayFormat, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "bad_request", "end before start")
		return
	}

	summary, err := h.ranking.GetMetricsSummary(r.Context(), shopID, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("summary query failed")
		writeError(w, http.StatusInternalServerError, "internal", "summary query failed")
		return
	}
	writeData(w, http.StatusOK, summary)
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
