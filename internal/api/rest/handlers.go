package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/fortuna/cutman/internal/cache"
	"github.com/fortuna/cutman/internal/normalize"
	"github.com/fortuna/cutman/internal/scheduler"
	"github.com/fortuna/cutman/internal/store"
	"github.com/fortuna/cutman/internal/store/repository"
)

// Scheduler is the slice of the orchestrator the API needs.
type Scheduler interface {
	StartRun(replay bool) error
	LatestReport() *scheduler.Report
	GetStatus() map[string]interface{}
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db       *store.Database
	cache    *cache.RedisCache
	sched    Scheduler
	events   *repository.EventRepository
	fighters *repository.FighterRepository
	fights   *repository.FightRepository
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, redisCache *cache.RedisCache, sched Scheduler) *Handler {
	return &Handler{
		db:       db,
		cache:    redisCache,
		sched:    sched,
		events:   repository.NewEventRepository(db),
		fighters: repository.NewFighterRepository(db),
		fights:   repository.NewFightRepository(db),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if err := h.db.HealthCheck(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		if err := h.cache.HealthCheck(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, code, map[string]string{
		"status":  status,
		"service": "cutman",
		"version": "1.0.0",
	})
}

// GetLatestRun returns the most recent pipeline run report. The in-process
// report wins; the cached copy covers a fresh restart.
func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if report := h.sched.LatestReport(); report != nil {
		respondJSON(w, http.StatusOK, report)
		return
	}

	if h.cache != nil {
		data, err := h.cache.LatestRun(r.Context())
		if err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
			return
		}
		if !errors.Is(err, redis.Nil) {
			respondError(w, http.StatusInternalServerError, "Failed to load run report", err)
			return
		}
	}

	respondError(w, http.StatusNotFound, "No pipeline run recorded yet", nil)
}

// TriggerRun starts a pipeline run in the background. With ?from=latest the
// stored snapshots are replayed instead of scraping.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	replay := r.URL.Query().Get("from") == "latest"

	if err := h.sched.StartRun(replay); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			respondError(w, http.StatusConflict, "A pipeline run is already in progress", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to start run", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message": "Pipeline run started",
		"replay":  replay,
	})
}

// GetSchedulerStatus returns current scheduler status
func (h *Handler) GetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sched.GetStatus())
}

// GetUpcomingEvents returns upcoming fight cards
func (h *Handler) GetUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 20 // default
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	events, err := h.events.GetUpcoming(r.Context(), time.Now(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch upcoming events", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// GetEventFights returns the bouts on an event, optionally filtered by
// ?status= (comma-separated).
func (h *Handler) GetEventFights(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.Atoi(vars["eventID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid event ID", err)
		return
	}

	statuses := []string{store.FightUpcoming, store.FightLive, store.FightCompleted, store.FightCancelled}
	if filter := r.URL.Query().Get("status"); filter != "" {
		statuses = splitStatuses(filter)
	}

	pairings, err := h.fights.GetPairingsByEventAndStatus(r.Context(), eventID, statuses...)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch fights", err)
		return
	}

	type boutView struct {
		FightID  int    `json:"fight_id"`
		FighterA string `json:"fighter_a"`
		FighterB string `json:"fighter_b"`
		Status   string `json:"status"`
	}
	bouts := make([]boutView, 0, len(pairings))
	for _, p := range pairings {
		bouts = append(bouts, boutView{
			FightID:  p.FightID,
			FighterA: p.FighterA.Display(),
			FighterB: p.FighterB.Display(),
			Status:   p.Status,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id": eventID,
		"fights":   bouts,
		"count":    len(bouts),
	})
}

// SearchFighters looks up a fighter by name, matched on the canonical
// case- and accent-insensitive identity key.
func (h *Handler) SearchFighters(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("name")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "Missing name parameter", nil)
		return
	}

	name := normalize.Parse(raw)
	if name.IsZero() {
		respondError(w, http.StatusBadRequest, "Name normalized to nothing", nil)
		return
	}

	fighter, err := h.fighters.GetByName(r.Context(), name.First, name.Last)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Fighter not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to look up fighter", err)
		return
	}

	respondJSON(w, http.StatusOK, fighter)
}

func splitStatuses(filter string) []string {
	var statuses []string
	for _, s := range strings.Split(filter, ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
