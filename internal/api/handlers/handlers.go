package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/api/middleware"
	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/jobs"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
	"github.com/rs/zerolog"
)

// SyncHandler enqueues portal syncs.
type SyncHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(publisher jobs.Publisher, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		publisher: publisher,
		log:       log,
	}
}

// EnqueueSync handles POST /api/sync
func (h *SyncHandler) EnqueueSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	job := &jobs.SyncJob{Trigger: jobs.TriggerAPI}
	if err := h.publisher.PublishSync(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue sync job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue sync job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Sync job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// BalanceLister reads stored balance histories.
type BalanceLister interface {
	// ListBalanceHistories lists an account's histories; a zero year
	// matches every year.
	ListBalanceHistories(ctx context.Context, accountID string, year int) ([]*domain.BalanceHistory, error)
}

// BalanceHistoryResponse is the JSON form of a balance history.
// Balances are decimal strings keyed by ISO date.
type BalanceHistoryResponse struct {
	ID        string            `json:"id"`
	Year      int               `json:"year"`
	AccountID string            `json:"account_id"`
	Balances  map[string]string `json:"balances"`
	Version   int               `json:"version"`
}

// BalancesHandler serves balance histories.
type BalancesHandler struct {
	repo BalanceLister
	log  zerolog.Logger
	now  func() time.Time
}

// NewBalancesHandler creates a new balances handler.
func NewBalancesHandler(repo BalanceLister, log zerolog.Logger) *BalancesHandler {
	return &BalancesHandler{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// ListBalances handles GET /api/balances?account_id=&year=
// year defaults to the current year; "all" lists every year.
func (h *BalancesHandler) ListBalances(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	accountID := query.Get("account_id")
	if accountID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	year := h.now().In(normalize.Location).Year()
	switch yearStr := query.Get("year"); yearStr {
	case "":
	case "all":
		year = 0
	default:
		y, err := strconv.Atoi(yearStr)
		if err != nil || y < 1900 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = y
	}

	histories, err := h.repo.ListBalanceHistories(ctx, accountID, year)
	if err != nil {
		h.log.Error().Err(err).Str("account_id", accountID).Int("year", year).Msg("Failed to list balances")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list balances")
		return
	}

	resp := make([]BalanceHistoryResponse, 0, len(histories))
	for _, hist := range histories {
		resp = append(resp, toBalanceHistoryResponse(hist))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"balances": resp,
		"count":    len(resp),
	})
}

func toBalanceHistoryResponse(h *domain.BalanceHistory) BalanceHistoryResponse {
	balances := make(map[string]string, len(h.Balances))
	for date, amount := range h.Balances {
		balances[date] = amount.StringFixed(2)
	}
	return BalanceHistoryResponse{
		ID:        h.ID,
		Year:      h.Year,
		AccountID: h.AccountID,
		Balances:  balances,
		Version:   h.Version,
	}
}
