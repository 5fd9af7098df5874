package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/api/middleware"
)

// HealthPath is served without authentication.
const HealthPath = "/health"

// Router holds the handlers mounted by NewRouter.
type Router struct {
	Sync     *SyncHandler
	Jobs     *JobsHandler
	Balances *BalancesHandler
}

// NewRouter mounts the API routes on a new mux.
func NewRouter(rt Router) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			rt.Sync.EnqueueSync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			rt.Jobs.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		rt.Jobs.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/api/balances", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			rt.Balances.ListBalances(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}
