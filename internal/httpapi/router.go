package httpapi

import (
	"net/http"
	"strings"

	"lsp-conflicts/internal/domain"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux; no third-party router
// is needed for this route surface.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoute exposes the liveness probe.
func (r *Router) RegisterHealthRoute(h *HealthHandler) {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Health(w, req)
	})
}

// RegisterContractRoutes registers the lender-facing contract API behind
// API-key auth.
func (r *Router) RegisterContractRoutes(c *ContractHandler, auth *Auth) {
	r.Handle("/lsp/api/v1/contracts", auth.RequireLender(func(w http.ResponseWriter, req *http.Request, lender *domain.Lender) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		c.Submit(w, req, lender)
	}))

	// /lsp/api/v1/contracts/{id} and /lsp/api/v1/contracts/{id}/conflicts
	r.Handle("/lsp/api/v1/contracts/", auth.RequireLender(func(w http.ResponseWriter, req *http.Request, lender *domain.Lender) {
		rest := strings.TrimPrefix(req.URL.Path, "/lsp/api/v1/contracts/")
		switch {
		case rest == "":
			w.WriteHeader(http.StatusNotFound)
		case !strings.Contains(rest, "/"):
			if req.Method != http.MethodPut {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			c.Update(w, req, lender, rest)
		case strings.HasSuffix(rest, "/conflicts"):
			id := strings.TrimSuffix(rest, "/conflicts")
			if id == "" || strings.Contains(id, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			c.ListConflicts(w, req, lender, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// RegisterAdminRoutes registers lender management and the webhook audit
// trail.
func (r *Router) RegisterAdminRoutes(a *AdminHandler) {
	r.Handle("/admin/api/v1/lenders", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			a.CreateLender(w, req)
		case http.MethodGet:
			a.ListLenders(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// /admin/api/v1/lenders/{id}[/deactivate|/webhook-logs]
	r.Handle("/admin/api/v1/lenders/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/admin/api/v1/lenders/")
		switch {
		case rest == "":
			w.WriteHeader(http.StatusNotFound)
		case !strings.Contains(rest, "/"):
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			a.GetLender(w, req, rest)
		case strings.HasSuffix(rest, "/deactivate"):
			id := strings.TrimSuffix(rest, "/deactivate")
			if id == "" || strings.Contains(id, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if req.Method != http.MethodPatch {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			a.DeactivateLender(w, req, id)
		case strings.HasSuffix(rest, "/webhook-logs"):
			id := strings.TrimSuffix(rest, "/webhook-logs")
			if id == "" || strings.Contains(id, "/") {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			a.ListWebhookLogs(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}
