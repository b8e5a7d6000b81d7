package control

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/errors"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/events"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/services"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/snapshot"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/supervision"
)

// Gateway is the HTTP control surface over a supervisor. All responses
// are JSON; service payloads reuse the snapshot wire forms so the API
// and the persisted state stay consistent.
type Gateway struct {
	supervisor *supervision.Supervisor
	store      *snapshot.FileStore
	logger     logging.Logger
}

// NewGateway creates the HTTP gateway. The snapshot store may be nil
// when persistence is disabled; the snapshot endpoints then return 404.
func NewGateway(supervisor *supervision.Supervisor, store *snapshot.FileStore, logger logging.Logger) *Gateway {
	return &Gateway{
		supervisor: supervisor,
		store:      store,
		logger:     logger,
	}
}

// Router builds the chi router for the gateway.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/services", g.listServices)
		r.Route("/services/{id}", func(r chi.Router) {
			r.Get("/", g.getService)
			r.Delete("/", g.deregisterService)
			r.Post("/start", g.startService)
			r.Post("/stop", g.stopService)
			r.Post("/restart", g.restartService)
			r.Get("/events", g.serviceEvents)
			r.Get("/health", g.serviceHealth)
		})
		r.Get("/events", g.allEvents)
		r.Get("/snapshot", g.exportSnapshot)
		r.Post("/snapshot", g.saveSnapshot)
	})

	return r
}

type serviceListResponse struct {
	Services []snapshot.ServiceState `json:"services"`
}

type eventView struct {
	ID        string            `json:"id"`
	ServiceID string            `json:"serviceId"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload,omitempty"`
}

type eventListResponse struct {
	Events []eventView `json:"events"`
}

type healthListResponse struct {
	Records []snapshot.HealthCheck `json:"records"`
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func (g *Gateway) listServices(w http.ResponseWriter, r *http.Request) {
	var descriptors []services.ServiceDescriptor

	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		filtered, err := g.supervisor.ListByStatus(services.ServiceStatus(statusParam))
		if err != nil {
			g.writeError(w, err)
			return
		}
		descriptors = filtered
	} else {
		descriptors = g.supervisor.List()
	}

	states := make([]snapshot.ServiceState, 0, len(descriptors))
	for _, descriptor := range descriptors {
		states = append(states, snapshot.FromDescriptor(descriptor))
	}
	g.writeJSON(w, http.StatusOK, serviceListResponse{Services: states})
}

func (g *Gateway) getService(w http.ResponseWriter, r *http.Request) {
	descriptor, err := g.supervisor.Get(chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, snapshot.FromDescriptor(descriptor))
}

func (g *Gateway) deregisterService(w http.ResponseWriter, r *http.Request) {
	if err := g.supervisor.Deregister(chi.URLParam(r, "id")); err != nil {
		g.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) startService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := g.supervisor.Start(r.Context(), id); err != nil {
		g.writeError(w, err)
		return
	}
	g.respondWithService(w, id)
}

func (g *Gateway) stopService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := g.supervisor.Stop(r.Context(), id); err != nil {
		g.writeError(w, err)
		return
	}
	g.respondWithService(w, id)
}

func (g *Gateway) restartService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := g.supervisor.Restart(r.Context(), id); err != nil {
		g.writeError(w, err)
		return
	}
	g.respondWithService(w, id)
}

func (g *Gateway) serviceEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := g.supervisor.Get(id); err != nil {
		g.writeError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, eventListResponse{
		Events: toEventViews(g.supervisor.Recorder().EventsFor(id)),
	})
}

func (g *Gateway) serviceHealth(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := g.supervisor.Get(id); err != nil {
		g.writeError(w, err)
		return
	}

	history := g.supervisor.Recorder().HealthHistory(id)
	records := make([]snapshot.HealthCheck, 0, len(history))
	for _, record := range history {
		records = append(records, snapshot.FromHealthRecord(record))
	}
	g.writeJSON(w, http.StatusOK, healthListResponse{Records: records})
}

func (g *Gateway) allEvents(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, eventListResponse{
		Events: toEventViews(g.supervisor.Recorder().Events()),
	})
}

func (g *Gateway) exportSnapshot(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, g.supervisor.ExportSnapshot())
}

// saveSnapshot persists the current state to the configured file.
func (g *Gateway) saveSnapshot(w http.ResponseWriter, r *http.Request) {
	if g.store == nil {
		g.writeError(w, errors.NewNotFoundError("snapshot persistence is not configured", nil))
		return
	}

	doc := g.supervisor.ExportSnapshot()
	if err := g.store.Save(doc); err != nil {
		g.writeError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, map[string]string{"path": g.store.Path()})
}

func (g *Gateway) respondWithService(w http.ResponseWriter, id string) {
	descriptor, err := g.supervisor.Get(id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.writeJSON(w, http.StatusOK, snapshot.FromDescriptor(descriptor))
}

func toEventViews(lifecycle []events.LifecycleEvent) []eventView {
	views := make([]eventView, 0, len(lifecycle))
	for _, event := range lifecycle {
		views = append(views, eventView{
			ID:        event.ID,
			ServiceID: event.ServiceID,
			Type:      string(event.Type),
			Timestamp: event.Timestamp,
			Payload:   event.Payload,
		})
	}
	return views
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps domain error types onto HTTP status codes.
func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errType := ""

	if domainErr, ok := errors.AsDomainError(err); ok {
		errType = string(domainErr.Type)
		switch {
		case errors.IsNotFoundError(err):
			status = http.StatusNotFound
		case errors.IsValidationError(err):
			status = http.StatusBadRequest
		case errors.IsInvalidStateError(err), errors.IsCyclicDependencyError(err), errors.IsDependencyFailedError(err):
			status = http.StatusConflict
		case errors.IsTimeoutError(err):
			status = http.StatusGatewayTimeout
		}
	}

	if status >= http.StatusInternalServerError {
		g.logger.Errorf("Request failed: %v", err)
	}
	g.writeJSON(w, status, errorResponse{Error: err.Error(), Type: errType})
}
