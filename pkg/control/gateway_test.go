package control

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/events"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/services"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/snapshot"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/supervision"
)

func testLogger() logging.Logger {
	return logging.NewLogger("", logging.LogFuncs{})
}

func testDescriptor(id string, deps ...string) services.ServiceDescriptor {
	return services.ServiceDescriptor{
		ID:           id,
		Name:         id,
		Type:         "test",
		Dependencies: deps,
		Settings: services.ServiceSettings{
			Enabled:     true,
			MaxRestarts: 3,
		},
	}
}

func newTestGateway(t *testing.T) (*supervision.Supervisor, http.Handler) {
	t.Helper()

	recorder := events.NewRecorder(0, testLogger())
	supervisor := supervision.NewSupervisor(supervision.Options{}, recorder, testLogger())

	store := snapshot.NewFileStore(filepath.Join(t.TempDir(), "state.json"), testLogger())
	gateway := NewGateway(supervisor, store, testLogger())
	return supervisor, gateway.Router()
}

func doRequest(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), target))
}

func TestGatewayListServices(t *testing.T) {
	supervisor, handler := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, supervisor.Register(ctx, testDescriptor("db"), &services.FuncUnit{}))
	require.NoError(t, supervisor.Register(ctx, testDescriptor("api", "db"), &services.FuncUnit{}))
	require.NoError(t, supervisor.Start(ctx, "db"))

	t.Run("all", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

		var body struct {
			Services []snapshot.ServiceState `json:"services"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Services, 2)
		assert.Equal(t, "api", body.Services[0].ID)
		assert.Equal(t, "db", body.Services[1].ID)
	})

	t.Run("filter_by_status", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services?status=running")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Services []snapshot.ServiceState `json:"services"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Services, 1)
		assert.Equal(t, "db", body.Services[0].ID)
	})

	t.Run("invalid_status_filter", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services?status=limbo")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestGatewayGetService(t *testing.T) {
	supervisor, handler := newTestGateway(t)
	require.NoError(t, supervisor.Register(context.Background(), testDescriptor("db"), &services.FuncUnit{}))

	t.Run("found", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services/db")
		require.Equal(t, http.StatusOK, resp.Code)

		var state snapshot.ServiceState
		decodeBody(t, resp, &state)
		assert.Equal(t, "db", state.ID)
		assert.Equal(t, string(services.ServiceStatusStopped), state.Runtime.Status)
	})

	t.Run("not_found", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services/ghost")
		assert.Equal(t, http.StatusNotFound, resp.Code)

		var body struct {
			Error string `json:"error"`
			Type  string `json:"type"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "not_found", body.Type)
		assert.NotEmpty(t, body.Error)
	})
}

func TestGatewayLifecycleActions(t *testing.T) {
	supervisor, handler := newTestGateway(t)
	require.NoError(t, supervisor.Register(context.Background(), testDescriptor("db"), &services.FuncUnit{}))

	t.Run("start", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodPost, "/v1/services/db/start")
		require.Equal(t, http.StatusOK, resp.Code)

		var state snapshot.ServiceState
		decodeBody(t, resp, &state)
		assert.Equal(t, string(services.ServiceStatusRunning), state.Runtime.Status)
	})

	t.Run("restart", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodPost, "/v1/services/db/restart")
		require.Equal(t, http.StatusOK, resp.Code)

		var state snapshot.ServiceState
		decodeBody(t, resp, &state)
		assert.Equal(t, string(services.ServiceStatusRunning), state.Runtime.Status)
		assert.Equal(t, 1, state.Runtime.RestartCount)
	})

	t.Run("stop", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodPost, "/v1/services/db/stop")
		require.Equal(t, http.StatusOK, resp.Code)

		var state snapshot.ServiceState
		decodeBody(t, resp, &state)
		assert.Equal(t, string(services.ServiceStatusStopped), state.Runtime.Status)
	})

	t.Run("start_unknown", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodPost, "/v1/services/ghost/start")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestGatewayDeregister(t *testing.T) {
	supervisor, handler := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, supervisor.Register(ctx, testDescriptor("db"), &services.FuncUnit{}))
	require.NoError(t, supervisor.Start(ctx, "db"))

	t.Run("running_conflicts", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodDelete, "/v1/services/db")
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("stopped_removed", func(t *testing.T) {
		require.NoError(t, supervisor.Stop(ctx, "db"))

		resp := doRequest(t, handler, http.MethodDelete, "/v1/services/db")
		assert.Equal(t, http.StatusNoContent, resp.Code)

		resp = doRequest(t, handler, http.MethodGet, "/v1/services/db")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestGatewayEvents(t *testing.T) {
	supervisor, handler := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, supervisor.Register(ctx, testDescriptor("db"), &services.FuncUnit{}))
	require.NoError(t, supervisor.Start(ctx, "db"))

	t.Run("per_service", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services/db/events")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Events []struct {
				ServiceID string `json:"serviceId"`
				Type      string `json:"type"`
			} `json:"events"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Events, 3)
		assert.Equal(t, "registered", body.Events[0].Type)
		assert.Equal(t, "starting", body.Events[1].Type)
		assert.Equal(t, "started", body.Events[2].Type)
	})

	t.Run("unknown_service", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services/ghost/events")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("all_events", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/events")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Events []struct {
				ID string `json:"id"`
			} `json:"events"`
		}
		decodeBody(t, resp, &body)
		assert.Len(t, body.Events, 3)
	})
}

func TestGatewayHealth(t *testing.T) {
	supervisor, handler := newTestGateway(t)
	require.NoError(t, supervisor.Register(context.Background(), testDescriptor("db"), &services.FuncUnit{}))

	t.Run("empty_history", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services/db/health")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Records []snapshot.HealthCheck `json:"records"`
		}
		decodeBody(t, resp, &body)
		assert.Empty(t, body.Records)
	})

	t.Run("unknown_service", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/services/ghost/health")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestGatewaySnapshot(t *testing.T) {
	supervisor, handler := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, supervisor.Register(ctx, testDescriptor("db"), &services.FuncUnit{}))
	require.NoError(t, supervisor.Start(ctx, "db"))

	t.Run("export", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodGet, "/v1/snapshot")
		require.Equal(t, http.StatusOK, resp.Code)

		var doc snapshot.Document
		decodeBody(t, resp, &doc)
		require.Len(t, doc.Services, 1)
		assert.Equal(t, string(services.ServiceStatusRunning), doc.Services[0].Runtime.Status)
		assert.False(t, doc.LastUpdate.IsZero())
	})

	t.Run("save", func(t *testing.T) {
		resp := doRequest(t, handler, http.MethodPost, "/v1/snapshot")
		require.Equal(t, http.StatusOK, resp.Code)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.NotEmpty(t, body["path"])
	})

	t.Run("save_without_store", func(t *testing.T) {
		bare := NewGateway(supervisor, nil, testLogger())
		resp := doRequest(t, bare.Router(), http.MethodPost, "/v1/snapshot")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
