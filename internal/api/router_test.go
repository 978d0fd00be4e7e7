package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/models"
	"github.com/athebyme/gomarket-platform/harvester/internal/security"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
)

type fakeRuns struct {
	mu      sync.Mutex
	reports map[string]*models.RunReport
	busy    bool
}

func (f *fakeRuns) Start() (*models.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return nil, fmt.Errorf("%w: active", utils.ErrRunInProgress)
	}
	f.busy = true
	rep := models.NewRunReport(fmt.Sprintf("run-%d", len(f.reports)+1), time.Now())
	f.reports[rep.RunID] = rep
	return rep, nil
}

func (f *fakeRuns) Get(id string) (*models.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rep, ok := f.reports[id]
	if !ok {
		return nil, utils.ErrRunNotFound
	}
	return rep, nil
}

type pingFunc func(ctx context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func newTestServer(t *testing.T, ready map[string]Pinger) (*httptest.Server, *security.JWTManager) {
	t.Helper()
	jwt, err := security.NewJWTManager("test-secret", time.Minute, "harvester")
	require.NoError(t, err)

	runs := &fakeRuns{reports: make(map[string]*models.RunReport)}
	router := SetupRouter(runs, logger.NewNopLogger(), RouterOptions{Auth: jwt, Ready: ready})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, jwt
}

func do(t *testing.T, method, url, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(""))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestRouter_Health(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Ready(t *testing.T) {
	srv, _ := newTestServer(t, map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return errors.New("down") }),
	})

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRouter_RunsRequireAuth(t *testing.T) {
	srv, jwt := newTestServer(t, nil)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/runs", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "unauthorized", body["error"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/runs", "garbage")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	viewer, err := jwt.Generate("viewer", security.RoleViewer)
	require.NoError(t, err)
	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/runs", viewer)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_StartAndGetRun(t *testing.T) {
	srv, jwt := newTestServer(t, nil)

	operator, err := jwt.Generate("ops", security.RoleOperator)
	require.NoError(t, err)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/runs", operator)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	require.Equal(t, "running", data["status"])
	runID := data["run_id"].(string)
	require.Equal(t, "/api/v1/runs/"+runID, resp.Header.Get("Location"))

	resp, body = do(t, http.MethodPost, srv.URL+"/api/v1/runs", operator)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "conflict", body["error"])

	viewer, err := jwt.Generate("viewer", security.RoleViewer)
	require.NoError(t, err)
	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/runs/"+runID, viewer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, runID, body["data"].(map[string]any)["run_id"])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/runs/unknown", viewer)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", body["error"])
}
