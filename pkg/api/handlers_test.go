package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eappere/roledir/pkg/directory"
	"github.com/eappere/roledir/pkg/observability"
	"github.com/eappere/roledir/pkg/store"
)

func newTestRouter(t *testing.T) (*mux.Router, *directory.Service, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	svc := directory.NewService(st, "", logger, nil)

	coord := directory.NewCoordinator(svc)
	require.NoError(t, coord.Run(context.Background()))

	router := mux.NewRouter()
	NewHandlers(svc, coord).RegisterRoutes(router)
	return router, svc, st
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestExistsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, "GET", "/v1/roles/ghost/exists", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["exists"])
}

func TestFlagEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, "GET", "/v1/roles/cassandra/superuser", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["superuser"])

	rec = doRequest(t, router, "GET", "/v1/roles/ghost/can-login", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["can_login"])
}

func TestQueryAllEndpoint(t *testing.T) {
	router, svc, _ := newTestRouter(t)

	require.NoError(t, svc.CreateOrReplace(context.Background(), "alice", directory.RoleConfig{CanLogin: true}))

	rec := doRequest(t, router, "GET", "/v1/roles", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []interface{}{"alice", "cassandra"}, decodeBody(t, rec)["roles"])
}

func TestQueryGrantedEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, "GET", "/v1/roles/cassandra/granted", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"cassandra"}, decodeBody(t, rec)["roles"])

	// Recursive mode is accepted without changing the result.
	rec = doRequest(t, router, "GET", "/v1/roles/cassandra/granted?mode=recursive", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "GET", "/v1/roles/ghost/granted", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndAlterEndpoints(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	ctx := context.Background()

	rec := doRequest(t, router, "PUT", "/v1/roles/alice", `{"is_superuser": false, "can_login": true}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	canLogin, err := svc.CanLogin(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, canLogin)

	// Alter succeeds without applying anything.
	rec = doRequest(t, router, "PATCH", "/v1/roles/alice", `{"can_login": false}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	canLogin, err = svc.CanLogin(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, canLogin)
}

func TestCreateEndpointRejectsBadBody(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, "PUT", "/v1/roles/alice", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefusedEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{"DELETE", "/v1/roles/alice"},
		{"PUT", "/v1/roles/alice/grants/ops"},
		{"DELETE", "/v1/roles/alice/grants/ops"},
	} {
		rec := doRequest(t, router, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotImplemented, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAttributeEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, "GET", "/v1/roles/alice/attributes/quota", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, "PUT", "/v1/roles/alice/attributes/quota", `{"value": "10"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, "GET", "/v1/roles/alice/attributes/quota", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10", decodeBody(t, rec)["value"])

	rec = doRequest(t, router, "DELETE", "/v1/roles/alice/attributes/quota", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, "GET", "/v1/roles/alice/attributes/quota", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryAttributeForAllEndpoint(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateOrReplace(ctx, "a", directory.RoleConfig{}))
	require.NoError(t, svc.CreateOrReplace(ctx, "b", directory.RoleConfig{}))
	require.NoError(t, svc.SetAttribute(ctx, "a", "quota", "1"))

	rec := doRequest(t, router, "GET", "/v1/attributes/quota", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"a": "1"}, decodeBody(t, rec)["values"])
}

func TestUnavailableMapsTo503(t *testing.T) {
	router, _, st := newTestRouter(t)

	st.SetFault(func(string) error { return store.ErrUnavailable })

	rec := doRequest(t, router, "GET", "/v1/roles/cassandra/superuser", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	svc := directory.NewService(st, "", logger, nil)
	coord := directory.NewCoordinator(svc)

	router := mux.NewRouter()
	NewHandlers(svc, coord).RegisterRoutes(router)

	rec := doRequest(t, router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_started", decodeBody(t, rec)["bootstrap_state"])

	require.NoError(t, coord.Run(context.Background()))

	rec = doRequest(t, router, "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", decodeBody(t, rec)["bootstrap_state"])
}
