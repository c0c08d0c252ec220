// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pawhaven/pawcore/internal/correlation"
	"github.com/pawhaven/pawcore/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *txn.Coordinator, *correlation.Store) {
	t.Helper()
	coordinator := txn.NewCoordinator(txn.Options{})
	t.Cleanup(coordinator.Close)
	contexts := correlation.NewStore()
	return NewServer(Config{
		Coordinator:    coordinator,
		Contexts:       contexts,
		MetricsEnabled: true,
	}), coordinator, contexts
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestCompletedTransactionsEndpoint(t *testing.T) {
	s, coordinator, _ := newTestServer(t)

	_, err := coordinator.Execute(context.Background(), txn.TypeFavorite, func(context.Context) (any, error) {
		return "ok", nil
	}, nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/transactions/completed", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "completed", list[0]["status"])
	assert.Equal(t, "favorite", list[0]["type"])
}

func TestIdempotencyStatsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/idempotency/stats", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var stats map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Contains(t, stats, "totalRecords")
}

func TestCorrelationMiddlewareMintsContext(t *testing.T) {
	s, _, contexts := newTestServer(t)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	cid := rr.Header().Get(correlation.HeaderCorrelationID)
	require.NotEmpty(t, cid, "response must carry a correlation id")
	assert.NotEmpty(t, rr.Header().Get(correlation.HeaderSessionID))

	_, ok := contexts.Get(cid)
	assert.True(t, ok, "minted context should be stored")
}

func TestCorrelationMiddlewareAdoptsKnownID(t *testing.T) {
	s, _, contexts := newTestServer(t)
	existing := contexts.NewContext("user-1", "")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(correlation.HeaderCorrelationID, existing.CorrelationID)

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, existing.CorrelationID, rr.Header().Get(correlation.HeaderCorrelationID))
	assert.Equal(t, existing.SessionID, rr.Header().Get(correlation.HeaderSessionID))
}

func TestCorrelationMiddlewareRecordsUnknownParent(t *testing.T) {
	s, _, contexts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(correlation.HeaderCorrelationID, "corr-unknown-upstream")

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	cid := rr.Header().Get(correlation.HeaderCorrelationID)
	require.NotEmpty(t, cid)
	assert.NotEqual(t, "corr-unknown-upstream", cid, "unknown inbound id must not be adopted")

	cc, ok := contexts.Get(cid)
	require.True(t, ok)
	assert.Equal(t, "corr-unknown-upstream", cc.ParentCorrelationID,
		"unknown inbound id is recorded verbatim as parent")
}
