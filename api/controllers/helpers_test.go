package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/foodyzone-backend/api/middleware"
	"github.com/angelmondragon/foodyzone-backend/internal/catalog"
	"github.com/angelmondragon/foodyzone-backend/internal/kvstore"
	"github.com/angelmondragon/foodyzone-backend/internal/orders"
	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	"github.com/angelmondragon/foodyzone-backend/internal/sessions"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/types"
)

type testEnv struct {
	catalog  catalog.Service
	registry *orders.Registry
	manager  *sessions.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logg := logger.Nop()
	menu, err := catalog.NewService(catalog.DefaultMenu(), promos.Default())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	reg, err := orders.NewRegistry(orders.NewMemoryRepository(), logg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	mgr, err := sessions.NewManager(sessions.Deps{
		Catalog:  menu,
		Promos:   promos.Default(),
		KV:       kvstore.NewMemory(),
		Registry: reg,
		Sink:     orders.NewLogSink(logg),
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(mgr.Close)
	return &testEnv{catalog: menu, registry: reg, manager: mgr}
}

// newRequest builds a request carrying a session id and optional chi URL
// params given as key, value pairs.
func newRequest(t *testing.T, method, target, session string, body any, params ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := req.Context()
	if session != "" {
		ctx = middleware.WithSessionID(ctx, session)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return envelope.Error
}
