package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/changsongyang/markerd/internal/markerservice"
	"github.com/changsongyang/markerd/internal/testutil"
)

// testEnv sets up a store, SQLite index, service, and router for testing.
// authToken="" means disabled mode; a non-empty token means token mode.
func testEnv(t *testing.T, authToken string) (*markerservice.Service, http.Handler) {
	t.Helper()
	svc := testutil.TestService(t)
	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

func publishSet(t *testing.T, router http.Handler, name, basePath string, markers ...MarkerPayload) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(PublishSetRequest{Name: name, BasePath: basePath, Markers: markers})
	req := httptest.NewRequest(http.MethodPost, "/markers/sets", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorMarker(path, message string) MarkerPayload {
	return MarkerPayload{Type: 0, Path: path, Line: 3, Column: 5, Message: message, ShowErrorList: true}
}

func warningMarker(path, message string) MarkerPayload {
	return MarkerPayload{Type: 1, Path: path, Line: 7, Column: 1, Message: message}
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPublishAndState(t *testing.T) {
	_, router := testEnv(t, "")

	w := publishSet(t, router, "Lint", "~/p/", errorMarker("~/p/a.c", "bad token"))
	if w.Code != http.StatusCreated {
		t.Fatalf("publish status = %d, body = %s", w.Code, w.Body.String())
	}
	var view SetView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if view.Name != "Lint" {
		t.Errorf("name = %q", view.Name)
	}
	if view.BasePath == nil || *view.BasePath != "~/p/" {
		t.Errorf("base_path = %v, want ~/p/", view.BasePath)
	}
	if len(view.Markers) != 1 || view.Markers[0].Path != "~/p/a.c" {
		t.Errorf("markers = %+v", view.Markers)
	}

	w = get(t, router, "/markers/state")
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d", w.Code)
	}
	var state StateView
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if len(state.Names) != 1 || state.Names[0] != "Lint" {
		t.Errorf("names = %v", state.Names)
	}
	if state.Markers == nil || state.Markers.Name != "Lint" {
		t.Errorf("active markers = %+v", state.Markers)
	}
}

func TestPublishMissingName(t *testing.T) {
	_, router := testEnv(t, "")

	w := publishSet(t, router, "", "", errorMarker("~/a.c", "x"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("publish without name = %d, want 400", w.Code)
	}
}

func TestPublishInvalidMarker(t *testing.T) {
	_, router := testEnv(t, "")

	w := publishSet(t, router, "Lint", "", MarkerPayload{Line: 3, Column: 1, Message: "no path"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("publish bad marker = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "path") {
		t.Errorf("error body = %s, want path mentioned", w.Body.String())
	}
}

func TestPublishInvalidJSON(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/markers/sets", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("truncated body = %d, want 400", w.Code)
	}
}

func TestTabClosed(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "Lint", "", errorMarker("~/a.c", "x"))

	req := httptest.NewRequest(http.MethodPost, "/markers/tab-closed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("tab-closed = %d, want 204", w.Code)
	}

	w = get(t, router, "/markers/state")
	if got := strings.TrimSpace(w.Body.String()); got != `{"names":null,"markers":null}` {
		t.Errorf("empty state = %s", got)
	}
}

func TestSetActive(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "A", "", errorMarker("~/a.c", "a"))
	publishSet(t, router, "B", "", errorMarker("~/b.c", "b"))

	body, _ := json.Marshal(SetActiveRequest{Name: "A"})
	req := httptest.NewRequest(http.MethodPut, "/markers/active", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("set active = %d, body = %s", w.Code, w.Body.String())
	}

	w = get(t, router, "/markers/state")
	var state StateView
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if state.Markers == nil || state.Markers.Name != "A" {
		t.Errorf("active = %+v, want A", state.Markers)
	}
}

func TestSetActive_UnknownNameTolerated(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "B", "", errorMarker("~/b.c", "b"))

	// Stale names from the client are a no-op, not an error.
	body, _ := json.Marshal(SetActiveRequest{Name: "ghost"})
	req := httptest.NewRequest(http.MethodPut, "/markers/active", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("unknown name = %d, want 204", w.Code)
	}

	w = get(t, router, "/markers/state")
	var state StateView
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if state.Markers == nil || state.Markers.Name != "B" {
		t.Errorf("selection changed: %+v", state.Markers)
	}
}

func TestSetActive_MissingName(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPut, "/markers/active", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name = %d, want 400", w.Code)
	}
}

func TestClearActiveFallsBack(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "A", "", errorMarker("~/a.c", "a"))
	publishSet(t, router, "B", "", errorMarker("~/b.c", "b"))
	publishSet(t, router, "C", "", errorMarker("~/c.c", "c"))

	req := httptest.NewRequest(http.MethodDelete, "/markers/active", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear active = %d", w.Code)
	}

	w = get(t, router, "/markers/sets")
	var list SetListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Names) != 2 || list.Names[0] != "A" || list.Names[1] != "B" {
		t.Errorf("names = %v, want [A B]", list.Names)
	}
	if list.Active != "B" {
		t.Errorf("active = %q, want fallback to B", list.Active)
	}
}

func TestListSets_Empty(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/markers/sets")
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	// Empty listing keeps names as [] rather than null.
	if !strings.Contains(w.Body.String(), `"names":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestGetSet(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "Lint", "~/p/", errorMarker("~/p/a.c", "x"))

	w := get(t, router, "/markers/sets/Lint")
	if w.Code != http.StatusOK {
		t.Fatalf("get set = %d", w.Code)
	}
	var view SetView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if view.Name != "Lint" || len(view.Markers) != 1 {
		t.Errorf("view = %+v", view)
	}
}

func TestGetSet_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/markers/sets/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing set = %d, want 404", w.Code)
	}
}

func TestGetSet_EncodedName(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "R CMD check", "", errorMarker("~/r/a.R", "x"))

	w := get(t, router, "/markers/sets/R%20CMD%20check")
	if w.Code != http.StatusOK {
		t.Fatalf("encoded name = %d, body = %s", w.Code, w.Body.String())
	}
	var view SetView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if view.Name != "R CMD check" {
		t.Errorf("name = %q", view.Name)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "Lint", "", errorMarker("~/a.c", "uniquetoken here"))

	w := get(t, router, "/markers/search?q=uniquetoken")
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("search results = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].SetName != "Lint" {
		t.Errorf("hit = %+v", resp.Results[0])
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/markers/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestErrorListEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "Build", "",
		errorMarker("~/a.c", "boom"),
		warningMarker("~/a.c", "meh"))

	w := get(t, router, "/markers/errors")
	if w.Code != http.StatusOK {
		t.Fatalf("errors = %d", w.Code)
	}
	var resp ErrorListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Markers) != 1 || resp.Markers[0].Message != "boom" {
		t.Errorf("error list = %+v", resp.Markers)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	publishSet(t, router, "Lint", "",
		errorMarker("~/a.c", "boom"),
		warningMarker("~/a.c", "meh"))

	w := get(t, router, "/markers/summary?set=Lint")
	if w.Code != http.StatusOK {
		t.Fatalf("summary = %d", w.Code)
	}
	var resp SummaryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Totals.Errors != 1 || resp.Totals.Warnings != 1 {
		t.Errorf("totals = %+v", resp.Totals)
	}

	// Without ?set the whole session is counted.
	w = get(t, router, "/markers/summary")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Totals.Errors != 1 {
		t.Errorf("session totals = %+v", resp.Totals)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	body, _ := json.Marshal(PublishSetRequest{Name: "Lint", Markers: []MarkerPayload{errorMarker("~/a.c", "x")}})
	req := httptest.NewRequest(http.MethodPost, "/markers/sets", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed publish = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := get(t, router, "/markers/sets")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/markers/sets", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(t, router, "/markers/sets")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// testEnvWithSSE creates a router with a dummy SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc := testutil.TestService(t)

	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, authEnabled, token, sseHandler)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	// The stub blocks until context done, so cancel after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
