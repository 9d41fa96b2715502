package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/storage/memory"
)

func healthyChecker(name string) Checker {
	return NewSimpleChecker(name, func() error { return nil })
}

func failingChecker(name, message string) Checker {
	return NewSimpleChecker(name, func() error { return errors.New(message) })
}

func decodeHealthResponse(t *testing.T, handler *Handler) (int, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var response Response
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	return w.Code, response
}

func TestHandler_AllComponentsHealthy(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("postgres", healthyChecker("postgres"))
	handler.RegisterChecker("outbox", healthyChecker("outbox"))

	code, response := decodeHealthResponse(t, handler)

	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if response.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", response.Status)
	}
	if response.Version != "v1.2.3" {
		t.Fatalf("unexpected version: %s", response.Version)
	}
	if len(response.Checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(response.Checks))
	}
	if _, ok := response.Checks["postgres"]; !ok {
		t.Fatal("postgres check is missing from response")
	}
}

func TestHandler_FailingComponentMakesUnhealthy(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("postgres", failingChecker("postgres", "connection refused"))
	handler.RegisterChecker("outbox", healthyChecker("outbox"))

	code, response := decodeHealthResponse(t, handler)

	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", code)
	}
	if response.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", response.Status)
	}
	if response.Checks["postgres"].Message != "connection refused" {
		t.Fatalf("unexpected check message: %s", response.Checks["postgres"].Message)
	}
}

func TestHandler_DegradedComponentKeeps200(t *testing.T) {
	repo := memory.NewOutboxRepository()
	if _, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     "order.placed",
		Payload:       []byte(`{}`),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-2",
		EventType:     "order.placed",
		Payload:       []byte(`{}`),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("outbox", NewOutboxBacklogChecker(repo, 1))

	code, response := decodeHealthResponse(t, handler)

	// Деградация доставки событий не делает сервис недоступным.
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if response.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", response.Status)
	}
}

func TestLivenessHandler_AlwaysOK(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	cases := []struct {
		name     string
		checker  Checker
		wantCode int
		wantBody string
	}{
		{
			name:     "ready when components are healthy",
			checker:  healthyChecker("postgres"),
			wantCode: http.StatusOK,
			wantBody: "ready",
		},
		{
			name:     "not ready when a component fails",
			checker:  failingChecker("postgres", "connection refused"),
			wantCode: http.StatusServiceUnavailable,
			wantBody: "not ready",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler("v1.2.3")
			handler.RegisterChecker("postgres", tc.checker)

			w := httptest.NewRecorder()
			handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, w.Code)
			}
			if w.Body.String() != tc.wantBody {
				t.Fatalf("expected body %q, got %q", tc.wantBody, w.Body.String())
			}
		})
	}
}

func TestOutboxBacklogChecker(t *testing.T) {
	repo := memory.NewOutboxRepository()
	checker := NewOutboxBacklogChecker(repo, 1)

	check := checker.Check()
	if check.Status != StatusHealthy {
		t.Fatalf("expected healthy on empty backlog, got %s", check.Status)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.Enqueue(domain.OutboxMessage{
			AggregateType: "order",
			AggregateID:   "order-1",
			EventType:     "order.placed",
			Payload:       []byte(`{}`),
		}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	check = checker.Check()
	if check.Status != StatusDegraded {
		t.Fatalf("expected degraded on large backlog, got %s", check.Status)
	}
	if check.Message == "" {
		t.Fatal("expected message with pending count")
	}
}
