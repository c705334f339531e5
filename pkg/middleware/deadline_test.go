package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDeadline_SetsRequestDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := Deadline(5*time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	if !ok {
		t.Fatal("expected request context to carry a deadline")
	}
	if remaining := time.Until(deadline); remaining > 5*time.Second {
		t.Fatalf("deadline too far out: %v", remaining)
	}
}

func TestDeadline_CancelsExpiredRequests(t *testing.T) {
	done := make(chan error, 1)
	handler := Deadline(10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			done <- r.Context().Err()
		case <-time.After(time.Second):
			done <- nil
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	if err := <-done; err == nil {
		t.Fatal("expected context cancellation before handler completed")
	}
}
