package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rafael/tender-picker/internal/selection"
)

func backendReturning(t *testing.T, status int, processed, failed int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		if status >= 200 && status < 300 {
			json.NewEncoder(w).Encode(map[string]any{
				"status":  "ok",
				"message": "processed",
				"data":    map[string]int{"processed": processed, "failed": failed},
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSubmitClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		processed int
		failed    int
		want      SubmissionOutcome
	}{
		{"all processed is success", http.StatusOK, 3, 0, OutcomeSuccess},
		{"some failed is partial", http.StatusOK, 2, 1, OutcomePartialSuccess},
		{"server error is failure", http.StatusInternalServerError, 0, 0, OutcomeFailure},
		{"unauthorized is failure", http.StatusUnauthorized, 0, 0, OutcomeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := backendReturning(t, tt.status, tt.processed, tt.failed)
			sub := NewSubmitter(srv.URL, selection.NewMemoryStore())

			result, err := sub.Submit(context.Background(), []string{"1", "2", "3"}, "https://tracked.example")
			if err != nil {
				t.Fatalf("submit returned unexpected error: %v", err)
			}
			if result.Outcome != tt.want {
				t.Errorf("expected outcome %s, got %s (%+v)", tt.want, result.Outcome, result)
			}
			if tt.want == OutcomePartialSuccess && (result.Processed != tt.processed || result.Failed != tt.failed) {
				t.Errorf("partial result must report counts, got %+v", result)
			}
		})
	}
}

func TestSubmitNetworkErrorIsFailure(t *testing.T) {
	srv, _ := backendReturning(t, http.StatusOK, 1, 0)
	srv.Close() // connection refused from here on

	sub := NewSubmitter(srv.URL, selection.NewMemoryStore())
	result, err := sub.Submit(context.Background(), []string{"1"}, "")
	if err != nil {
		t.Fatalf("transport errors classify, they don't propagate: %v", err)
	}
	if result.Outcome != OutcomeFailure {
		t.Errorf("expected failure, got %s", result.Outcome)
	}
}

func TestSubmitEmptySelectionMakesNoCall(t *testing.T) {
	srv, calls := backendReturning(t, http.StatusOK, 0, 0)
	sub := NewSubmitter(srv.URL, selection.NewMemoryStore())

	_, err := sub.Submit(context.Background(), nil, "")
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("empty selection must not reach the backend, saw %d calls", n)
	}
}

func TestSubmitBusyRejectsConcurrentCall(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "data": map[string]int{"processed": 2, "failed": 0}})
	}))
	defer srv.Close()

	sub := NewSubmitter(srv.URL, selection.NewMemoryStore())

	var wg sync.WaitGroup
	wg.Add(1)
	firstDone := make(chan SubmissionResult, 1)
	go func() {
		defer wg.Done()
		result, err := sub.Submit(context.Background(), []string{"200", "400"}, "")
		if err != nil {
			t.Errorf("first submit failed: %v", err)
			return
		}
		firstDone <- result
	}()

	// Wait until the first call is actually in flight.
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first submission never reached the backend")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := sub.Submit(context.Background(), []string{"200", "400"}, "")
	if !errors.Is(err, ErrSubmissionBusy) {
		t.Fatalf("expected ErrSubmissionBusy, got %v", err)
	}

	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("exactly one network call expected, saw %d", n)
	}
	select {
	case result := <-firstDone:
		if result.Outcome != OutcomeSuccess {
			t.Errorf("first submission should have succeeded, got %s", result.Outcome)
		}
	default:
		t.Error("first submission result missing")
	}
}

func TestSubmitIdleAgainAfterCompletion(t *testing.T) {
	srv, calls := backendReturning(t, http.StatusOK, 1, 0)
	sub := NewSubmitter(srv.URL, selection.NewMemoryStore())

	for i := 0; i < 2; i++ {
		if _, err := sub.Submit(context.Background(), []string{"1"}, ""); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Errorf("sequential submissions are allowed, saw %d calls", n)
	}
}

func TestSubmitExpiredTokenShortCircuits(t *testing.T) {
	srv, calls := backendReturning(t, http.StatusOK, 1, 0)

	tokens := selection.NewMemoryStore()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tokens.SaveToken(context.Background(), signed); err != nil {
		t.Fatal(err)
	}

	sub := NewSubmitter(srv.URL, tokens)
	result, err := sub.Submit(context.Background(), []string{"1"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeFailure {
		t.Errorf("expected failure for expired token, got %s", result.Outcome)
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("expired token must not reach the backend, saw %d calls", n)
	}
}

func TestSubmitOpaqueTokenPassesThrough(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "data": map[string]int{"processed": 1}})
	}))
	defer srv.Close()

	tokens := selection.NewMemoryStore()
	if err := tokens.SaveToken(context.Background(), "not-a-jwt"); err != nil {
		t.Fatal(err)
	}

	sub := NewSubmitter(srv.URL, tokens)
	if _, err := sub.Submit(context.Background(), []string{"1"}, ""); err != nil {
		t.Fatal(err)
	}
	if want := "Bearer not-a-jwt"; gotAuth != want {
		t.Errorf("expected %q, got %q", want, gotAuth)
	}
}

func TestSubmitTimeoutIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	sub := NewSubmitter(srv.URL, selection.NewMemoryStore())
	sub.client.Timeout = 20 * time.Millisecond

	result, err := sub.Submit(context.Background(), []string{"1"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomeFailure {
		t.Errorf("timeout must classify as failure, got %s", result.Outcome)
	}
}
