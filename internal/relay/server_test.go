package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rafael/tender-picker/internal/selection"
)

func TestServerRelayReturnsProtocolFailureAsJSON(t *testing.T) {
	// No scanner registered: the HTTP layer must answer 200 with a
	// well-formed failure envelope, not a transport error.
	srv := NewServer(NewCoordinator(), NewSubmitter("http://127.0.0.1:0", selection.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(`{"action":"detect"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success {
		t.Error("expected failure envelope")
	}
	if !strings.Contains(resp.Error, "reopen the page") {
		t.Errorf("expected actionable relay error, got %q", resp.Error)
	}
}

func TestServerRelayRoundTrip(t *testing.T) {
	coord := NewCoordinator()
	ok := OK()
	ok.SelectedIDs = []string{"100"}
	coord.Register("tab-1", &stubScanner{response: ok})

	srv := NewServer(coord, NewSubmitter("http://127.0.0.1:0", selection.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(`{"action":"getSelection"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.SelectedIDs) != 1 {
		t.Errorf("unexpected relay response: %+v", resp)
	}
}

func TestServerSubmitEmptySelectionIsBadRequest(t *testing.T) {
	srv := NewServer(NewCoordinator(), NewSubmitter("http://127.0.0.1:0", selection.NewMemoryStore()))

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(`{"ids":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty selection, got %d", rec.Code)
	}
}
