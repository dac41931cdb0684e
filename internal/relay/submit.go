package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rafael/tender-picker/internal/journal"
	"github.com/rafael/tender-picker/internal/selection"
)

// SubmissionOutcome classifies a backend submission.
type SubmissionOutcome string

const (
	OutcomeSuccess        SubmissionOutcome = "success"
	OutcomePartialSuccess SubmissionOutcome = "partialSuccess"
	OutcomeFailure        SubmissionOutcome = "failure"
)

// SubmissionResult is what the trigger UI displays.
type SubmissionResult struct {
	Outcome   SubmissionOutcome `json:"outcome"`
	Processed int               `json:"processed"`
	Failed    int               `json:"failed"`
	Message   string            `json:"message,omitempty"`
}

// submitState tracks the per-submission state machine:
// Idle -> Submitting -> terminal -> Idle.
type submitState int

const (
	stateIdle submitState = iota
	stateSubmitting
)

type scrapeProjectRequest struct {
	ProjectIDs []string `json:"project_ids"`
	URL        string   `json:"url"`
}

type scrapeProjectResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Processed int `json:"processed"`
		Failed    int `json:"failed"`
	} `json:"data"`
}

// Submitter owns the backend call. One submission at a time: a second
// Submit while one is in flight is rejected with ErrSubmissionBusy so the
// same id set is never sent twice. It never retries on its own.
type Submitter struct {
	backendURL string
	client     *http.Client
	tokens     selection.TokenStore
	recorder   *journal.Recorder
	sessionID  func(ctx context.Context) string

	mu    sync.Mutex
	state submitState
}

func NewSubmitter(backendURL string, tokens selection.TokenStore) *Submitter {
	return &Submitter{
		backendURL: backendURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
	}
}

// WithJournal enables best-effort audit recording.
func (s *Submitter) WithJournal(rec *journal.Recorder, sessionID func(ctx context.Context) string) *Submitter {
	s.recorder = rec
	s.sessionID = sessionID
	return s
}

// Submit sends the id set to the backend and classifies the outcome.
// Timeouts and transport errors classify as failure; the caller decides
// whether to re-trigger.
func (s *Submitter) Submit(ctx context.Context, ids []string, originURL string) (SubmissionResult, error) {
	if len(ids) == 0 {
		return SubmissionResult{}, ErrEmptySelection
	}

	s.mu.Lock()
	if s.state == stateSubmitting {
		s.mu.Unlock()
		return SubmissionResult{}, ErrSubmissionBusy
	}
	s.state = stateSubmitting
	s.mu.Unlock()

	startedAt := time.Now()
	result := s.doSubmit(ctx, ids, originURL)

	s.mu.Lock()
	s.state = stateIdle
	s.mu.Unlock()

	s.record(ctx, ids, result, startedAt)
	return result, nil
}

func (s *Submitter) doSubmit(ctx context.Context, ids []string, originURL string) SubmissionResult {
	token, err := s.tokens.LoadToken(ctx)
	if err != nil {
		log.Printf("[submit] token load failed: %v", err)
	}
	if reason, expired := tokenExpired(token); expired {
		return SubmissionResult{Outcome: OutcomeFailure, Message: reason}
	}

	body, err := json.Marshal(scrapeProjectRequest{ProjectIDs: ids, URL: originURL})
	if err != nil {
		return SubmissionResult{Outcome: OutcomeFailure, Message: fmt.Sprintf("failed to encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.backendURL+"/scrape-project", bytes.NewReader(body))
	if err != nil {
		return SubmissionResult{Outcome: OutcomeFailure, Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return SubmissionResult{Outcome: OutcomeFailure, Message: fmt.Sprintf("backend unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SubmissionResult{Outcome: OutcomeFailure, Message: fmt.Sprintf("backend returned status %d", resp.StatusCode)}
	}

	var parsed scrapeProjectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SubmissionResult{Outcome: OutcomeFailure, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	result := SubmissionResult{
		Processed: parsed.Data.Processed,
		Failed:    parsed.Data.Failed,
		Message:   parsed.Message,
	}
	if parsed.Data.Failed > 0 {
		result.Outcome = OutcomePartialSuccess
	} else {
		result.Outcome = OutcomeSuccess
	}
	return result
}

// tokenExpired pre-checks a stored bearer token that happens to be a JWT.
// The signature is the backend's business; only the expiry claim is
// inspected to avoid a guaranteed 401 round trip. Opaque tokens pass
// through untouched.
func tokenExpired(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", false
	}
	if exp.Before(time.Now()) {
		return "stored auth token has expired, please log in again", true
	}
	return "", false
}

func (s *Submitter) record(ctx context.Context, ids []string, result SubmissionResult, startedAt time.Time) {
	if s.recorder == nil {
		return
	}
	sessionID := ""
	if s.sessionID != nil {
		sessionID = s.sessionID(ctx)
	}
	completed := time.Now()
	run := journal.SubmissionRun{
		SessionID:   sessionID,
		ProjectIDs:  ids,
		Outcome:     string(result.Outcome),
		Processed:   result.Processed,
		Failed:      result.Failed,
		Error:       result.Message,
		StartedAt:   startedAt,
		CompletedAt: &completed,
	}
	if err := s.recorder.Record(ctx, run); err != nil {
		log.Printf("[submit] journal record failed: %v", err)
	}
}
