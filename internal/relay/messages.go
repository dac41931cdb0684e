// Package relay is the coordinator between the page scanner and the
// trigger UI: a typed request/response envelope, per-tab inboxes with
// bounded waits, a short-lived stash for transient request data, and the
// backend submitter.
package relay

import (
	"errors"
	"fmt"

	"github.com/rafael/tender-picker/internal/scan"
)

// Action names are the wire contract between the three contexts and must
// stay exact for interop.
const (
	ActionDetect            = "detect"
	ActionShowOverlay       = "showOverlay"
	ActionHideOverlay       = "hideOverlay"
	ActionGetSelection      = "getSelection"
	ActionCheckPopupOpen    = "checkPopupOpen"
	ActionGetPopupProjectID = "getPopupProjectId"
	ActionStoreIDs          = "storeIds"
	ActionGetStoredIDs      = "getStoredIds"
)

// Request is the message envelope. ID is generated by the coordinator
// for traceability; TabID selects the scanner instance, empty meaning
// "the focused tab".
type Request struct {
	ID        string   `json:"id,omitempty"`
	Action    string   `json:"action"`
	TabID     string   `json:"tab_id,omitempty"`
	IDs       []string `json:"ids,omitempty"`
	ProjectID string   `json:"project_id,omitempty"`
	URL       string   `json:"url,omitempty"`
}

// Response carries either a result or a converted error kind. Raw errors
// never cross the relay boundary.
type Response struct {
	Success     bool                `json:"success"`
	Error       string              `json:"error,omitempty"`
	Projects    []scan.ProjectEntry `json:"projects,omitempty"`
	SelectedIDs []string            `json:"selected_ids,omitempty"`
	ProjectID   string              `json:"project_id,omitempty"`
	Open        bool                `json:"open,omitempty"`
}

// OK builds a bare success response.
func OK() Response {
	return Response{Success: true}
}

// Fail converts an error to a boundary-safe response.
func Fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

var (
	// ErrRelayUnreachable means no scanner is registered for the target
	// tab (closed or navigated away mid-request).
	ErrRelayUnreachable = errors.New("no scanner reachable, please reopen the page and try again")
	// ErrRelayTimeout means the scanner did not answer within the bounded
	// wait; recoverable, the user may retry.
	ErrRelayTimeout = errors.New("scanner did not respond in time")
	// ErrUnknownAction means the envelope named an action outside the
	// contract above.
	ErrUnknownAction = errors.New("unknown relay action")

	// ErrEmptySelection guards confirm: no network call is made for an
	// empty selection set.
	ErrEmptySelection = errors.New("no projects selected")
	// ErrSubmissionBusy rejects a second submit while one is in flight.
	ErrSubmissionBusy = errors.New("a submission is already in progress")
)

func unknownAction(action string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAction, action)
}
