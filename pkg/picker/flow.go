package picker

import (
	"context"
	"errors"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"
)

// State is the lifecycle position of a picker session as seen by the server.
type State int

const (
	StateCreated State = iota
	StatePolling
	StateReady
	StateTimedOut
	StateError
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StatePolling:
		return "POLLING"
	case StateReady:
		return "READY"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateReady || s == StateTimedOut || s == StateError
}

// Result is the outcome of completing a picker session.
type Result struct {
	State State
	Items []PickedMediaItem
}

// Flow runs a picker session from creation to fetched items with a fixed
// polling budget.
type Flow struct {
	client      *Client
	maxAttempts int
	interval    time.Duration
}

// NewFlow returns a Flow that polls at most maxAttempts times, interval apart.
func NewFlow(client *Client, maxAttempts int, interval time.Duration) *Flow {
	return &Flow{client: client, maxAttempts: maxAttempts, interval: interval}
}

// Budget is the longest Complete waits between polls.
func (f *Flow) Budget() time.Duration {
	if f.maxAttempts < 1 {
		return 0
	}
	return time.Duration(f.maxAttempts-1) * f.interval
}

// Start creates a picker session in the CREATED state.
func (f *Flow) Start(ctx context.Context, token string, opts Options) (*Session, State, error) {
	s, err := f.client.CreateSession(ctx, token, opts)
	if err != nil {
		return nil, StateError, err
	}
	return s, StateCreated, nil
}

// Complete polls the session until it is ready, fetches the selected items
// and then deletes the session. The delete is best effort and its failure is
// only logged.
func (f *Flow) Complete(ctx context.Context, token, sessionID string) (*Result, error) {
	logger := core.LoggerFromCtx(ctx).With("session_id", sessionID)
	logger.Debug("Picker state", "state", StatePolling.String())

	if _, err := f.client.PollUntilReady(ctx, token, sessionID, f.maxAttempts, f.interval); err != nil {
		var timeout *PollTimeoutError
		if errors.As(err, &timeout) {
			logger.Info("Picker state", "state", StateTimedOut.String(), "attempts", timeout.Attempts)
			return &Result{State: StateTimedOut}, err
		}
		logger.Error("Picker state", "state", StateError.String(), "error", err)
		return &Result{State: StateError}, err
	}

	items, err := f.client.FetchSelectedItems(ctx, token, sessionID)
	if err != nil {
		logger.Error("Picker state", "state", StateError.String(), "error", err)
		return &Result{State: StateError}, err
	}

	if err := f.client.DeleteSession(ctx, token, sessionID); err != nil {
		logger.Warn("Failed to delete picker session", "error", err)
	}

	logger.Info("Picker state", "state", StateReady.String(), "items", len(items))
	return &Result{State: StateReady, Items: items}, nil
}
