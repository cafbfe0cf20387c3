package assess

import (
	"context"
	"time"

	"github.com/i474232898/flood-risk/internal/risk"
	"github.com/i474232898/flood-risk/internal/weather"
)

// Trigger names the user action that started an assessment.
type Trigger string

const (
	TriggerCity  Trigger = "city"
	TriggerPoint Trigger = "point"
)

// Assessment is the result of one user action: where, what the weather is
// today and how risky it looks.
type Assessment struct {
	Location        string            `json:"location"`
	Latitude        float64           `json:"latitude"`
	Longitude       float64           `json:"longitude"`
	ResolvedAddress string            `json:"resolvedAddress"`
	Today           weather.DayRecord `json:"today"`
	Alerts          []weather.Alert   `json:"alerts,omitempty"`
	Prediction      risk.Prediction   `json:"prediction"`
}

// Status is the lifecycle state of a session's latest request.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// SessionState is what a client would render: loading, an error message, or
// the latest assessment.
type SessionState struct {
	SessionID  string      `json:"sessionId"`
	Generation uint64      `json:"generation"`
	Status     Status      `json:"status"`
	Location   string      `json:"location,omitempty"`
	Error      string      `json:"error,omitempty"`
	Assessment *Assessment `json:"assessment,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// SessionStore keeps per-session state. Begin starts a new generation and
// cancels the previous one; Complete and Fail only apply to the current
// generation.
type SessionStore interface {
	Begin(sessionID string, cancel context.CancelFunc) uint64
	SetLocation(sessionID string, generation uint64, location string) error
	Complete(sessionID string, generation uint64, a Assessment) error
	Fail(sessionID string, generation uint64, cause error) error
	Get(sessionID string) (SessionState, error)
}
