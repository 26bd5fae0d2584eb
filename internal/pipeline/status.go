package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/DjordjeVuckovic/table-ingest/internal/domain"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Reason classifies a failed run.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonSourceFailed     Reason = "SourceFailed"
	ReasonValidationFailed Reason = "ValidationFailed"
	ReasonSinkFailed       Reason = "SinkFailed"
	ReasonTimeout          Reason = "Timeout"
)

// RunStatus is the terminal outcome of a run. A FAILED status always has a Reason and an Err.
type RunStatus struct {
	RunID   uuid.UUID              `json:"runId"`
	Status  Status                 `json:"status"`
	Reason  Reason                 `json:"reason,omitempty"`
	Err     error                  `json:"-"`
	Error   string                 `json:"error,omitempty"`
	Result  *domain.CommitResult   `json:"result,omitempty"`
	Records int                    `json:"records"`
	Table   string                 `json:"table"`
	Options domain.PipelineOptions `json:"options"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (s RunStatus) Succeeded() bool {
	return s.Status == StatusSuccess
}

func (s *RunStatus) succeed(res domain.CommitResult) {
	s.Status = StatusSuccess
	s.Result = &res
}

func (s *RunStatus) fail(reason Reason, err error) {
	s.Status = StatusFailed
	s.Reason = reason
	s.Err = err
	s.Error = err.Error()
}
