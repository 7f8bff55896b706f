package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage is a step of the fixed submission sequence
type Stage int

const (
	StageIdle Stage = iota
	StageValidating
	StageUploadingSignature
	StageGeneratingDocument
	StageUploadingDocument
	StagePersisting
	StageSyncing
	StageComplete
	StageFailed
)

var stageNames = map[Stage]string{
	StageIdle:               "idle",
	StageValidating:         "validating",
	StageUploadingSignature: "uploading_signature",
	StageGeneratingDocument: "generating_document",
	StageUploadingDocument:  "uploading_document",
	StagePersisting:         "persisting",
	StageSyncing:            "syncing",
	StageComplete:           "complete",
	StageFailed:             "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fatal reports whether a failure in the stage aborts the submission
func (s Stage) Fatal() bool {
	switch s {
	case StageValidating, StageUploadingSignature, StageGeneratingDocument,
		StageUploadingDocument, StagePersisting:
		return true
	}
	return false
}

func (s Stage) messageID() string {
	return "status_" + s.String()
}

// State is the position of a controller. FailedAt is set only when Stage
// is StageFailed.
type State struct {
	Stage    Stage `json:"stage"`
	FailedAt Stage `json:"failed_at,omitempty"`
}

func (s State) String() string {
	if s.Stage == StageFailed {
		return fmt.Sprintf("failed(%s)", s.FailedAt)
	}
	return s.Stage.String()
}

// StageError is returned when a fatal stage fails
type StageError struct {
	Stage Stage
	Err   error
}

func newStageError(stage Stage, err error, msg string) *StageError {
	return &StageError{Stage: stage, Err: errors.Wrap(err, msg)}
}

func (e *StageError) Error() string {
	return e.Stage.String() + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Cause() error {
	return errors.Cause(e.Err)
}
