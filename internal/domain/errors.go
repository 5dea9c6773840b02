package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrJobExists         = errors.New("job already exists")
	ErrImmutableArtifact = errors.New("artifact is immutable once written")
	ErrMalformed         = errors.New("malformed artifact")
	ErrNotReady          = errors.New("job has not finished")
	ErrJobFailed         = errors.New("job failed")
	ErrVoiceNotFound     = errors.New("voice not found")
	ErrEmptyResult       = errors.New("empty result")
	ErrUnknownStage      = errors.New("unknown stage")
	ErrUnknownArtifact   = errors.New("unknown artifact kind")
)

// ArtifactNotFoundError reports that a stage asked for an artifact that has
// not been produced yet. It matches ErrNotFound with errors.Is.
type ArtifactNotFoundError struct {
	JobID string
	Kind  ArtifactKind
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("job %s: artifact %s not found", e.JobID, e.Kind)
}

func (e *ArtifactNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StageError is the terminal error of a pipeline run.
type StageError struct {
	JobID string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("job %s: stage %s: %v", e.JobID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Malformed wraps err with ErrMalformed so callers can tell corrupt input
// apart from storage failures.
func Malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformed, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}
