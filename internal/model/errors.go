package model

import (
	"errors"
	"fmt"
)

// ErrLoad is matched by every *LoadError.
var ErrLoad = errors.New("load failed")

// ErrRecordNotFound is returned when an ID does not resolve to a record.
var ErrRecordNotFound = errors.New("record not found")

// LoadError reports that a gallery's source could not be fetched or decoded.
// Loads are attempted once; callers show a fallback view instead of retrying.
type LoadError struct {
	// Gallery is the gallery name.
	Gallery string
	// Source is the file path or URL that was read.
	Source string
	// Stage is the pipeline step that failed (fetch, decode, normalize).
	Stage string
	// Err is the underlying cause.
	Err error
}

// NewLoadError wraps err as a load failure of gallery at stage.
func NewLoadError(gallery, source, stage string, err error) *LoadError {
	return &LoadError{Gallery: gallery, Source: source, Stage: stage, Err: err}
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %s: %v", e.Gallery, e.Source, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoad) true for every LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }
