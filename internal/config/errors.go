package config

import "errors"

// Validation errors returned by Config.Validate and File.Validate.
var (
	// ErrNoGalleries is returned when no gallery is configured.
	ErrNoGalleries = errors.New("no galleries configured: run 'showcase init' to create .showcase")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the body size limit is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrMissingSource is returned for a gallery without a source.
	ErrMissingSource = errors.New("gallery has no source")

	// ErrUnknownLayout is returned for an unsupported layout name.
	ErrUnknownLayout = errors.New("unknown layout: must be list, grouped or groups")

	// ErrUnknownOrder is returned for an unsupported order name.
	ErrUnknownOrder = errors.New("unknown order: must be source or date_desc")

	// ErrInvalidPageSize is returned for a negative page size.
	ErrInvalidPageSize = errors.New("invalid page size: must be non-negative")

	// ErrUnknownEngine is returned for an unsupported markdown engine.
	ErrUnknownEngine = errors.New("unknown markdown engine: must be builtin or goldmark")

	// ErrUnknownGallery is returned when a gallery name is not configured.
	ErrUnknownGallery = errors.New("unknown gallery")
)
