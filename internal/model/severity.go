package model

import "strings"

// Severity ranks validation findings.
type Severity int

const (
	// SeverityInfo is a note that needs no action.
	SeverityInfo Severity = iota
	// SeverityWarning marks data that loads but renders poorly.
	SeverityWarning
	// SeverityError marks data that cannot be shown.
	SeverityError
)

// String returns the upper-case level name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity parses a level name case-insensitively. Unknown names
// yield SeverityInfo and false.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO":
		return SeverityInfo, true
	case "WARNING", "WARN":
		return SeverityWarning, true
	case "ERROR":
		return SeverityError, true
	default:
		return SeverityInfo, false
	}
}

// Finding types reported by validation.
const (
	FindingLoadFailed     = "load_failed"
	FindingNoRecords      = "no_records"
	FindingEmptyTitle     = "empty_title"
	FindingEmptyBody      = "empty_body"
	FindingDuplicateTitle = "duplicate_title"
	FindingUncategorized  = "uncategorized"
	FindingLoadWarning    = "load_warning"
	FindingBrokenLink     = "broken_link"
)

var findingSeverity = map[string]Severity{
	FindingLoadFailed:     SeverityError,
	FindingBrokenLink:     SeverityError,
	FindingNoRecords:      SeverityWarning,
	FindingEmptyTitle:     SeverityWarning,
	FindingEmptyBody:      SeverityWarning,
	FindingLoadWarning:    SeverityWarning,
	FindingDuplicateTitle: SeverityInfo,
	FindingUncategorized:  SeverityInfo,
}

// GetSeverity returns the severity of a finding type. Unknown types are
// informational.
func GetSeverity(findingType string) Severity {
	if s, ok := findingSeverity[findingType]; ok {
		return s
	}
	return SeverityInfo
}

// Finding is one validation result.
type Finding struct {
	// Type is one of the Finding* constants.
	Type string `json:"type"`

	// Severity is derived from Type.
	Severity Severity `json:"severity"`

	// SeverityText is Severity.String(), kept for JSON readers.
	SeverityText string `json:"severity_text"`

	// Gallery is the gallery the finding belongs to.
	Gallery string `json:"gallery"`

	// RecordID is the record concerned, 0 for gallery-level findings.
	RecordID int `json:"record_id,omitempty"`

	// Message describes the problem.
	Message string `json:"message"`
}

// NewFinding builds a finding with its severity filled in.
func NewFinding(findingType, gallery string, recordID int, message string) Finding {
	sev := GetSeverity(findingType)
	return Finding{
		Type:         findingType,
		Severity:     sev,
		SeverityText: sev.String(),
		Gallery:      gallery,
		RecordID:     recordID,
		Message:      message,
	}
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}
