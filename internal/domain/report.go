package domain

import "time"

// Category is where the harassment took place.
type Category string

const (
	CategoryWorkplace   Category = "workplace"
	CategoryOnline      Category = "online"
	CategoryPublic      Category = "public"
	CategoryEducational Category = "educational"
	CategoryOther       Category = "other"
)

// Categories lists every valid Category in declaration order.
func Categories() []Category {
	return []Category{CategoryWorkplace, CategoryOnline, CategoryPublic, CategoryEducational, CategoryOther}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryWorkplace, CategoryOnline, CategoryPublic, CategoryEducational, CategoryOther:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// ReportSummary is the structured output of an intake conversation.
// A new summarization produces a new value; existing values are never mutated.
type ReportSummary struct {
	Title     string   `json:"title" yaml:"title" firestore:"title" validate:"required,notblank"`
	Summary   string   `json:"summary" yaml:"summary" firestore:"summary" validate:"min=11"`
	Category  Category `json:"category" yaml:"category" firestore:"category" validate:"oneof=workplace online public educational other"`
	Severity  Severity `json:"severity" yaml:"severity" firestore:"severity" validate:"oneof=low medium high"`
	KeyPoints []string `json:"keyPoints" yaml:"keyPoints" firestore:"key_points" validate:"required"`
}

// Clone returns a copy that shares no memory with s.
func (s ReportSummary) Clone() ReportSummary {
	out := s
	if s.KeyPoints != nil {
		out.KeyPoints = append([]string{}, s.KeyPoints...)
	}
	return out
}

// Visibility is the caller's decision about a finished summary.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Report is a summary the user chose to share.
type Report struct {
	ID        ReportID
	SessionID SessionID
	Summary   ReportSummary
	IsPublic  bool
	CreatedAt time.Time
}
