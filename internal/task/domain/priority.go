package domain

import "strings"

// TaskPriority clasifica la urgencia relativa. Conjunto cerrado.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

func Priorities() []TaskPriority {
	return []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}
}

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p TaskPriority) String() string {
	return string(p)
}

// ParsePriority acepta la etiqueta sin distinguir mayúsculas.
func ParsePriority(raw string) (TaskPriority, error) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", &ValidationError{Field: "priority", Reason: "must be one of LOW, MEDIUM, HIGH"}
	}
	return p, nil
}
