package domain

import "strings"

// TaskStatus es la posición de la tarea en su ciclo de vida. Conjunto cerrado.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Statuses devuelve todos los estados en orden de ciclo de vida.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusDone}
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

func (s TaskStatus) String() string {
	return string(s)
}

// CanTransitionTo aplica la tabla de transiciones:
//
//	TODO -> IN_PROGRESS
//	IN_PROGRESS -> DONE | TODO
//	DONE -> IN_PROGRESS
//
// No hay estado terminal. Permanecer en el mismo estado no es una transición.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case StatusTodo:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusDone || next == StatusTodo
	case StatusDone:
		return next == StatusInProgress
	default:
		return false
	}
}

// previous es el estado al que vuelve Reopen.
func (s TaskStatus) previous() (TaskStatus, bool) {
	switch s {
	case StatusDone:
		return StatusInProgress, true
	case StatusInProgress:
		return StatusTodo, true
	default:
		return s, false
	}
}

// ParseStatus acepta la etiqueta sin distinguir mayúsculas.
func ParseStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Reason: "must be one of TODO, IN_PROGRESS, DONE"}
	}
	return s, nil
}
