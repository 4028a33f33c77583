package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// JSONTaskArchive guarda las tareas borradas en un fichero JSON.
// El fichero se reescribe entero en cada archivado.
type JSONTaskArchive struct {
	filePath string
	mu       sync.Mutex
}

func NewJSONTaskArchive(filePath string) *JSONTaskArchive {
	return &JSONTaskArchive{filePath: filePath}
}

// archivedRecord es el formato en disco. El dominio no lleva tags JSON.
type archivedRecord struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	Version     int        `json:"version"`
	ArchivedAt  time.Time  `json:"archived_at"`
}

// Archive añade la tarea al fichero. Si no existe, lo crea.
func (s *JSONTaskArchive) Archive(ctx context.Context, t *taskDomain.Task, archivedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}
	records = append(records, toRecord(t, archivedAt))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return s.writeAtomic(data)
}

// List devuelve las tareas archivadas en orden de archivado.
func (s *JSONTaskArchive) List(ctx context.Context) ([]taskDomain.ArchivedTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]taskDomain.ArchivedTask, 0, len(records))
	for _, r := range records {
		out = append(out, fromRecord(r))
	}
	return out, nil
}

// readAll no bloquea: el llamador tiene el mutex.
func (s *JSONTaskArchive) readAll() ([]archivedRecord, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []archivedRecord{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []archivedRecord{}, nil
	}

	var records []archivedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("corrupt archive %s: %w", s.filePath, err)
	}
	return records, nil
}

// writeAtomic escribe en un temporal y renombra.
func (s *JSONTaskArchive) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".archive-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.filePath)
}

func toRecord(t *taskDomain.Task, archivedAt time.Time) archivedRecord {
	c := t.Clone()
	return archivedRecord{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Priority:    string(c.Priority),
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		DueDate:     c.DueDate,
		AssigneeID:  c.AssigneeID,
		Version:     c.Version,
		ArchivedAt:  archivedAt.UTC(),
	}
}

func fromRecord(r archivedRecord) taskDomain.ArchivedTask {
	return taskDomain.ArchivedTask{
		Task: &taskDomain.Task{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Priority:    taskDomain.TaskPriority(r.Priority),
			Status:      taskDomain.TaskStatus(r.Status),
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			DueDate:     r.DueDate,
			AssigneeID:  r.AssigneeID,
			Version:     r.Version,
		},
		ArchivedAt: r.ArchivedAt,
	}
}

var _ taskDomain.TaskArchive = (*JSONTaskArchive)(nil)
