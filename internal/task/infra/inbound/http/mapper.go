package http

import (
	"time"

	"github.com/davicafu/hexatask/internal/task/application"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
)

// ToDTO convierte la tarea; now solo se usa para calcular Overdue.
func ToDTO(t *taskDomain.Task, now time.Time) TaskDTO {
	return TaskDTO{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority.String(),
		Status:      t.Status.String(),
		CreatedDate: t.CreatedAt,
		DueDate:     t.DueDate,
		AssigneeID:  t.AssigneeID,
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
		Overdue:     t.IsOverdue(now),
	}
}

func ToDTOs(tasks []*taskDomain.Task, now time.Time) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToDTO(t, now))
	}
	return out
}

func FromCreateDTO(dto TaskCreateDTO) (application.CreateTaskInput, error) {
	priority := taskDomain.PriorityMedium
	if dto.Priority != "" {
		p, err := taskDomain.ParsePriority(dto.Priority)
		if err != nil {
			return application.CreateTaskInput{}, err
		}
		priority = p
	}
	return application.CreateTaskInput{
		Title:       dto.Title,
		Description: dto.Description,
		Priority:    priority,
		DueDate:     dto.DueDate,
		AssigneeID:  dto.AssigneeID,
	}, nil
}

func FromUpdateDTO(dto TaskUpdateDTO) (application.UpdateTaskInput, error) {
	priority, err := taskDomain.ParsePriority(dto.Priority)
	if err != nil {
		return application.UpdateTaskInput{}, err
	}
	status, err := taskDomain.ParseStatus(dto.Status)
	if err != nil {
		return application.UpdateTaskInput{}, err
	}
	return application.UpdateTaskInput{
		Title:       dto.Title,
		Description: dto.Description,
		Priority:    priority,
		Status:      status,
		DueDate:     dto.DueDate,
		AssigneeID:  dto.AssigneeID,
		Version:     dto.Version,
	}, nil
}

func toArchivedDTOs(list []taskDomain.ArchivedTask, now time.Time) []archivedTaskDTO {
	out := make([]archivedTaskDTO, 0, len(list))
	for _, a := range list {
		out = append(out, archivedTaskDTO{Task: ToDTO(a.Task, now), ArchivedAt: a.ArchivedAt})
	}
	return out
}

func toStatsDTO(stats *application.TaskStats) statsDTO {
	trend := make([]dailyTrendDTO, 0, len(stats.Trend))
	for _, d := range stats.Trend {
		trend = append(trend, dailyTrendDTO{
			Day:       d.Day.Format("2006-01-02"),
			Created:   d.CreatedCount,
			Completed: d.CompletedCount,
		})
	}
	return statsDTO{
		AverageCompletionSeconds: stats.AverageCompletion.Seconds(),
		Trend:                    trend,
	}
}
