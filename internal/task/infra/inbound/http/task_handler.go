package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	"github.com/davicafu/hexatask/internal/task/application"
	taskDomain "github.com/davicafu/hexatask/internal/task/domain"
	"github.com/davicafu/hexatask/pkg/utils"
)

// TaskHandler encapsula los endpoints HTTP relacionados con Task.
type TaskHandler struct {
	service *application.TaskService
	log     *zap.Logger
}

func NewTaskHandler(service *application.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{service: service, log: log}
}

// --- CRUD ---

// CreateTask endpoint POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req TaskCreateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	in, err := FromCreateDTO(req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, ToDTO(task, h.service.Now()))
}

// GetTask endpoint GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, err := h.service.GetTaskByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, ToDTO(task, h.service.Now()))
}

// UpdateTask endpoint PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req TaskUpdateDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	in, err := FromUpdateDTO(req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, ToDTO(task, h.service.Now()))
}

// DeleteTask endpoint DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTask(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Listados ---

// ListTasks endpoint GET /api/tasks con filtros, paginación y ordenamiento
func (h *TaskHandler) ListTasks(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	page, err := parsePagination(c)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	sortParam := sharedQuery.Sort{Field: taskDomain.FieldCreatedAt, Desc: true}
	if sortField := c.Query("sort_field"); sortField != "" {
		sortParam.Field = sortField
		sortParam.Desc = c.Query("sort_desc") == "true"
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), filter, page, sortParam)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendPage(c, ToDTOs(tasks, h.service.Now()), page.Limit, page.Offset)
}

// SearchTasks endpoint GET /api/tasks/search?keyword=
func (h *TaskHandler) SearchTasks(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	tasks, err := h.service.SearchTasks(c.Request.Context(), c.Query("keyword"), page)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendPage(c, ToDTOs(tasks, h.service.Now()), page.Limit, page.Offset)
}

// OverdueTasks endpoint GET /api/tasks/overdue
func (h *TaskHandler) OverdueTasks(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	tasks, err := h.service.GetOverdueTasks(c.Request.Context(), page)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendPage(c, ToDTOs(tasks, h.service.Now()), page.Limit, page.Offset)
}

// TasksForUser endpoint GET /api/users/:id/tasks
func (h *TaskHandler) TasksForUser(c *gin.Context) {
	userID, ok := parseID(c)
	if !ok {
		return
	}
	page, err := parsePagination(c)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	tasks, err := h.service.GetTasksForUser(c.Request.Context(), userID, page)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendPage(c, ToDTOs(tasks, h.service.Now()), page.Limit, page.Offset)
}

// ArchivedTasks endpoint GET /api/tasks/archive
func (h *TaskHandler) ArchivedTasks(c *gin.Context) {
	list, err := h.service.ListArchived(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, toArchivedDTOs(list, h.service.Now()))
}

// Stats endpoint GET /api/tasks/stats?from=&to= (RFC3339). Por defecto, los últimos 7 días.
func (h *TaskHandler) Stats(c *gin.Context) {
	to := h.service.Now()
	from := to.AddDate(0, 0, -7)
	if err := parseTimeParam(c, "from", &from); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	if err := parseTimeParam(c, "to", &to); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, toStatsDTO(stats))
}

// --- Ciclo de vida ---

// TransitionTask endpoint POST /api/tasks/:id/transition
func (h *TaskHandler) TransitionTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	status, err := taskDomain.ParseStatus(req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.respond(c)(h.service.TransitionTask(c.Request.Context(), id, status))
}

// CompleteTask endpoint POST /api/tasks/:id/complete
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.CompleteTask(c.Request.Context(), id))
}

// AssignTask endpoint PUT /api/tasks/:id/assignee
func (h *TaskHandler) AssignTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req assigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	h.respond(c)(h.service.AssignTask(c.Request.Context(), id, *req.AssigneeID))
}

// UnassignTask endpoint DELETE /api/tasks/:id/assignee
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.respond(c)(h.service.UnassignTask(c.Request.Context(), id))
}

// UpdateDueDate endpoint PUT /api/tasks/:id/due-date; {"dueDate": null} la elimina.
func (h *TaskHandler) UpdateDueDate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	h.respond(c)(h.service.UpdateDueDate(c.Request.Context(), id, req.DueDate))
}

// DaysUntilDue endpoint GET /api/tasks/:id/days-until-due
func (h *TaskHandler) DaysUntilDue(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	days, err := h.service.DaysUntilDue(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, daysUntilDueResponse{Days: days})
}

// --- Helpers ---

// respond escribe la tarea resultante de una mutación o su error.
func (h *TaskHandler) respond(c *gin.Context) func(*taskDomain.Task, error) {
	return func(task *taskDomain.Task, err error) {
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		utils.SendSuccess(c, http.StatusOK, ToDTO(task, h.service.Now()))
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (sharedQuery.OffsetPagination, error) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(sharedQuery.DefaultLimit)))
	if err != nil {
		return sharedQuery.OffsetPagination{}, &taskDomain.ValidationError{Field: "limit", Reason: "must be an integer"}
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return sharedQuery.OffsetPagination{}, &taskDomain.ValidationError{Field: "offset", Reason: "must be an integer"}
	}
	return sharedQuery.OffsetPagination{Limit: limit, Offset: offset}.Normalize(), nil
}

func parseFilter(c *gin.Context) (application.TaskFilter, error) {
	var f application.TaskFilter

	if raw := c.Query("status"); raw != "" {
		s, err := taskDomain.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &s
	}
	if raw := c.Query("priority"); raw != "" {
		p, err := taskDomain.ParsePriority(raw)
		if err != nil {
			return f, err
		}
		f.Priority = &p
	}
	if raw := c.Query("assigneeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, &taskDomain.ValidationError{Field: "assigneeId", Reason: "must be a UUID"}
		}
		f.AssigneeID = &id
	}
	f.Keyword = c.Query("keyword")

	for name, dst := range map[string]**time.Time{
		"dueBefore":   &f.DueBefore,
		"dueAfter":    &f.DueAfter,
		"createdFrom": &f.CreatedFrom,
		"createdTo":   &f.CreatedTo,
	} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, &taskDomain.ValidationError{Field: name, Reason: "must be an RFC3339 timestamp"}
		}
		*dst = &t
	}
	return f, nil
}

func parseTimeParam(c *gin.Context, name string, dst *time.Time) error {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return &taskDomain.ValidationError{Field: name, Reason: "must be an RFC3339 timestamp"}
	}
	*dst = t
	return nil
}
