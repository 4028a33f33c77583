package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexatask/internal/mocks"
	"github.com/davicafu/hexatask/internal/task/application"
	userDomain "github.com/davicafu/hexatask/internal/user/domain"
)

var testNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	router *gin.Engine
	repo   *mocks.InMemoryTaskRepo
	user   *userDomain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	user, err := userDomain.NewUser("carla@example.com", "Carla", testNow)
	require.NoError(t, err)
	user.ID = uuid.New()

	repo := mocks.NewInMemoryTaskRepo()
	svc := application.NewTaskService(repo, mocks.NewStaticUserDirectory(user), mocks.NewDummyCache(), zap.NewNop(),
		application.WithClock(func() time.Time { return testNow }))

	r := gin.New()
	RegisterTaskRoutes(r, NewTaskHandler(svc, zap.NewNop()))
	return &testServer{router: r, repo: repo, user: user}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) createTask(t *testing.T, body map[string]interface{}) TaskDTO {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/tasks", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var dto TaskDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	return dto
}

func TestCreateAndGetTask_HTTPContract(t *testing.T) {
	// Arrange
	s := newTestServer(t)

	// Act
	created := s.createTask(t, map[string]interface{}{"title": "Ship it", "priority": "HIGH"})
	w, env := s.do(t, http.MethodGet, "/api/tasks/"+created.ID.String(), nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var got TaskDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Ship it", got.Title)
	assert.Equal(t, "HIGH", got.Priority)
	assert.Equal(t, "TODO", got.Status)
	assert.Equal(t, 1, got.Version)
	assert.True(t, testNow.Equal(got.CreatedDate))
}

func TestCreateTask_ValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	w, env := s.do(t, http.MethodPost, "/api/tasks", map[string]interface{}{"title": string(long)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", env.Error.Code)
}

func TestGetTask_Errors(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "task_not_found", env.Error.Code)
}

func TestTransition_ErrorMapping(t *testing.T) {
	// Arrange
	s := newTestServer(t)
	task := s.createTask(t, map[string]interface{}{"title": "flow"})
	base := "/api/tasks/" + task.ID.String()

	// Act + Assert: TODO -> DONE no es una arista
	w, env := s.do(t, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state_transition", env.Error.Code)

	w, _ = s.do(t, http.MethodPost, base+"/transition", map[string]string{"status": "IN_PROGRESS"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var done TaskDTO
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, "DONE", done.Status)

	// una tarea terminada no se puede asignar
	w, env = s.do(t, http.MethodPut, base+"/assignee", map[string]string{"assigneeId": s.user.ID.String()})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "assignment_rejected", env.Error.Code)

	w, _ = s.do(t, http.MethodPost, base+"/transition", map[string]string{"status": "ARCHIVED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignmentAndUserTasks(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]interface{}{"title": "mine"})
	base := "/api/tasks/" + task.ID.String()

	w, _ := s.do(t, http.MethodPut, base+"/assignee", map[string]string{"assigneeId": s.user.ID.String()})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/users/"+s.user.ID.String()+"/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []TaskDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)

	w, _ = s.do(t, http.MethodDelete, base+"/assignee", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, s.repo.Tasks[task.ID].AssigneeID)

	w, env = s.do(t, http.MethodGet, "/api/users/"+uuid.NewString()+"/tasks", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", env.Error.Code)
}

func TestDueDateEndpoints(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]interface{}{"title": "deadline"})
	base := "/api/tasks/" + task.ID.String()

	w, env := s.do(t, http.MethodGet, base+"/days-until-due", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "no_due_date", env.Error.Code)

	due := testNow.Add(-50 * time.Hour)
	w, _ = s.do(t, http.MethodPut, base+"/due-date", map[string]interface{}{"dueDate": due})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodGet, base+"/days-until-due", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"days":-2}`, string(env.Data))

	w, env = s.do(t, http.MethodGet, "/api/tasks/overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overdue []TaskDTO
	require.NoError(t, json.Unmarshal(env.Data, &overdue))
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].Overdue)

	w, _ = s.do(t, http.MethodPut, base+"/due-date", map[string]interface{}{"dueDate": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, s.repo.Tasks[task.ID].DueDate)
}

func TestUpdateTask_VersionConflict(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]interface{}{"title": "v1"})
	path := "/api/tasks/" + task.ID.String()

	body := map[string]interface{}{"title": "v2", "priority": "LOW", "status": "TODO", "version": 1}
	w, env := s.do(t, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, w.Code)
	var updated TaskDTO
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 2, updated.Version)

	w, env = s.do(t, http.MethodPut, path, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "version_conflict", env.Error.Code)
}

func TestListAndSearch(t *testing.T) {
	s := newTestServer(t)
	s.createTask(t, map[string]interface{}{"title": "Buy milk", "priority": "LOW"})
	s.createTask(t, map[string]interface{}{"title": "Write docs", "priority": "HIGH", "description": "milk the cow"})
	s.createTask(t, map[string]interface{}{"title": "Deploy", "priority": "HIGH"})

	w, env := s.do(t, http.MethodGet, "/api/tasks?priority=high&sort_field=title", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []TaskDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Deploy", list[0].Title)

	w, env = s.do(t, http.MethodGet, "/api/tasks/search?keyword=MILK", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	w, _ = s.do(t, http.MethodGet, "/api/tasks?status=BLOCKED", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/tasks?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAndArchive(t *testing.T) {
	s := newTestServer(t)
	task := s.createTask(t, map[string]interface{}{"title": "temp"})

	w, _ := s.do(t, http.MethodDelete, "/api/tasks/"+task.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/tasks/"+task.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/tasks/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestStats_WithoutAnalytics(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/tasks/stats", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "analytics_unavailable", env.Error.Code)

	w, _ = s.do(t, http.MethodGet, "/api/tasks/stats?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
