package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedQuery "github.com/davicafu/hexatask/internal/shared/infra/platform/query"
	"github.com/davicafu/hexatask/internal/user/application"
	"github.com/davicafu/hexatask/internal/user/domain"
	"github.com/davicafu/hexatask/pkg/utils"
)

// UserHandler encapsula los endpoints HTTP relacionados con User
type UserHandler struct {
	service *application.UserService
	log     *zap.Logger
}

func NewUserHandler(service *application.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

type userRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
}

// ---------------- Handlers ----------------

// CreateUser endpoint POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusCreated, user)
}

// GetUser endpoint GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, user)
}

// UpdateUser endpoint PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, req.Email, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, user)
}

// DeleteUser endpoint DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivateUser endpoint POST /api/users/:id/activate
func (h *UserHandler) ActivateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.service.ActivateUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, user)
}

// DeactivateUser endpoint POST /api/users/:id/deactivate
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.service.DeactivateUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, user)
}

// ListUsers endpoint GET /api/users?email=&name=&active=&sort=&desc=&limit=&offset=
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(sharedQuery.DefaultLimit)))
	offset, errOffset := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if errLimit != nil || errOffset != nil {
		utils.SendBadRequest(c, "limit and offset must be integers")
		return
	}
	page := sharedQuery.OffsetPagination{Limit: limit, Offset: offset}.Normalize()

	filter := application.UserFilter{Email: c.Query("email"), Name: c.Query("name")}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			utils.SendBadRequest(c, "active must be a boolean")
			return
		}
		filter.Active = &active
	}
	sort := sharedQuery.Sort{Field: c.Query("sort"), Desc: c.Query("desc") == "true"}

	users, err := h.service.ListUsers(c.Request.Context(), filter, page, sort)
	if err != nil {
		h.writeError(c, err)
		return
	}
	utils.SendPage(c, users, page.Limit, page.Offset)
}

// ---------------- Helpers ----------------

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidUser), errors.Is(err, domain.ErrInvalidSortField):
		utils.SendErrorWithCode(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		utils.SendErrorWithCode(c, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, domain.ErrUserAlreadyExists):
		utils.SendErrorWithCode(c, http.StatusConflict, "user_already_exists", "user already exists")
	default:
		h.log.Error("Unhandled user error", zap.String("path", c.FullPath()), zap.Error(err))
		utils.SendInternalServerError(c, "internal server error")
	}
}
