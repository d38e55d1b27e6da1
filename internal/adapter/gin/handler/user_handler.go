package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-management-api/internal/adapter/gin/response"
	domain "user-management-api/internal/domain/user"
	"user-management-api/internal/usecase/user"
	apperrors "user-management-api/pkg/errors"
	"user-management-api/pkg/logger"
)

// Messages for 5xx responses. Details stay in the server log.
const (
	MsgDatabaseError   = "A database error occurred. Please try again later."
	MsgUnexpectedError = "An unexpected error occurred. Please try again later."
)

// defaultContentType is assumed when a request carries no Content-Type.
const defaultContentType = "application/octet-stream"

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserRequest is the HTTP request body for creating and updating a user.
// Age is a pointer so that a missing age can be told apart from zero.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func toResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Age: u.Age}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	in, ok := h.bindUser(c)
	if !ok {
		return
	}

	u, err := h.uc.CreateUser(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(u))
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.GetAllUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = toResponse(u)
	}
	c.JSON(http.StatusOK, out)
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")

	u, found, err := h.uc.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !found {
		h.handleError(c, apperrors.NewUserNotFoundError(id))
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")

	in, ok := h.bindUser(c)
	if !ok {
		return
	}

	u, found, err := h.uc.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !found {
		h.handleError(c, apperrors.NewUserNotFoundError(id))
		return
	}

	c.JSON(http.StatusOK, toResponse(u))
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.uc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !deleted {
		h.handleError(c, apperrors.NewUserNotFoundError(id))
		return
	}

	c.Status(http.StatusNoContent)
}

// bindUser checks the content type and decodes the JSON body. On failure it
// writes the error response and returns false.
func (h *UserHandler) bindUser(c *gin.Context) (user.UserInput, bool) {
	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	if !isJSON(contentType) {
		h.handleError(c, apperrors.NewUnsupportedMediaTypeError(contentType))
		return user.UserInput{}, false
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, apperrors.NewMalformedBodyError(err))
		return user.UserInput{}, false
	}

	return user.UserInput{Name: req.Name, Email: req.Email, Age: req.Age}, true
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}

// handleError logs err and writes the matching error response.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	mapped := MapError(err)
	log := logger.WithContext(c.Request.Context(), h.log).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", mapped.Status),
	)

	if mapped.Status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Warn("request rejected", zap.Error(err))
	}

	response.AbortWithError(c, mapped.Status, mapped.Message, mapped.FieldErrors)
}

// MappedError is the client-facing view of an error.
type MappedError struct {
	Status      int
	Message     string
	FieldErrors map[string]string
}

// MapError converts usecase and transport errors to their HTTP representation.
func MapError(err error) MappedError {
	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
		existsErr     *apperrors.AlreadyExistsError
		malformedErr  *apperrors.MalformedRequestError
		internalErr   *apperrors.InternalError
	)

	switch {
	case errors.As(err, &validationErr):
		return MappedError{
			Status:      http.StatusBadRequest,
			Message:     validationErr.Message,
			FieldErrors: validationErr.FieldErrors(),
		}
	case errors.As(err, &notFoundErr):
		return MappedError{Status: http.StatusNotFound, Message: notFoundErr.Error()}
	case errors.As(err, &existsErr):
		return MappedError{Status: http.StatusConflict, Message: existsErr.Error()}
	case errors.As(err, &malformedErr):
		if malformedErr.Unsupported {
			return MappedError{Status: http.StatusUnsupportedMediaType, Message: malformedErr.Error()}
		}
		return MappedError{Status: http.StatusBadRequest, Message: malformedErr.Error()}
	case errors.As(err, &internalErr):
		return MappedError{Status: http.StatusInternalServerError, Message: MsgDatabaseError}
	default:
		return MappedError{Status: http.StatusInternalServerError, Message: MsgUnexpectedError}
	}
}
