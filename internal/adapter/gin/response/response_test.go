package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	body := NewError(http.StatusConflict, "Email already exists: a@b.co", "/api/v1/users", nil)

	assert.Equal(t, 409, body.Status)
	assert.Equal(t, "Conflict", body.Error)
	assert.Equal(t, "/api/v1/users", body.Path)
	assert.Nil(t, body.FieldErrors)

	ts, err := time.Parse(time.RFC3339Nano, body.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, body.Timestamp)
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, http.StatusBadRequest, "Validation failed", map[string]string{"age": "Age is required"})
		c.String(http.StatusOK, "unreachable")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "/boom", body.Path)
	assert.Equal(t, map[string]string{"age": "Age is required"}, body.FieldErrors)
}

func TestErrorResponse_OmitsEmptyFieldErrors(t *testing.T) {
	data, err := json.Marshal(NewError(http.StatusNotFound, "User not found with id: 1", "/api/v1/users/1", nil))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "fieldErrors")
}
