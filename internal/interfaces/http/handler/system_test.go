package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetclinic/backend/internal/interfaces/http/dto"
)

type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) Ping() error { return f.err }

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewSystemHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/system/info", nil)

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Vet Clinic Ledger API", data["name"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ready when database answers", func(t *testing.T) {
		h := NewSystemHandler(&fakeHealthChecker{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/ready", nil)

		h.Ready(c)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unavailable when database is down", func(t *testing.T) {
		h := NewSystemHandler(&fakeHealthChecker{err: errors.New("connection refused")})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/ready", nil)

		h.Ready(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
