package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/response"
)

func send(err error) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)

	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	SendError(c, err)
	return rr, c
}

func TestSendError_MapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{domain.NewValidationError("Missing name"), http.StatusBadRequest, "Missing name"},
		{domain.NewAuthenticationError("Unauthenticated"), http.StatusUnauthorized, "Unauthenticated"},
		{domain.NewAuthorizationError("Incorrect password"), http.StatusForbidden, "Incorrect password"},
		{domain.NewNotFoundError("Cannot find task with ID 3"), http.StatusNotFound, "Cannot find task with ID 3"},
		{fmt.Errorf("wrapped: %w", domain.NewNotFoundError("gone")), http.StatusNotFound, "gone"},
	}

	for _, tc := range cases {
		rr, c := send(tc.err)

		var body response.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

		assert.Equal(t, tc.status, rr.Code)
		assert.Equal(t, tc.status, body.Status)
		assert.Equal(t, tc.message, body.Message)
		assert.Empty(t, c.Errors)
		assert.True(t, c.IsAborted())
	}
}

func TestSendError_HidesInternalCause(t *testing.T) {
	cause := errors.New("database is locked")

	rr, c := send(fmt.Errorf("listing tasks: %w", cause))

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, MsgInternalServerError, body.Message)
	assert.NotContains(t, rr.Body.String(), "locked")
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, cause)
}
