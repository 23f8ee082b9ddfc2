package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/response"
)

const MsgInternalServerError = "Internal Server Error"

func SendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

func SendText(c *gin.Context, statusCode int, message string) {
	c.String(statusCode, message)
}

// StatusOf maps an error onto the HTTP status of its kind.
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// SendError writes the {status, message} body for err. Internal errors are
// attached to the context for the request logger and never shown.
func SendError(c *gin.Context, err error) {
	status := StatusOf(err)
	message := MsgInternalServerError

	var e *domain.Error

	if status != http.StatusInternalServerError && errors.As(err, &e) {
		message = e.Message
	} else {
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, response.ErrorResponse{
		Status:  status,
		Message: message,
	})
}

func SendErrorStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, response.ErrorResponse{
		Status:  status,
		Message: message,
	})
}

func SendBadRequestError(c *gin.Context, message string) {
	SendErrorStatus(c, http.StatusBadRequest, message)
}

func SendUnauthorizedError(c *gin.Context, message string) {
	SendErrorStatus(c, http.StatusUnauthorized, message)
}
