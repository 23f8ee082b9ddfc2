package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/adapter/http/validation"
	"todolist/internal/core/domain"
)

const (
	MsgInvalidBody    = "Invalid request body"
	MsgInvalidDueDate = "Invalid due date, expected YYYY-MM-DD"
	MsgBodyTooLarge   = "Request body too large"
)

// OperationRecorder counts handled operations by outcome.
type OperationRecorder interface {
	RecordTaskOperation(ctx context.Context, operation string, err error)
	RecordAuthOperation(ctx context.Context, operation string, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordTaskOperation(context.Context, string, error) {}
func (noopRecorder) RecordAuthOperation(context.Context, string, error) {}

func recorderOrNoop(metrics OperationRecorder) OperationRecorder {
	if metrics == nil {
		return noopRecorder{}
	}

	return metrics
}

// bindJSON decodes and validates the body into v. On failure the error
// response has been written and false is returned.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError

		switch {
		case errors.As(err, &tooLarge):
			SendErrorStatus(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
		case errors.Is(err, domain.ErrInvalidDate):
			SendBadRequestError(c, MsgInvalidDueDate)
		default:
			SendBadRequestError(c, MsgInvalidBody)
		}

		return false
	}

	if err := validation.Validate(v); err != nil {
		SendError(c, err)
		return false
	}

	return true
}

func pathID(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)

	if err != nil || id <= 0 {
		SendBadRequestError(c, message)
		return 0, false
	}

	return id, true
}
