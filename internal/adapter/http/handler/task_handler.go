package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	. "todolist/internal/adapter/http/helper"
	"todolist/internal/core/model/request"
	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
	. "todolist/pkg/tracing"
)

const (
	MsgInvalidUser   = "Invalid user"
	MsgInvalidTaskID = "Invalid task ID"
	MsgInvalidUserID = "Invalid user ID"
	MsgTaskDeleted   = "Task was successfully deleted"
)

type TaskHandler struct {
	svc     port.TaskService
	guard   port.AccessGuard
	metrics OperationRecorder
}

func NewTaskHandler(svc port.TaskService, guard port.AccessGuard, metrics OperationRecorder) *TaskHandler {
	return &TaskHandler{
		svc:     svc,
		guard:   guard,
		metrics: recorderOrNoop(metrics),
	}
}

func (t *TaskHandler) CreateTask(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.CreateTask",
		attribute.String("handler.path", c.FullPath()),
	)
	defer span.End()

	var params request.CreateTaskRequest

	if !bindJSON(c, &params) {
		return
	}

	user, ok, err := t.guard.CurrentUser(ctx)

	if err != nil {
		SendError(c, err)
		return
	}

	if !ok || (params.UserID != nil && *params.UserID != user.ID) {
		SendBadRequestError(c, MsgInvalidUser)
		return
	}

	task, err := t.svc.CreateTask(ctx, params.ToNewTask(), user)
	t.metrics.RecordTaskOperation(ctx, "create", err)

	if err != nil {
		AddSpanError(span, err)
		SendError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("task.id", task.ID))

	SendSuccess(c, http.StatusCreated, response.NewTaskResponse(task))
}

func (t *TaskHandler) GetTask(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id", MsgInvalidTaskID)

	if !ok {
		return
	}

	callerID, err := t.guard.CurrentUserID(ctx)

	if err != nil {
		SendError(c, err)
		return
	}

	task, err := t.svc.GetTaskByID(ctx, id)

	if err == nil {
		err = t.guard.RequireOwnership(task, callerID)
	}

	t.metrics.RecordTaskOperation(ctx, "get", err)

	if err != nil {
		SendError(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTaskResponse(task))
}

func (t *TaskHandler) ListUserTasks(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.ListUserTasks",
		attribute.String("handler.path", c.FullPath()),
	)
	defer span.End()

	userID, ok := pathID(c, "userId", MsgInvalidUserID)

	if !ok {
		return
	}

	callerID, err := t.guard.CurrentUserID(ctx)

	if err != nil {
		SendError(c, err)
		return
	}

	if err := t.guard.RequireSelf(userID, callerID); err != nil {
		SendError(c, err)
		return
	}

	tasks, err := t.svc.ListTasksForUser(ctx, userID)
	t.metrics.RecordTaskOperation(ctx, "list", err)

	if err != nil {
		AddSpanError(span, err)
		SendError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("task.count", len(tasks)))

	SendSuccess(c, http.StatusOK, response.NewTaskResponses(tasks))
}

func (t *TaskHandler) UpdateTask(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.task.UpdateTask",
		attribute.String("handler.path", c.FullPath()),
	)
	defer span.End()

	id, ok := pathID(c, "id", MsgInvalidTaskID)

	if !ok {
		return
	}

	callerID, err := t.guard.CurrentUserID(ctx)

	if err != nil {
		SendError(c, err)
		return
	}

	var params request.UpdateTaskRequest

	if !bindJSON(c, &params) {
		return
	}

	task, err := t.svc.UpdateTaskOwned(ctx, callerID, id, params.ToPatch())
	t.metrics.RecordTaskOperation(ctx, "update", err)

	if err != nil {
		AddSpanError(span, err)
		SendError(c, err)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTaskResponse(task))
}

func (t *TaskHandler) DeleteTask(c *gin.Context) {
	ctx := c.Request.Context()

	id, ok := pathID(c, "id", MsgInvalidTaskID)

	if !ok {
		return
	}

	callerID, err := t.guard.CurrentUserID(ctx)

	if err != nil {
		SendError(c, err)
		return
	}

	task, err := t.svc.GetTaskByID(ctx, id)

	if err == nil {
		err = t.guard.RequireOwnership(task, callerID)
	}

	if err == nil {
		err = t.svc.DeleteTask(ctx, id)
	}

	t.metrics.RecordTaskOperation(ctx, "delete", err)

	if err != nil {
		SendError(c, err)
		return
	}

	SendText(c, http.StatusOK, MsgTaskDeleted)
}
