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

type AuthHandler struct {
	svc     port.AuthService
	metrics OperationRecorder
}

func NewAuthHandler(svc port.AuthService, metrics OperationRecorder) *AuthHandler {
	return &AuthHandler{
		svc:     svc,
		metrics: recorderOrNoop(metrics),
	}
}

func (a *AuthHandler) Register(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.auth.Register",
		attribute.String("handler.path", c.FullPath()),
	)
	defer span.End()

	var params request.RegisterRequest

	if !bindJSON(c, &params) {
		return
	}

	user, token, err := a.svc.Register(ctx, params.Name, params.Email, params.Password)
	a.metrics.RecordAuthOperation(ctx, "register", err)

	if err != nil {
		AddSpanError(span, err)
		SendError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))

	SendSuccess(c, http.StatusCreated, response.NewAuthResponse(user, token))
}

func (a *AuthHandler) Login(c *gin.Context) {
	ctx, span := CreateChildSpan(c.Request.Context(), "handler.auth.Login",
		attribute.String("handler.path", c.FullPath()),
	)
	defer span.End()

	var params request.LoginRequest

	if !bindJSON(c, &params) {
		return
	}

	user, token, err := a.svc.Login(ctx, params.Email, params.Password)
	a.metrics.RecordAuthOperation(ctx, "login", err)

	if err != nil {
		AddSpanError(span, err)
		SendError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))

	SendSuccess(c, http.StatusOK, response.NewAuthResponse(user, token))
}
