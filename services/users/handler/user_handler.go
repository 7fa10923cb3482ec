package handler

import (
	"context"
	"fmt"
	"net/http"

	model "auction-house/internal/models"
	users "auction-house/internal/userService"
	"auction-house/services/users/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=user_handler.go -destination=mock_service.go -package=handler

type UserServiceInterface interface {
	Register(ctx context.Context, params users.RegisterParams) (model.User, string, error)
	Login(ctx context.Context, email, password string) (model.User, string, error)
}

type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterUserHandler handles POST /users
func (h *UserHandler) RegisterUserHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterUserHandler", err)
		return
	}

	user, signed, err := h.service.Register(c.Request.Context(), users.RegisterParams{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("RegisterUserHandler: registration failed", map[string]any{"email": req.Email, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuthResponse(user, signed), "user registered successfully")
	utils.Info("RegisterUserHandler: user registered successfully", map[string]any{"user_id": user.UserID})
}

// LoginUserHandler handles POST /users/login
func (h *UserHandler) LoginUserHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginUserHandler", err)
		return
	}

	user, signed, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("LoginUserHandler: login failed", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuthResponse(user, signed), "login successful")
	utils.Info("LoginUserHandler: login successful", map[string]any{"user_id": user.UserID})
}
