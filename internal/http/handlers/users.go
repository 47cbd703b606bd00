package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	msgUserExists         = "User already exists."
	msgInvalidCredentials = "Invalid credentials."
	msgUserNotFound       = "User not found."
	msgCreateFailed       = "Could not create user."
	msgLoginFailed        = "Could not log in."
	msgFetchFailed        = "Could not fetch user."
)

type UsersService interface {
	Register(ctx context.Context, in service.RegisterInput) (user.PublicUser, error)
	Login(ctx context.Context, in service.LoginInput) (user.PublicUser, error)
	GetByID(ctx context.Context, id string) (user.PublicUser, error)
}

type UsersHandler struct {
	users UsersService
}

func NewUsersHandler(users UsersService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Register: 201 with the public user, 400 for every failure.
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req, http.StatusBadRequest) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.Register(cctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})

	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			RespondFailure(ctx, http.StatusBadRequest, msgUserExists)
		case errors.Is(err, user.ErrValidation):
			RespondFailure(ctx, http.StatusBadRequest, msgInvalidBody)
		default:
			RespondFailure(ctx, http.StatusBadRequest, msgCreateFailed)
		}
		return
	}

	RespondSuccess(ctx, http.StatusCreated, u)
}

// Login: 200 with the public user, 401 for every failure. Unknown email and
// wrong password share one message.
func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req, http.StatusUnauthorized) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.Login(cctx, service.LoginInput{Email: req.Email, Password: req.Password})

	if err != nil {
		if errors.Is(err, user.ErrPersistence) {
			RespondFailure(ctx, http.StatusUnauthorized, msgLoginFailed)
			return
		}
		RespondFailure(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	RespondSuccess(ctx, http.StatusOK, u)
}

// GetUserByID: 200 with the public user (ETag aware), 404 for every failure.
func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondFailure(ctx, http.StatusNotFound, msgUserNotFound)
			return
		}
		RespondFailure(ctx, http.StatusNotFound, msgFetchFailed)
		return
	}

	respondUser(ctx, u)
}
