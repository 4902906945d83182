package handler

import (
	"net/http"

	"signvault/internal/model"
	"signvault/internal/model/requestresponse"
	"signvault/internal/ports"
	"signvault/internal/security"
	"signvault/internal/util"
)

type UserHandler struct {
	ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService}
}

// RegisterUser godoc
// @Summary Регистрация нового пользователя
// @Description Создает пользователя и сразу возвращает пару токенов
// @Tags Users
// @Accept json
// @Produce json
// @Param body body requestresponse.RegisterRequest true "Тело запроса"
// @Success 201 {object} requestresponse.AuthResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse "Email уже зарегистрирован"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/register [post]
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeServiceError(w, err, nil)
		return
	}

	user, tokens, err := h.UserService.Register(r.Context(), req.Name, req.Email, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeServiceError(w, err, errorMessages{model.ErrConflict: "Email is already registered"})
		return
	}

	util.WriteJSON(w, http.StatusCreated, requestresponse.AuthResponse{
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         requestresponse.UserResponseFromModel(user),
	})
}

// GetCurrentUser godoc
// @Summary Текущий пользователь
// @Tags Users
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/me [get]
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	user, err := h.UserService.GetUser(r.Context(), claims.UserUUID)
	if err != nil {
		// пользователь из валидного токена пропал из БД
		writeServiceError(w, err, errorMessages{model.ErrNotFound: "User not found"})
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.CurrentUserResponse{
		User: requestresponse.UserResponseFromModel(user),
	})
}
