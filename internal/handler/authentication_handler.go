package handler

import (
	"net/http"

	"signvault/internal/model"
	"signvault/internal/model/requestresponse"
	"signvault/internal/ports"
	"signvault/internal/security"
	"signvault/internal/util"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
}

func NewAuthenticationHandler(authenticationService ports.AuthenticationService) *AuthenticationHandler {
	return &AuthenticationHandler{authenticationService}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение пары токенов по email и паролю
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса"
// @Success 200 {object} requestresponse.AuthResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля"
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный email или пароль"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeServiceError(w, err, nil)
		return
	}

	user, tokens, err := h.AuthenticationService.Login(r.Context(), req.Email, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeServiceError(w, err, errorMessages{model.ErrUnauthorized: "Invalid email or password"})
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.AuthResponse{
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         requestresponse.UserResponseFromModel(user),
	})
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Обновляет пару токенов. Access токен может быть просрочен, refresh токен одноразовый.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.RefreshTokenResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := security.BearerToken(r)
	if !ok {
		util.HandleError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req requestresponse.RefreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeServiceError(w, err, nil)
		return
	}

	tokensPair, err := h.AuthenticationService.RefreshToken(r.Context(), r.UserAgent(), clientIP(r), accessToken, req.RefreshToken)
	if err != nil {
		writeServiceError(w, err, errorMessages{model.ErrUnauthorized: "Session expired, please log in again"})
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.RefreshTokenResponse{
		Token:        tokensPair.AccessToken,
		RefreshToken: tokensPair.RefreshToken,
	})
}

// Logout godoc
// @Summary Завершение сессии
// @Description Помечает refresh токен использованным, access токены этой сессии перестают работать
// @Tags Authentication
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 204
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/auth/logout [post]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	if err := h.AuthenticationService.Logout(r.Context(), claims.RefreshTokenUUID); err != nil {
		writeServiceError(w, err, errorMessages{model.ErrNotFound: "Session already closed"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
