package requestresponse

import "signvault/internal/model"

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100" example:"Alice Doe"`
	Email    string `json:"email" validate:"required,email,max=254" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"P@ssw0rd123"`
}

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"P@ssw0rd123"`
}

// AuthResponse : ответ на успешную регистрацию или вход
type AuthResponse struct {
	Token        string       `json:"token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string       `json:"refreshToken" example:"vcSi0369y1I62wOpxZFpgZ..."`
	User         UserResponse `json:"user"`
}

// RefreshTokenRequest : запрос на обновление пары токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required" example:"vcSi0369y1I62wOpxZFpgZ..."`
}

// RefreshTokenResponse : новая пара токенов
type RefreshTokenResponse struct {
	Token        string `json:"token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refreshToken" example:"sfuqwejqjoiu93e29"`
}

// UserResponse : публичные данные пользователя
type UserResponse struct {
	ID    string `json:"id" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Name  string `json:"name" example:"Alice Doe"`
	Email string `json:"email" example:"alice@example.com"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	User UserResponse `json:"user"`
}

func UserResponseFromModel(user *model.User) UserResponse {
	return UserResponse{
		ID:    user.UUID,
		Name:  user.Name,
		Email: user.Email,
	}
}
