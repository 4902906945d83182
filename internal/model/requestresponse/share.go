package requestresponse

import (
	"time"

	"signvault/internal/model"
)

// CreateShareRequest : тело запроса на создание ссылки для подписания
type CreateShareRequest struct {
	SignerEmail string `json:"signerEmail" validate:"omitempty,email,max=254" example:"signer@example.com"`
}

// CreateShareResponse : ссылка для подписанта
type CreateShareResponse struct {
	ShareLink string `json:"shareLink" example:"https://sign.example.com/sign/4f9c..."`
	Token     string `json:"token" example:"4f9c..."`
}

// ResolveShareResponse : документ, открытый по ссылке
type ResolveShareResponse struct {
	Document    DocumentResponse `json:"document"`
	SignerEmail string           `json:"signerEmail,omitempty" example:"signer@example.com"`
}

// SignRequest : подписание документа
type SignRequest struct {
	SignerName  string `json:"signerName" validate:"required,max=200" example:"Alice"`
	SignerEmail string `json:"signerEmail" validate:"required,email,max=254" example:"a@x.com"`
}

// RejectRequest : отклонение документа, причина необязательна
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000" example:"Wrong amount in section 3"`
}

// ShareTokenResponse : выданная ссылка в списке владельца
type ShareTokenResponse struct {
	Token       string `json:"token"`
	SignerEmail string `json:"signerEmail,omitempty"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	Consumed    bool   `json:"consumed"`
}

// ListSharesResponse : все ссылки документа
type ListSharesResponse struct {
	Shares []ShareTokenResponse `json:"shares"`
}

func ShareTokenResponseFromModel(token *model.ShareToken) ShareTokenResponse {
	resp := ShareTokenResponse{
		Token:       token.Token,
		SignerEmail: deref(token.SignerEmail),
		CreatedAt:   token.CreatedAt.UTC().Format(time.RFC3339),
		Consumed:    token.Consumed(),
	}
	if token.ExpiresAt != nil {
		resp.ExpiresAt = token.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}
