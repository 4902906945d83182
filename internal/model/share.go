package model

import "time"

// ShareToken : одноразовый bearer-токен для внешнего подписанта
type ShareToken struct {
	Token        string     `db:"token" json:"token"`
	DocumentUUID string     `db:"document_uuid" json:"document_id"`
	SignerEmail  *string    `db:"signer_email" json:"signer_email,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	ConsumedAt   *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
}

func (t *ShareToken) Consumed() bool {
	return t.ConsumedAt != nil
}

func (t *ShareToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

type ShareLink struct {
	Token string
	URL   string
}

// ShareView : то, что видит подписант по ссылке
type ShareView struct {
	Document    *Document
	GetURL      string
	SignerEmail string
}
