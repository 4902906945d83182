package model

import "time"

// SignatureStatus : статус места подписи, у него нет состояния uploaded
type SignatureStatus string

const (
	SignatureStatusPending  SignatureStatus = "pending"
	SignatureStatusSigned   SignatureStatus = "signed"
	SignatureStatusRejected SignatureStatus = "rejected"
)

func (s SignatureStatus) Valid() bool {
	switch s {
	case SignatureStatusPending, SignatureStatusSigned, SignatureStatusRejected:
		return true
	}
	return false
}

// Signature : место подписи на странице документа. Пока только хранится и отдаётся владельцу.
type Signature struct {
	UUID         string          `db:"uuid" json:"id"`
	DocumentUUID string          `db:"document_uuid" json:"document_id"`
	X            float64         `db:"x" json:"x"`
	Y            float64         `db:"y" json:"y"`
	Page         int             `db:"page" json:"page"`
	Status       SignatureStatus `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
