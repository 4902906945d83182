package model

import "time"

type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusPending  DocumentStatus = "pending"
	StatusSigned   DocumentStatus = "signed"
	StatusRejected DocumentStatus = "rejected"
)

// transitions : единственные допустимые переходы статуса документа
var transitions = map[DocumentStatus][]DocumentStatus{
	StatusUploaded: {StatusPending},
	StatusPending:  {StatusSigned, StatusRejected},
}

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusPending, StatusSigned, StatusRejected:
		return true
	}
	return false
}

// Terminal : signed и rejected, дальше документ не меняется
func (s DocumentStatus) Terminal() bool {
	return s == StatusSigned || s == StatusRejected
}

func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Document struct {
	UUID         string         `db:"uuid" json:"id"`
	OwnerUUID    string         `db:"owner_uuid" json:"owner_id"`
	Filename     string         `db:"filename" json:"filename"`
	OriginalName string         `db:"original_name" json:"original_name"`
	MimeType     string         `db:"mime_type" json:"mime_type"`
	SizeBytes    int64          `db:"size_bytes" json:"size_bytes"`
	Sha256       string         `db:"sha256" json:"sha256"`
	Status       DocumentStatus `db:"status" json:"status"`
	SignerName   *string        `db:"signer_name" json:"signer_name,omitempty"`
	SignerEmail  *string        `db:"signer_email" json:"signer_email,omitempty"`
	RejectReason *string        `db:"reject_reason" json:"reject_reason,omitempty"`
	CompletedAt  *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Completion : данные, которые фиксируются при подписании или отклонении
type Completion struct {
	Status       DocumentStatus
	SignerName   string
	SignerEmail  string
	RejectReason string
	CompletedAt  time.Time
}

type GetDocumentResult struct {
	Document *Document
	GetURL   string // pre-signed GET URL на файл в S3
}
