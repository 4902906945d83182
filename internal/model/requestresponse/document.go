package requestresponse

import (
	"time"

	"signvault/internal/model"
)

// DocumentResponse : документ в JSON-ответе
type DocumentResponse struct {
	ID           string               `json:"id" example:"0b8f6c1e-3c55-4c1a-9d55-8f3ab1b7a2d1"`
	OwnerID      string               `json:"owner_id" example:"b6a1e1c4-4b1d-4f1e-8b29-1234567890ab"`
	Filename     string               `json:"filename" example:"users/b6a1.../documents/contract-1a2b3c4d.pdf"`
	OriginalName string               `json:"original_name" example:"contract.pdf"`
	FileURL      string               `json:"file_url" example:"https://s3.example.com/..."`
	Status       model.DocumentStatus `json:"status" example:"pending"`
	SizeBytes    int64                `json:"size_bytes" example:"48213"`
	SignerName   string               `json:"signer_name,omitempty" example:"Alice"`
	SignerEmail  string               `json:"signer_email,omitempty" example:"a@x.com"`
	RejectReason string               `json:"reject_reason,omitempty"`
	CompletedAt  string               `json:"completed_at,omitempty" example:"2025-08-23T12:40:00Z"`
	CreatedAt    string               `json:"created_at" example:"2025-08-23T12:34:56Z"`
}

// DocumentResponseFromModel : конвертирует model.Document в DocumentResponse
func DocumentResponseFromModel(doc *model.Document, getURL string) DocumentResponse {
	resp := DocumentResponse{
		ID:           doc.UUID,
		OwnerID:      doc.OwnerUUID,
		Filename:     doc.Filename,
		OriginalName: doc.OriginalName,
		FileURL:      getURL,
		Status:       doc.Status,
		SizeBytes:    doc.SizeBytes,
		SignerName:   deref(doc.SignerName),
		SignerEmail:  deref(doc.SignerEmail),
		RejectReason: deref(doc.RejectReason),
		CreatedAt:    doc.CreatedAt.UTC().Format(time.RFC3339),
	}
	if doc.CompletedAt != nil {
		resp.CompletedAt = doc.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// ListDocumentsResponse : список документов владельца
type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// SignatureResponse : место подписи на странице
type SignatureResponse struct {
	ID         string                `json:"id"`
	DocumentID string                `json:"document_id"`
	X          float64               `json:"x" example:"120.5"`
	Y          float64               `json:"y" example:"640"`
	Page       int                   `json:"page" example:"1"`
	Status     model.SignatureStatus `json:"status" example:"pending"`
}

// ListSignaturesResponse : места подписей документа
type ListSignaturesResponse struct {
	Signatures []SignatureResponse `json:"signatures"`
}

func SignatureResponseFromModel(sig *model.Signature) SignatureResponse {
	return SignatureResponse{
		ID:         sig.UUID,
		DocumentID: sig.DocumentUUID,
		X:          sig.X,
		Y:          sig.Y,
		Page:       sig.Page,
		Status:     sig.Status,
	}
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error string `json:"error" example:"Document not found"`
	Code  int    `json:"code" example:"404"`
}

// MessageResponse : ответ успешного выполнения операции
type MessageResponse struct {
	Message string `json:"message" example:"Document signed successfully"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
