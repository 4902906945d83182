package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"signvault/internal/model"
	"signvault/internal/model/requestresponse"
	"signvault/internal/ports"
	"signvault/internal/security"
	"signvault/internal/util"
)

// multipartOverhead : запас на заголовки multipart сверх размера файла
const multipartOverhead = 1 << 20

type DocumentHandler struct {
	ports.DocumentService
	maxUploadSize int64
}

func NewDocumentHandler(documentService ports.DocumentService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{documentService, maxUploadSize}
}

func (h *DocumentHandler) tooLargeMessage() string {
	return fmt.Sprintf("File is too large, maximum size is %s", humanize.IBytes(uint64(h.maxUploadSize)))
}

// UploadDocument godoc
// @Summary Загрузка PDF документа
// @Description Принимает multipart/form-data с полем file. Допускаются только PDF.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF файл"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.DocumentResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Файл отсутствует или не PDF"
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 413 {object} requestresponse.ErrorResponse "Файл больше допустимого размера"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/docs/upload [post]
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			util.HandleError(w, h.tooLargeMessage(), http.StatusRequestEntityTooLarge)
			return
		}
		util.HandleError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		util.HandleError(w, "File is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.DocumentService.Upload(r.Context(), claims.UserUUID, ports.UploadedFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		writeServiceError(w, err, errorMessages{model.ErrTooLarge: h.tooLargeMessage()})
		return
	}

	util.WriteJSON(w, http.StatusCreated, requestresponse.DocumentResponseFromModel(result.Document, result.GetURL))
}

// ListDocuments godoc
// @Summary Документы текущего пользователя
// @Description Новые документы первыми
// @Tags Documents
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListDocumentsResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/docs [get]
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	results, err := h.DocumentService.ListDocuments(r.Context(), claims.UserUUID)
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	resp := requestresponse.ListDocumentsResponse{
		Documents: make([]requestresponse.DocumentResponse, 0, len(results)),
	}
	for _, result := range results {
		resp.Documents = append(resp.Documents, requestresponse.DocumentResponseFromModel(result.Document, result.GetURL))
	}

	util.WriteJSON(w, http.StatusOK, resp)
}

// GetDocument godoc
// @Summary Получение документа по ID
// @Description Метаданные документа и pre-signed ссылка на файл
// @Tags Documents
// @Produce json
// @Param doc_id path string true "UUID документа"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.DocumentResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/docs/{doc_id} [get]
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	result, err := h.DocumentService.GetDocument(r.Context(), chi.URLParam(r, "doc_id"), claims.UserUUID)
	if err != nil {
		writeServiceError(w, err, errorMessages{model.ErrNotFound: "Document not found"})
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.DocumentResponseFromModel(result.Document, result.GetURL))
}

// DeleteDocument godoc
// @Summary Удаление документа
// @Tags Documents
// @Param doc_id path string true "UUID документа"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 204
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/docs/{doc_id} [delete]
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	if err := h.DocumentService.DeleteDocument(r.Context(), chi.URLParam(r, "doc_id"), claims.UserUUID); err != nil {
		writeServiceError(w, err, errorMessages{model.ErrNotFound: "Document not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSignatures godoc
// @Summary Места подписей документа
// @Tags Documents
// @Produce json
// @Param doc_id path string true "UUID документа"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListSignaturesResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/docs/{doc_id}/signatures [get]
func (h *DocumentHandler) ListSignatures(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	signatures, err := h.DocumentService.ListSignatures(r.Context(), chi.URLParam(r, "doc_id"), claims.UserUUID)
	if err != nil {
		writeServiceError(w, err, errorMessages{model.ErrNotFound: "Document not found"})
		return
	}

	resp := requestresponse.ListSignaturesResponse{
		Signatures: make([]requestresponse.SignatureResponse, 0, len(signatures)),
	}
	for i := range signatures {
		resp.Signatures = append(resp.Signatures, requestresponse.SignatureResponseFromModel(&signatures[i]))
	}

	util.WriteJSON(w, http.StatusOK, resp)
}
