package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"signvault/internal/model"
	"signvault/internal/model/requestresponse"
	"signvault/internal/ports"
	"signvault/internal/security"
	"signvault/internal/util"
)

// shareParam : один параметр на /api/share/{id}, для POST это UUID документа, для остальных токен
const shareParam = "id"

var shareMessages = errorMessages{
	model.ErrNotFound: "Invalid or expired signing link",
	model.ErrConflict: "This document has already been signed or rejected",
	model.ErrGone:     "This signing link has expired",
}

type ShareHandler struct {
	ports.ShareService
}

func NewShareHandler(shareService ports.ShareService) *ShareHandler {
	return &ShareHandler{shareService}
}

// CreateShareLink godoc
// @Summary Создание ссылки для подписания
// @Description Выдает одноразовый токен и переводит документ в pending
// @Tags Share
// @Accept json
// @Produce json
// @Param id path string true "UUID документа"
// @Param body body requestresponse.CreateShareRequest false "Email подписанта"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateShareResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse "Документ уже подписан или отклонен"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/share/{id} [post]
func (h *ShareHandler) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	var req requestresponse.CreateShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeServiceError(w, err, nil)
		return
	}

	link, err := h.ShareService.CreateShareLink(r.Context(), chi.URLParam(r, shareParam), claims.UserUUID, req.SignerEmail)
	if err != nil {
		writeServiceError(w, err, errorMessages{
			model.ErrNotFound: "Document not found",
			model.ErrConflict: "Document is already signed or rejected",
		})
		return
	}

	util.WriteJSON(w, http.StatusCreated, requestresponse.CreateShareResponse{
		ShareLink: link.URL,
		Token:     link.Token,
	})
}

// ListShares godoc
// @Summary Выданные ссылки документа
// @Tags Share
// @Produce json
// @Param doc_id path string true "UUID документа"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListSharesResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/docs/{doc_id}/shares [get]
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		writeServiceError(w, err, nil)
		return
	}

	tokens, err := h.ShareService.ListShares(r.Context(), chi.URLParam(r, "doc_id"), claims.UserUUID)
	if err != nil {
		writeServiceError(w, err, errorMessages{model.ErrNotFound: "Document not found"})
		return
	}

	resp := requestresponse.ListSharesResponse{
		Shares: make([]requestresponse.ShareTokenResponse, 0, len(tokens)),
	}
	for i := range tokens {
		resp.Shares = append(resp.Shares, requestresponse.ShareTokenResponseFromModel(&tokens[i]))
	}

	util.WriteJSON(w, http.StatusOK, resp)
}

// ResolveShare godoc
// @Summary Документ по ссылке для подписания
// @Description Публичный маршрут. Подписанный или отклоненный документ тоже возвращается.
// @Tags Share
// @Produce json
// @Param id path string true "Токен ссылки"
// @Success 200 {object} requestresponse.ResolveShareResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 410 {object} requestresponse.ErrorResponse "Срок ссылки истек"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/share/{id} [get]
func (h *ShareHandler) ResolveShare(w http.ResponseWriter, r *http.Request) {
	view, err := h.ShareService.ResolveShare(r.Context(), chi.URLParam(r, shareParam))
	if err != nil {
		writeServiceError(w, err, shareMessages)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.ResolveShareResponse{
		Document:    requestresponse.DocumentResponseFromModel(view.Document, view.GetURL),
		SignerEmail: view.SignerEmail,
	})
}

// SignDocument godoc
// @Summary Подписание документа
// @Description Публичный маршрут. Токен одноразовый.
// @Tags Share
// @Accept json
// @Produce json
// @Param id path string true "Токен ссылки"
// @Param body body requestresponse.SignRequest true "Имя и email подписанта"
// @Success 200 {object} requestresponse.MessageResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse "Документ уже подписан или отклонен"
// @Failure 410 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/share/{id}/sign [post]
func (h *ShareHandler) SignDocument(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.SignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeServiceError(w, err, nil)
		return
	}

	if _, err := h.ShareService.Sign(r.Context(), chi.URLParam(r, shareParam), req.SignerName, req.SignerEmail); err != nil {
		writeServiceError(w, err, shareMessages)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.MessageResponse{Message: "Document signed successfully"})
}

// RejectDocument godoc
// @Summary Отклонение документа
// @Description Публичный маршрут. Причина необязательна.
// @Tags Share
// @Accept json
// @Produce json
// @Param id path string true "Токен ссылки"
// @Param body body requestresponse.RejectRequest false "Причина"
// @Success 200 {object} requestresponse.MessageResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Failure 410 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/share/{id}/reject [post]
func (h *ShareHandler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, nil)
		return
	}
	if err := util.ValidateStruct(req); err != nil {
		writeServiceError(w, err, nil)
		return
	}

	if _, err := h.ShareService.Reject(r.Context(), chi.URLParam(r, shareParam), req.Reason); err != nil {
		writeServiceError(w, err, shareMessages)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.MessageResponse{Message: "Document rejected"})
}
