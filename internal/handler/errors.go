package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"

	"signvault/internal/model"
	"signvault/internal/util"
)

// errorMessages : тексты ошибок для клиента в контексте конкретного обработчика
type errorMessages map[error]string

var errorStatuses = []struct {
	err     error
	status  int
	message string
}{
	{model.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{model.ErrForbidden, http.StatusForbidden, "Access denied"},
	{model.ErrNotFound, http.StatusNotFound, "Not found"},
	{model.ErrConflict, http.StatusConflict, "Conflict"},
	{model.ErrGone, http.StatusGone, "This signing link has expired"},
	{model.ErrTooLarge, http.StatusRequestEntityTooLarge, "File is too large"},
}

// writeServiceError : сопоставляет категорию ошибки сервиса со статусом ответа
func writeServiceError(w http.ResponseWriter, err error, messages errorMessages) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		util.HandleError(w, validationErr.Message, http.StatusBadRequest)
		return
	}

	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			message := e.message
			if override, ok := messages[e.err]; ok {
				message = override
			}
			slog.Debug("[Handler] ошибка запроса", "status", e.status, "error", err)
			util.HandleError(w, message, e.status)
			return
		}
	}

	slog.Error("[Handler] внутренняя ошибка сервера", "error", err)
	util.HandleError(w, "Internal server error", http.StatusInternalServerError)
}

// decodeJSON : пустое тело считается пустым объектом
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.NewValidationError("", "Invalid JSON body")
	}
	return nil
}

// clientIP : адрес без порта, RemoteAddr уже переписан middleware.RealIP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
