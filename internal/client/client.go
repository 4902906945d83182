package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"signvault/internal/model/requestresponse"
	"signvault/internal/util"
)

// ErrNotAuthenticated : запрос владельца без активной сессии, в сеть не уходит
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError : ответ сервера не 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

// Register : валидирует форму, создает аккаунт и сохраняет сессию
func (c *Client) Register(ctx context.Context, form RegisterForm) (*requestresponse.UserResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var resp requestresponse.AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", requestresponse.RegisterRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	}, false, &resp, "Registration failed.")
	if err != nil {
		return nil, err
	}

	return &resp.User, c.session.Save(resp.Token, resp.RefreshToken, &resp.User)
}

func (c *Client) Login(ctx context.Context, form LoginForm) (*requestresponse.UserResponse, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var resp requestresponse.AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", requestresponse.LoginRequest{
		Email:    form.Email,
		Password: form.Password,
	}, false, &resp, "Login failed. Try again.")
	if err != nil {
		return nil, err
	}

	return &resp.User, c.session.Save(resp.Token, resp.RefreshToken, &resp.User)
}

// Refresh : меняет пару токенов, пользователь в сессии остается прежним
func (c *Client) Refresh(ctx context.Context) error {
	var resp requestresponse.RefreshTokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", requestresponse.RefreshTokenRequest{
		RefreshToken: c.session.RefreshToken(),
	}, true, &resp, "Session refresh failed.")
	if err != nil {
		return err
	}
	return c.session.Save(resp.Token, resp.RefreshToken, nil)
}

// Logout : локальная сессия очищается даже при ошибке сервера
func (c *Client) Logout(ctx context.Context) error {
	serverErr := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, true, nil, "Logout failed.")
	if err := c.session.Clear(); err != nil {
		return err
	}
	if errors.Is(serverErr, ErrNotAuthenticated) {
		return nil
	}
	return serverErr
}

func (c *Client) Me(ctx context.Context) (*requestresponse.UserResponse, error) {
	var resp requestresponse.CurrentUserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, true, &resp, "Failed to load profile."); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) ListDocuments(ctx context.Context) ([]requestresponse.DocumentResponse, error) {
	var resp requestresponse.ListDocumentsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/docs", nil, true, &resp, "Failed to load documents."); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) GetDocument(ctx context.Context, documentID string) (*requestresponse.DocumentResponse, error) {
	var resp requestresponse.DocumentResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/docs/"+url.PathEscape(documentID), nil, true, &resp, "Failed to load document."); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/docs/"+url.PathEscape(documentID), nil, true, nil, "Failed to delete document.")
}

// Upload : contentType как у выбранного файла, пустой если неизвестен
func (c *Client) Upload(ctx context.Context, filename, contentType string, content []byte) (*requestresponse.DocumentResponse, error) {
	if err := ValidateUpload(contentType, content); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", util.PDFMimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("[Client] ошибка формирования multipart: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("[Client] ошибка формирования multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("[Client] ошибка формирования multipart: %w", err)
	}

	var resp requestresponse.DocumentResponse
	if err := c.do(ctx, http.MethodPost, "/api/docs/upload", body, writer.FormDataContentType(), true, &resp, "Upload failed."); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateShareLink(ctx context.Context, documentID, signerEmail string) (*requestresponse.CreateShareResponse, error) {
	var resp requestresponse.CreateShareResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/share/"+url.PathEscape(documentID), requestresponse.CreateShareRequest{
		SignerEmail: signerEmail,
	}, true, &resp, "Failed to create share link.")
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListShares(ctx context.Context, documentID string) ([]requestresponse.ShareTokenResponse, error) {
	var resp requestresponse.ListSharesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/docs/"+url.PathEscape(documentID)+"/shares", nil, true, &resp, "Failed to load share links."); err != nil {
		return nil, err
	}
	return resp.Shares, nil
}

func (c *Client) ListSignatures(ctx context.Context, documentID string) ([]requestresponse.SignatureResponse, error) {
	var resp requestresponse.ListSignaturesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/docs/"+url.PathEscape(documentID)+"/signatures", nil, true, &resp, "Failed to load signatures."); err != nil {
		return nil, err
	}
	return resp.Signatures, nil
}

// ResolveShare : публичный запрос, сессия не нужна
func (c *Client) ResolveShare(ctx context.Context, token string) (*requestresponse.ResolveShareResponse, error) {
	var resp requestresponse.ResolveShareResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/share/"+url.PathEscape(token), nil, false, &resp, "Invalid or expired link."); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Sign(ctx context.Context, token, signerName, signerEmail string) (string, error) {
	if err := ValidateSign(signerName, signerEmail); err != nil {
		return "", err
	}

	var resp requestresponse.MessageResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/share/"+url.PathEscape(token)+"/sign", requestresponse.SignRequest{
		SignerName:  signerName,
		SignerEmail: signerEmail,
	}, false, &resp, "Failed to sign.")
	return resp.Message, err
}

func (c *Client) Reject(ctx context.Context, token, reason string) (string, error) {
	var resp requestresponse.MessageResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/share/"+url.PathEscape(token)+"/reject", requestresponse.RejectRequest{
		Reason: reason,
	}, false, &resp, "Failed to reject.")
	return resp.Message, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, authenticated bool, out any, fallback string) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("[Client] ошибка сериализации запроса: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, authenticated, out, fallback)
}

// do : fallback становится сообщением APIError, если сервер не прислал свое
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, authenticated bool, out any, fallback string) error {
	token := c.session.AccessToken()
	if authenticated && token == "" {
		return ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("[Client] ошибка создания запроса: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("[Client] %s: %w", fallback, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: fallback}
		var errResp requestresponse.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&errResp); err == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		if authenticated && resp.StatusCode == http.StatusUnauthorized {
			if err := c.session.Clear(); err != nil {
				return errors.Join(apiErr, err)
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("[Client] ошибка разбора ответа: %w", err)
	}
	return nil
}
