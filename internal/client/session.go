package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"signvault/internal/model/requestresponse"
)

// Session : явное состояние аутентификации клиента, хранится в файле между запусками
type Session struct {
	mu   sync.RWMutex
	path string
	data sessionData
}

type sessionData struct {
	Token        string                        `json:"token"`
	RefreshToken string                        `json:"refreshToken"`
	User         *requestresponse.UserResponse `json:"user,omitempty"`
}

// LoadSession : отсутствующий файл означает пустую сессию. Пустой path отключает сохранение.
func LoadSession(path string) (*Session, error) {
	s := &Session{path: path}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[Session] ошибка чтения %s: %w", path, err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("[Session] файл сессии поврежден: %w", err)
	}
	return s, nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token != ""
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Token
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.RefreshToken
}

func (s *Session) User() *requestresponse.UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.User == nil {
		return nil
	}
	user := *s.data.User
	return &user
}

// Save : запоминает токены (и пользователя, если передан) и пишет файл
func (s *Session) Save(token, refreshToken string, user *requestresponse.UserResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Token = token
	s.data.RefreshToken = refreshToken
	if user != nil {
		u := *user
		s.data.User = &u
	}
	return s.persist()
}

// Clear : выход из аккаунта, файл сессии удаляется
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = sessionData{}
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("[Session] ошибка удаления %s: %w", s.path, err)
	}
	return nil
}

func (s *Session) persist() error {
	if s.path == "" {
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("[Session] ошибка сериализации: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("[Session] ошибка создания каталога: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("[Session] ошибка записи %s: %w", s.path, err)
	}
	return nil
}
