// Пакет session — локальная сессия пользователя портала.
// Токен и снимок текущего пользователя хранятся в файле, зашифрованном
// AES-256-GCM. Store — единственная точка чтения токена и id пользователя
// для остальных пакетов.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Роли пользователя портала.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// ErrInvalidToken — токен не является JWT.
var ErrInvalidToken = errors.New("некорректный токен")

// User — снимок текущего пользователя.
type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// data — содержимое файла сессии.
type data struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
	// ExpiresAt — exp токена (Unix), 0 если claim отсутствует
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// Store — сессия, сохраняемая в зашифрованный файл.
type Store struct {
	path   string
	gcm    cipher.AEAD
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *data
}

// Open открывает хранилище сессии.
// key — base64 32-байтовый ключ или произвольная строка (хешируется SHA-256).
// Пустой key — случайный ключ: сессия не переживёт перезапуск.
// Повреждённый или нечитаемый файл не является ошибкой: сессия начинается пустой.
func Open(path, key string, logger *slog.Logger) (*Store, error) {
	logger = logger.With(slog.String("component", "session"))

	keyBytes, err := deriveKey(key)
	if err != nil {
		return nil, err
	}
	if key == "" {
		logger.Warn("Ключ сессии не задан, используется случайный ключ")
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	s := &Store{
		path:   path,
		gcm:    gcm,
		logger: logger,
		now:    time.Now,
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("чтение файла сессии %s: %w", path, err)
	}

	d, err := s.decrypt(raw)
	if err != nil {
		logger.Warn("Файл сессии не удалось расшифровать, сессия сброшена",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return s, nil
	}
	s.current = d
	return s, nil
}

// Save сохраняет токен и пользователя.
// Если user nil или без id, id берётся из claim userId (или sub) токена.
func (s *Store) Save(token string, user *User) error {
	claims, err := parseClaims(token)
	if err != nil {
		return err
	}

	d := &data{Token: token}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		d.ExpiresAt = exp.Unix()
	}

	if user != nil {
		u := *user
		d.User = &u
	}
	if d.User == nil || d.User.ID == 0 {
		if id, ok := claimUserID(claims); ok {
			if d.User == nil {
				d.User = &User{}
			}
			d.User.ID = id
		}
	}
	if d.User != nil && d.User.Role == "" {
		if role, ok := claims["role"].(string); ok {
			d.User.Role = role
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(d); err != nil {
		return err
	}
	s.current = d

	s.logger.Info("Сессия сохранена", slog.Bool("has_user", d.User != nil))
	return nil
}

// Token возвращает токен; пустая строка, если сессии нет или токен истёк.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.expiredLocked() {
		return ""
	}
	return s.current.Token
}

// CurrentUser возвращает снимок пользователя.
func (s *Store) CurrentUser() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.User == nil || s.expiredLocked() {
		return User{}, false
	}
	return *s.current.User, true
}

// CurrentUserID возвращает id пользователя. false — id ещё неизвестен.
func (s *Store) CurrentUserID() (int64, bool) {
	u, ok := s.CurrentUser()
	if !ok || u.ID == 0 {
		return 0, false
	}
	return u.ID, true
}

// Role возвращает роль пользователя или пустую строку.
func (s *Store) Role() string {
	u, _ := s.CurrentUser()
	return u.Role
}

// ExpiresAt возвращает время истечения токена (нулевое, если неизвестно).
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil || s.current.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.current.ExpiresAt, 0)
}

// Clear удаляет сессию вместе с файлом.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("удаление файла сессии: %w", err)
	}
	s.logger.Info("Сессия очищена")
	return nil
}

func (s *Store) expiredLocked() bool {
	return s.current.ExpiresAt != 0 && s.now().Unix() >= s.current.ExpiresAt
}

// write шифрует d и атомарно заменяет файл сессии.
func (s *Store) write(d *data) error {
	plaintext, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}

	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("ошибка генерации nonce: %w", err)
	}
	ciphertext := s.gcm.Seal(nonce, nonce, plaintext, nil)
	encoded := base64.URLEncoding.EncodeToString(ciphertext)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("создание каталога сессии: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(encoded), 0o600); err != nil {
		return fmt.Errorf("запись файла сессии: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("замена файла сессии: %w", err)
	}
	return nil
}

func (s *Store) decrypt(raw []byte) (*data, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := s.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var d data
	if err := json.Unmarshal(plaintext, &d); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	return &d, nil
}

func deriveKey(key string) ([]byte, error) {
	if key == "" {
		b := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, b); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == 32 {
		return b, nil
	}
	h := sha256.Sum256([]byte(key))
	return h[:], nil
}

// parseClaims читает claims без проверки подписи: подпись проверяет сервер API.
func parseClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// claimUserID извлекает id пользователя из userId или sub.
func claimUserID(claims jwt.MapClaims) (int64, bool) {
	for _, name := range []string{"userId", "sub"} {
		switch v := claims[name].(type) {
		case float64:
			if v > 0 {
				return int64(v), true
			}
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}
