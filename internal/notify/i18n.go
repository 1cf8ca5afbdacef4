// i18n.go — каталоги сообщений уведомлений.
// Поддерживаемые языки: O'zbekcha (uz), Русский (ru), English (en).
// Язык берётся из контекста (middleware шлюза), иначе — язык по умолчанию.
package notify

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// localeFS — встроенные JSON-каталоги сообщений.
//
//go:embed locales/*.json
var localeFS embed.FS

// Поддерживаемые языки.
var (
	// SupportedLanguages — теги языков в порядке предпочтения.
	SupportedLanguages = []language.Tag{
		language.Uzbek,
		language.Russian,
		language.English,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

type contextKey string

const contextKeyLang contextKey = "notify_lang"

// Bundle — хранилище каталогов сообщений.
type Bundle struct {
	mu          sync.RWMutex
	catalogs    map[string]map[string]string // lang → key → message
	defaultLang string
}

// NewBundle загружает встроенные каталоги.
// defaultLang — язык, если в контексте язык не задан.
func NewBundle(defaultLang string, logger *slog.Logger) (*Bundle, error) {
	b := &Bundle{
		catalogs:    make(map[string]map[string]string),
		defaultLang: MatchLanguage(defaultLang),
	}

	for _, lang := range []string{"uz", "ru", "en"} {
		path := fmt.Sprintf("locales/%s.json", lang)
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("notify: не удалось прочитать %s: %w", path, err)
		}
		if err := b.LoadMessages(lang, data); err != nil {
			return nil, err
		}
	}

	logger.Debug("Каталоги уведомлений загружены",
		slog.String("default_lang", b.defaultLang),
	)
	return b, nil
}

// LoadMessages загружает плоский JSON-каталог {"key": "message"} для языка.
func (b *Bundle) LoadMessages(lang string, data []byte) error {
	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("notify: ошибка парсинга каталога %s: %w", lang, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalogs[lang] = messages
	return nil
}

// Translate возвращает сообщение по ключу: язык → en → сам ключ.
func (b *Bundle) Translate(lang, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs["en"][key]; ok {
		return msg
	}
	return key
}

// Translatef — Translate с подстановкой аргументов.
func (b *Bundle) Translatef(lang, key string, args ...any) string {
	template := b.Translate(lang, key)
	if len(args) == 0 {
		return template
	}
	return formatFunc(template, args...)
}

// Lang возвращает язык из контекста или язык по умолчанию.
func (b *Bundle) Lang(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return b.defaultLang
}

// formatFunc — fmt.Sprintf через переменную: формат-строки приходят из каталогов.
var formatFunc = fmt.Sprintf

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKeyLang, lang)
}

// MatchLanguage приводит Accept-Language (или код языка) к uz, ru или en.
func MatchLanguage(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return "uz"
	}
	tag, _ := language.MatchStrings(matcher, accept)
	base, _ := tag.Base()

	switch lang := base.String(); {
	case strings.HasPrefix(lang, "ru"):
		return "ru"
	case strings.HasPrefix(lang, "en"):
		return "en"
	default:
		return "uz"
	}
}
