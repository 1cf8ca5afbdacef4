// Пакет apiclient — HTTP-клиент к REST API факультетского портала.
// Один транспорт (Client) и обобщённый клиент ресурса (Resource) вместо
// отдельной реализации list/create/update/delete/upload на каждый ресурс.
// Клиент не хранит состояния и ничего не кэширует — это задача пакета query.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики исходящих запросов.
var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_api_requests_total",
			Help: "Общее количество запросов к REST API портала.",
		},
		[]string{"op", "status"},
	)
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_api_request_duration_seconds",
			Help:    "Длительность запросов к REST API портала в секундах.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// maxErrorBody — сколько байт тела ошибки читается для message.
const maxErrorBody = 64 << 10

// TokenSource возвращает bearer-токен текущей сессии.
// Пустая строка — запрос уходит без авторизации (решает сервер).
type TokenSource interface {
	Token() string
}

// TokenFunc — адаптер функции к TokenSource.
type TokenFunc func() string

// Token реализует TokenSource.
func (f TokenFunc) Token() string { return f() }

// Options — параметры клиента.
type Options struct {
	// BaseURL — базовый URL API (например, https://api.portal.uz)
	BaseURL string
	// UploadPaths — endpoint загрузки для каждого типа файла
	UploadPaths map[AssetKind]string
	// CACertPath — CA-сертификат для TLS (пусто — системный пул)
	CACertPath string
	// Timeout — таймаут HTTP-запроса
	Timeout time.Duration
	// HTTPClient — готовый клиент (тесты); перекрывает CACertPath и Timeout
	HTTPClient *http.Client
}

// Client — общий транспорт для всех ресурсов.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	uploadPaths map[AssetKind]string
	tokens      TokenSource
	logger      *slog.Logger
}

// New создаёт клиент REST API.
// tokens может быть nil — тогда все запросы без авторизации.
func New(opts Options, tokens TokenSource, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("не задан базовый URL API")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("некорректный базовый URL API: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
		if opts.CACertPath != "" {
			tlsConfig, err := buildTLSConfig(opts.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("загрузка CA-сертификата API: %w", err)
			}
			httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
			logger.Info("CA-сертификат API добавлен в пул доверия",
				slog.String("ca_cert", opts.CACertPath),
			)
		}
	}

	uploadPaths := map[AssetKind]string{
		AssetImage: "/api/v1/file/upload/image",
		AssetPDF:   "/api/v1/file/upload/pdf",
	}
	for kind, path := range opts.UploadPaths {
		uploadPaths[kind] = path
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		uploadPaths: uploadPaths,
		tokens:      tokens,
		logger:      logger.With(slog.String("component", "api_client")),
	}, nil
}

type requestIDKey struct{}

// WithRequestID сохраняет в ctx идентификатор запроса шлюза.
// Исходящие запросы к API передают его в X-Request-ID, чтобы логи шлюза и API совпадали.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext возвращает идентификатор запроса из ctx (пусто, если не задан).
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// newRequest создаёт запрос с Authorization и X-Request-ID.
// X-Request-ID берётся из ctx, без него генерируется новый.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// send выполняет запрос и возвращает статус и тело.
// Не-2xx статус превращается в TransportError, сбой соединения — в NetworkError.
func (c *Client) send(op string, req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	apiRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		apiRequestsTotal.WithLabelValues(op, "network_error").Inc()
		c.logger.Warn("API недоступен",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("API вернул ошибку",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)
		return resp.StatusCode, body, &TransportError{
			StatusCode:    resp.StatusCode,
			ServerMessage: serverMessage(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &NetworkError{Op: op, Err: fmt.Errorf("чтение тела ответа: %w", err)}
	}
	return resp.StatusCode, body, nil
}

// doJSON выполняет JSON-запрос и декодирует полезную нагрузку конверта в target.
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: сериализация тела запроса: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	status, respBody, err := c.send(op, req)
	if err != nil {
		return err
	}
	return unwrap(status, respBody, target)
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
