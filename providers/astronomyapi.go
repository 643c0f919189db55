package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"astronomy-explorer/catalog"
	"astronomy-explorer/models"
)

const (
	DefaultBaseURL   = "https://api.astronomyapi.com/api/v2"
	defaultUserAgent = "astronomy-explorer/0.1"
)

// AstronomyAPI клиент Astronomy API с Basic-авторизацией.
type AstronomyAPI struct {
	appID     string
	appSecret string
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewAstronomyAPI создает клиента. timeout 0 означает отсутствие таймаута.
func NewAstronomyAPI(baseURL, appID, appSecret string, timeout time.Duration) *AstronomyAPI {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return &AstronomyAPI{
		appID:     appID,
		appSecret: appSecret,
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(base, "/"),
		userAgent: defaultUserAgent,
	}
}

func (p *AstronomyAPI) Name() string {
	return "AstronomyAPI"
}

// Fetch собирает тело запроса для эндпоинта и отправляет его.
func (p *AstronomyAPI) Fetch(ctx context.Context, ep Endpoint, params models.RequestParameters) (json.RawMessage, error) {
	payload, err := BuildPayload(ep, params)
	if err != nil {
		return nil, err
	}
	return p.Send(ctx, ep.Path, http.MethodPost, payload)
}

// Send выполняет один запрос без повторов. Ответ 2xx возвращается как JSON,
// остальное превращается в *APIError.
func (p *AstronomyAPI) Send(ctx context.Context, endpointPath, method string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+endpointPath, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", p.authorization())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NewNetworkError(err)
	}
	defer resp.Body.Close()

	payload, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if !json.Valid(payload) {
		return nil, &InvalidResponseError{Reason: "тело ответа не является JSON"}
	}
	return json.RawMessage(payload), nil
}

func (p *AstronomyAPI) authorization() string {
	token := base64.StdEncoding.EncodeToString([]byte(p.appID + ":" + p.appSecret))
	return "Basic " + token
}

// BuildPayload возвращает тело запроса, соответствующее форме эндпоинта.
func BuildPayload(ep Endpoint, params models.RequestParameters) (any, error) {
	switch ep.Kind {
	case KindStarChart:
		return params.StarChartPayload(), nil
	case KindMoonPhase:
		style, ok := catalog.MoonStyle(params.StyleCode)
		if !ok {
			return nil, &models.ValidationError{Field: "style", Message: fmt.Sprintf("неизвестный стиль фазы Луны %q", params.StyleCode)}
		}
		return params.MoonPhasePayload(style), nil
	default:
		return nil, fmt.Errorf("unsupported endpoint kind %d", ep.Kind)
	}
}

// readBody читает тело ответа. Если сервер ответил не 2xx, это *APIError с
// его статусом, даже когда тело не удалось дочитать.
func readBody(resp *http.Response) ([]byte, error) {
	payload, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if err != nil {
			payload = nil
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Body:       jsonOrEmpty(payload),
		}
	}
	if err != nil {
		return nil, NewNetworkError(err)
	}
	return payload, nil
}

// statusText отдает причину из строки статуса сервера, а при ее отсутствии
// стандартный текст.
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func jsonOrEmpty(payload []byte) json.RawMessage {
	if len(bytes.TrimSpace(payload)) == 0 || !json.Valid(payload) {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(payload)
}

var _ Transport = (*AstronomyAPI)(nil)
