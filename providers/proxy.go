package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"astronomy-explorer/models"
)

// Proxy ходит в API через прокси-сервер (GET ?subject=&style=), когда прямой
// вызов невозможен. Учетные данные хранит сам прокси.
type Proxy struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

func NewProxy(baseURL string, timeout time.Duration) *Proxy {
	return &Proxy{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		userAgent: defaultUserAgent,
	}
}

func (p *Proxy) Name() string {
	return "Proxy"
}

// Fetch запрашивает изображение у прокси и перекладывает поле image по пути
// ep.ImageField, чтобы валидатор не зависел от транспорта.
func (p *Proxy) Fetch(ctx context.Context, ep Endpoint, params models.RequestParameters) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("subject", params.SubjectCode)
	query.Set("style", params.StyleCode)
	query.Set("lat", strconv.FormatFloat(params.Latitude, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(params.Longitude, 'f', -1, 64))
	query.Set("date", params.Date)

	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, ep.ProxyRoute, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
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

	var result models.ProxyResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, &InvalidResponseError{Reason: "тело ответа не является JSON"}
	}
	// Прокси может вернуть {error} с кодом 200.
	if result.Error != "" {
		return nil, &APIError{
			StatusCode: http.StatusBadGateway,
			StatusText: result.Error,
			Body:       json.RawMessage(payload),
		}
	}

	normalized, err := json.Marshal(nestAt(ep.ImageField, result.Image))
	if err != nil {
		return nil, fmt.Errorf("encode proxy response: %w", err)
	}
	return normalized, nil
}

var _ Transport = (*Proxy)(nil)
