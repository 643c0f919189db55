package explorer

import (
	"context"
	"fmt"
	"log/slog"

	"astronomy-explorer/cache"
	"astronomy-explorer/models"
	"astronomy-explorer/providers"
)

// Explorer проводит запрос по цепочке: проверка ввода, кеш, транспорт,
// проверка ответа. Повторов нет: при ошибке решает вызывающий код.
type Explorer struct {
	transport providers.Transport
	cache     cache.Cache
	logger    *slog.Logger
}

// New создает Explorer. cache может быть nil, тогда каждый запрос идет в сеть.
func New(transport providers.Transport, c cache.Cache, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{
		transport: transport,
		cache:     c,
		logger:    logger,
	}
}

// Chart получает ссылку на изображение для эндпоинта endpointName.
func (e *Explorer) Chart(ctx context.Context, endpointName string, raw models.RawRequest) (models.ChartResult, error) {
	ep, ok := providers.LookupEndpoint(endpointName)
	if !ok {
		return models.ChartResult{}, &models.ValidationError{Field: "endpoint", Message: fmt.Sprintf("неизвестный тип изображения %q", endpointName)}
	}

	params, err := models.ParseRequest(raw)
	if err != nil {
		return models.ChartResult{}, err
	}

	payload, err := providers.BuildPayload(ep, params)
	if err != nil {
		return models.ChartResult{}, err
	}

	result := models.ChartResult{
		Endpoint: ep.Name,
		Subject:  params.SubjectCode,
		Style:    params.StyleCode,
		Observer: params.Observer(),
	}

	key, err := cache.Key(ep.Path, payload)
	if err != nil {
		return models.ChartResult{}, err
	}

	// Пробуем получить из кеша
	if image, found := e.fromCache(ctx, ep, key); found {
		result.ImageURL = image
		result.Cached = true
		return result, nil
	}

	body, err := e.transport.Fetch(ctx, ep, params)
	if err != nil {
		e.logger.Warn("chart request failed", "endpoint", ep.Name, "transport", e.transport.Name(), "error", err)
		return models.ChartResult{}, err
	}

	image, err := providers.ExtractImageURL(body, ep.ImageField)
	if err != nil {
		e.logger.Warn("chart response rejected", "endpoint", ep.Name, "error", err)
		return models.ChartResult{}, err
	}

	// В кеш попадают только ответы, прошедшие проверку.
	if e.cache != nil {
		if err := e.cache.Set(ctx, key, body); err != nil {
			e.logger.Warn("cache write failed", "endpoint", ep.Name, "error", err)
		}
	}

	result.ImageURL = image
	return result, nil
}

func (e *Explorer) fromCache(ctx context.Context, ep providers.Endpoint, key string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	body, found, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache read failed", "endpoint", ep.Name, "error", err)
		return "", false
	}
	if !found {
		e.logger.Debug("cache miss", "endpoint", ep.Name)
		return "", false
	}
	image, err := providers.ExtractImageURL(body, ep.ImageField)
	if err != nil {
		return "", false
	}
	e.logger.Debug("cache hit", "endpoint", ep.Name)
	return image, true
}

// ClearExpired вычищает устаревшие записи кеша.
func (e *Explorer) ClearExpired(ctx context.Context) (int, error) {
	if e.cache == nil {
		return 0, nil
	}
	return e.cache.ClearExpired(ctx)
}

// ClearCache очищает кеш
func (e *Explorer) ClearCache(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Clear(ctx)
}

// TransportName имя используемого транспорта.
func (e *Explorer) TransportName() string {
	return e.transport.Name()
}
