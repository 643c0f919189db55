package providers

import (
	"context"
	"encoding/json"
	"sort"

	"astronomy-explorer/models"
)

// Transport интерфейс для всех способов получить изображение: прямой вызов API
// или обход CORS через прокси. Возвращает декодированный JSON, в котором
// ссылка на изображение лежит по пути Endpoint.ImageField.
type Transport interface {
	Name() string
	Fetch(ctx context.Context, ep Endpoint, params models.RequestParameters) (json.RawMessage, error)
}

// EndpointKind определяет форму тела запроса.
type EndpointKind int

const (
	KindStarChart EndpointKind = iota
	KindMoonPhase
)

// Endpoint описание одного эндпоинта API.
type Endpoint struct {
	Name       string
	Path       string
	ProxyRoute string
	ImageField string
	Kind       EndpointKind
}

// Эндпоинты, известные клиенту.
var (
	StarChart = Endpoint{
		Name:       "star-chart",
		Path:       "/studio/star-chart",
		ProxyRoute: "/api/chart",
		ImageField: "data.imageUrl",
		Kind:       KindStarChart,
	}
	MoonPhase = Endpoint{
		Name:       "moon-phase",
		Path:       "/studio/moon-phase",
		ProxyRoute: "/api/moon-phase",
		ImageField: "data.imageUrl",
		Kind:       KindMoonPhase,
	}
)

var endpoints = map[string]Endpoint{
	StarChart.Name: StarChart,
	MoonPhase.Name: MoonPhase,
}

// LookupEndpoint ищет эндпоинт по имени.
func LookupEndpoint(name string) (Endpoint, bool) {
	ep, ok := endpoints[name]
	return ep, ok
}

// EndpointNames имена всех эндпоинтов.
func EndpointNames() []string {
	names := make([]string, 0, len(endpoints))
	for name := range endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
