package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Cache хранит ответы API ограниченное время, чтобы одинаковые запросы не
// уходили в сеть повторно. Одновременные запросы с одним ключом не
// объединяются: оба пойдут в сеть.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	ClearExpired(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Key строит ключ из пути эндпоинта и тела запроса. encoding/json пишет поля
// структур в порядке объявления, а ключи map сортирует, поэтому одинаковые
// параметры всегда дают одинаковый ключ.
func Key(endpointPath string, payload any) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return endpointPath + ":" + string(encoded), nil
}
