package providers

import (
	"encoding/json"
	"strings"
)

// ExtractImageURL достает ссылку на изображение по пути вида "data.imageUrl".
// API может вернуть 200 без ссылки (квота, сбой генерации), такой ответ
// успехом не считается.
func ExtractImageURL(body json.RawMessage, fieldPath string) (string, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", &InvalidResponseError{Reason: "тело ответа не является JSON"}
	}

	current := root
	for _, part := range strings.Split(fieldPath, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return "", &InvalidResponseError{Field: fieldPath, Reason: "поле отсутствует"}
		}
		current, ok = obj[part]
		if !ok {
			return "", &InvalidResponseError{Field: fieldPath, Reason: "поле отсутствует"}
		}
	}

	value, ok := current.(string)
	if !ok {
		return "", &InvalidResponseError{Field: fieldPath, Reason: "поле не является строкой"}
	}
	if strings.TrimSpace(value) == "" {
		return "", &InvalidResponseError{Field: fieldPath, Reason: "пустое значение"}
	}
	return value, nil
}

// nestAt кладет значение по пути fieldPath: "data.imageUrl" -> {"data":{"imageUrl":v}}.
func nestAt(fieldPath string, value any) map[string]any {
	parts := strings.Split(fieldPath, ".")
	out := map[string]any{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out
}
