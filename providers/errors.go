package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"astronomy-explorer/models"
)

// NetworkErrorText StatusText для ошибок транспорта, когда ответа нет вовсе.
const NetworkErrorText = "Network Error"

// APIError ошибка HTTP-уровня. StatusCode 0 означает, что ответ не получен.
type APIError struct {
	StatusCode int
	StatusText string
	Body       json.RawMessage
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("api: %s: %v", e.StatusText, e.Err)
		}
		return "api: " + e.StatusText
	}
	return fmt.Sprintf("api: status %d %s", e.StatusCode, e.StatusText)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// UserMessage текст для пользователя по коду ответа.
func (e *APIError) UserMessage() string {
	code := e.StatusCode
	switch {
	case code == 0:
		return "Нет связи с сервером. Проверьте подключение к интернету"
	case code == http.StatusUnauthorized:
		return "Неверные учетные данные API. Проверьте Application ID и секрет"
	case code == http.StatusForbidden:
		return "Нет доступа к этому ресурсу API"
	case code == http.StatusTooManyRequests:
		return "Превышен лимит запросов. Попробуйте позже"
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return "API отклонил параметры запроса. Проверьте объект, стиль и координаты"
	case code >= 500:
		return "Сервис изображений временно недоступен. Попробуйте позже"
	default:
		return fmt.Sprintf("Ошибка запроса (статус %d)", code)
	}
}

// NewNetworkError оборачивает ошибку транспорта.
func NewNetworkError(err error) *APIError {
	body, _ := json.Marshal(map[string]string{"originalError": err.Error()})
	return &APIError{
		StatusCode: 0,
		StatusText: NetworkErrorText,
		Body:       body,
		Err:        err,
	}
}

// InvalidResponseError успешный ответ без ожидаемого поля.
type InvalidResponseError struct {
	Field  string
	Reason string
}

func (e *InvalidResponseError) Error() string {
	if e.Field == "" {
		return "invalid response: " + e.Reason
	}
	return fmt.Sprintf("invalid response: %s: %s", e.Field, e.Reason)
}

const genericFailureMessage = "Не удалось получить изображение. Попробуйте еще раз"

// UserMessage переводит любую ошибку клиента в текст для отображения.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return genericFailureMessage
}
