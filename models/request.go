package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout формат даты наблюдения, который принимает API.
const DateLayout = "2006-01-02"

// RawRequest сырые значения, пришедшие от пользователя (флаги CLI, query-параметры).
type RawRequest struct {
	Subject   string `json:"subject"`
	Style     string `json:"style"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Date      string `json:"date"`
}

// RequestParameters проверенные параметры запроса к API.
type RequestParameters struct {
	SubjectCode string  `json:"subject"`
	StyleCode   string  `json:"style"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Date        string  `json:"date"`
}

// ValidationError ошибка пользовательского ввода, обнаруженная до сетевого запроса.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ParseRequest проверяет сырые поля и собирает RequestParameters.
// Порядок проверок фиксирован: объект, стиль, координаты, дата, формат даты,
// разбор координат, диапазон координат. Возвращается первая найденная ошибка.
func ParseRequest(raw RawRequest) (RequestParameters, error) {
	subject := strings.TrimSpace(raw.Subject)
	style := strings.TrimSpace(raw.Style)
	latStr := strings.TrimSpace(raw.Latitude)
	lngStr := strings.TrimSpace(raw.Longitude)
	date := strings.TrimSpace(raw.Date)

	if subject == "" {
		return RequestParameters{}, invalid("subject", "не выбран объект (созвездие или вид)")
	}
	if style == "" {
		return RequestParameters{}, invalid("style", "не выбран стиль карты")
	}
	if latStr == "" || lngStr == "" {
		return RequestParameters{}, invalid("location", "не указано местоположение наблюдателя")
	}
	if date == "" {
		return RequestParameters{}, invalid("date", "не указана дата наблюдения")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return RequestParameters{}, invalid("date", "дата должна быть в формате ГГГГ-ММ-ДД")
	}

	lat, err := parseCoordinate(latStr)
	if err != nil {
		return RequestParameters{}, invalid("latitude", "широта должна быть числом")
	}
	lng, err := parseCoordinate(lngStr)
	if err != nil {
		return RequestParameters{}, invalid("longitude", "долгота должна быть числом")
	}

	if lat < -90 || lat > 90 {
		return RequestParameters{}, invalid("latitude", "широта должна быть в диапазоне от -90 до 90")
	}
	if lng < -180 || lng > 180 {
		return RequestParameters{}, invalid("longitude", "долгота должна быть в диапазоне от -180 до 180")
	}

	return RequestParameters{
		SubjectCode: subject,
		StyleCode:   style,
		Latitude:    lat,
		Longitude:   lng,
		Date:        date,
	}, nil
}

// NaN и бесконечности не считаются координатами.
func parseCoordinate(value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", value)
	}
	return v, nil
}

// Observer возвращает точку наблюдения из параметров.
func (p RequestParameters) Observer() Observer {
	return Observer{Latitude: p.Latitude, Longitude: p.Longitude, Date: p.Date}
}

// StarChartPayload собирает тело запроса карты созвездия.
func (p RequestParameters) StarChartPayload() StarChartPayload {
	return StarChartPayload{
		Style:    p.StyleCode,
		Observer: p.Observer(),
		View: View{
			Type:       "constellation",
			Parameters: ViewParameters{Constellation: p.SubjectCode},
		},
	}
}

// MoonPhasePayload собирает тело запроса фазы Луны. SubjectCode здесь тип
// компоновки (portrait-simple, landscape-simple), стиль передается уже раскрытым.
func (p RequestParameters) MoonPhasePayload(style MoonStyle) MoonPhasePayload {
	return MoonPhasePayload{
		Format:   "png",
		Style:    style,
		Observer: p.Observer(),
		View: MoonView{
			Type:        p.SubjectCode,
			Orientation: "south-up",
		},
	}
}
