package models

// Observer описывает точку наблюдения и дату, для которых строится карта.
type Observer struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Date      string  `json:"date"`
}

// StarChartPayload тело запроса POST /studio/star-chart.
type StarChartPayload struct {
	Style    string   `json:"style"`
	Observer Observer `json:"observer"`
	View     View     `json:"view"`
}

// View описывает что именно рисовать.
type View struct {
	Type       string         `json:"type"`
	Parameters ViewParameters `json:"parameters"`
}

// ViewParameters параметры представления созвездия.
type ViewParameters struct {
	Constellation string `json:"constellation"`
}

// MoonPhasePayload тело запроса POST /studio/moon-phase.
type MoonPhasePayload struct {
	Format   string    `json:"format"`
	Style    MoonStyle `json:"style"`
	Observer Observer  `json:"observer"`
	View     MoonView  `json:"view"`
}

// MoonStyle набор цветов и стилей для изображения фазы Луны.
type MoonStyle struct {
	MoonStyle       string `json:"moonStyle"`
	BackgroundStyle string `json:"backgroundStyle"`
	BackgroundColor string `json:"backgroundColor"`
	HeadingColor    string `json:"headingColor"`
	TextColor       string `json:"textColor"`
}

// MoonView компоновка изображения фазы Луны.
type MoonView struct {
	Type        string `json:"type"`
	Orientation string `json:"orientation"`
}

// ChartResult то, что получает вызывающий код после успешного запроса.
type ChartResult struct {
	Endpoint string   `json:"endpoint"`
	Subject  string   `json:"subject"`
	Style    string   `json:"style"`
	Observer Observer `json:"observer"`
	ImageURL string   `json:"image_url"`
	Cached   bool     `json:"cached"`
}

// ProxyResponse ответ прокси-сервера, совместимый с PHP-скриптом.
type ProxyResponse struct {
	Subject string `json:"subject,omitempty"`
	Style   string `json:"style,omitempty"`
	Image   string `json:"image,omitempty"`
	Error   string `json:"error,omitempty"`
}
