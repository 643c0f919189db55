package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"astronomy-explorer/catalog"
	"astronomy-explorer/models"
	"astronomy-explorer/providers"
)

type handler struct {
	service    ChartService
	logger     *slog.Logger
	defaultLat float64
	defaultLng float64
	now        func() time.Time
}

// chart обрабатывает GET /api/chart?subject=&style=. Ответ совместим со
// старым PHP-прокси: {subject, style, image} или {error}.
func (h *handler) chart(c *gin.Context) {
	h.serve(c, providers.StarChart.Name, c.Query("subject"), c.DefaultQuery("style", "default"))
}

// moonPhase обрабатывает GET /api/moon-phase?view=&style=.
func (h *handler) moonPhase(c *gin.Context) {
	view := c.Query("view")
	if view == "" {
		// Прокси-транспорт передает вид в параметре subject.
		view = c.DefaultQuery("subject", catalog.MoonViews[0])
	}
	h.serve(c, providers.MoonPhase.Name, view, c.DefaultQuery("style", "default"))
}

func (h *handler) serve(c *gin.Context, endpoint, subject, style string) {
	raw := models.RawRequest{
		Subject:   subject,
		Style:     style,
		Latitude:  c.DefaultQuery("lat", strconv.FormatFloat(h.defaultLat, 'f', -1, 64)),
		Longitude: c.DefaultQuery("lng", strconv.FormatFloat(h.defaultLng, 'f', -1, 64)),
		Date:      c.DefaultQuery("date", h.now().UTC().Format(models.DateLayout)),
	}

	result, err := h.service.Chart(c.Request.Context(), endpoint, raw)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("chart proxy failed", "endpoint", endpoint, "status", status, "error", err)
		} else {
			h.logger.Warn("chart proxy rejected", "endpoint", endpoint, "status", status, "error", err)
		}
		c.JSON(status, models.ProxyResponse{Error: providers.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, models.ProxyResponse{
		Subject: result.Subject,
		Style:   result.Style,
		Image:   result.ImageURL,
	})
}

func (h *handler) subjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"constellations": catalog.Constellations(),
		"moon_views":     catalog.MoonViews,
	})
}

func (h *handler) styles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"star_chart": catalog.StarChartStyles,
		"moon_phase": catalog.MoonStyleNames(),
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().Format(time.RFC3339),
		"transport": h.service.TransportName(),
		"endpoints": providers.EndpointNames(),
	})
}

// statusFor выбирает HTTP-статус ответа прокси по типу ошибки.
func statusFor(err error) int {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode <= 599 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}
