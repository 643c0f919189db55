package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"astronomy-explorer/cache"
	"astronomy-explorer/catalog"
	"astronomy-explorer/config"
	"astronomy-explorer/download"
	"astronomy-explorer/explorer"
	"astronomy-explorer/logger"
	"astronomy-explorer/models"
	"astronomy-explorer/providers"
	"astronomy-explorer/server"
)

var (
	cfg *config.Config
	log *slog.Logger
	exp *explorer.Explorer
)

func main() {
	// Загружаем конфигурацию
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}
	log = logger.New(cfg.LogLevel, cfg.LogFormat)

	creds, err := config.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		log.Warn("credentials file ignored", "error", err)
	}
	cfg.ApplyCredentials(creds)

	var rootCmd = &cobra.Command{
		Use:   "astro",
		Short: "Звездные карты и фазы Луны",
		Long:  "Получает изображения звездных карт и фаз Луны через AstronomyAPI",
	}

	var chartCmd = &cobra.Command{
		Use:   "chart [созвездие]",
		Short: "Получить звездную карту созвездия",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			style, _ := cmd.Flags().GetString("style")
			output, _ := cmd.Flags().GetString("output")
			raw := rawFromFlags(cmd, args[0], style)
			runChart(providers.StarChart.Name, raw, output)
		},
	}
	chartCmd.Flags().StringP("style", "s", "default", "Стиль карты (default, inverted, navy, red)")
	addObserverFlags(chartCmd)

	var moonCmd = &cobra.Command{
		Use:   "moon",
		Short: "Получить изображение фазы Луны",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			view, _ := cmd.Flags().GetString("view")
			style, _ := cmd.Flags().GetString("style")
			output, _ := cmd.Flags().GetString("output")
			raw := rawFromFlags(cmd, view, style)
			runChart(providers.MoonPhase.Name, raw, output)
		},
	}
	moonCmd.Flags().String("view", catalog.MoonViews[0], "Вид (portrait-simple, landscape-simple)")
	moonCmd.Flags().StringP("style", "s", "default", "Стиль (default, sketch, shaded)")
	addObserverFlags(moonCmd)

	var subjectsCmd = &cobra.Command{
		Use:   "subjects",
		Short: "Показать список созвездий",
		Run: func(cmd *cobra.Command, args []string) {
			showSubjects()
		},
	}

	var stylesCmd = &cobra.Command{
		Use:   "styles",
		Short: "Показать доступные стили",
		Run: func(cmd *cobra.Command, args []string) {
			showStyles()
		},
	}

	var loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Сохранить учетные данные AstronomyAPI",
		Run: func(cmd *cobra.Command, args []string) {
			appID, _ := cmd.Flags().GetString("app-id")
			appSecret, _ := cmd.Flags().GetString("app-secret")
			login(appID, appSecret, creds.Theme)
		},
	}
	loginCmd.Flags().String("app-id", "", "Application ID")
	loginCmd.Flags().String("app-secret", "", "Application Secret")
	_ = loginCmd.MarkFlagRequired("app-id")
	_ = loginCmd.MarkFlagRequired("app-secret")

	var downloadCmd = &cobra.Command{
		Use:   "download [ссылка]",
		Short: "Скачать изображение карты",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			out, _ := cmd.Flags().GetString("out")
			downloadImage(args[0], out)
		},
	}
	downloadCmd.Flags().StringP("out", "o", "", "Путь к файлу (по умолчанию имя из ссылки)")

	var serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Запуск HTTP прокси",
		Run: func(cmd *cobra.Command, args []string) {
			startServer()
		},
	}

	var clearCacheCmd = &cobra.Command{
		Use:   "clear-cache",
		Short: "Очистить кеш",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := clearCache(ctx, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "❌ %v\n", err)
				os.Exit(1)
			}
		},
	}

	rootCmd.AddCommand(chartCmd, moonCmd, subjectsCmd, stylesCmd, loginCmd, downloadCmd, serverCmd, clearCacheCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addObserverFlags(cmd *cobra.Command) {
	cmd.Flags().String("lat", strconv.FormatFloat(cfg.DefaultLat, 'f', -1, 64), "Широта наблюдателя")
	cmd.Flags().String("lng", strconv.FormatFloat(cfg.DefaultLng, 'f', -1, 64), "Долгота наблюдателя")
	cmd.Flags().String("date", time.Now().UTC().Format(models.DateLayout), "Дата наблюдения (ГГГГ-ММ-ДД)")
	cmd.Flags().StringP("output", "o", "text", "Формат вывода (text, json)")
}

func rawFromFlags(cmd *cobra.Command, subject, style string) models.RawRequest {
	lat, _ := cmd.Flags().GetString("lat")
	lng, _ := cmd.Flags().GetString("lng")
	date, _ := cmd.Flags().GetString("date")
	return models.RawRequest{
		Subject:   subject,
		Style:     style,
		Latitude:  lat,
		Longitude: lng,
		Date:      date,
	}
}

// buildExplorer выбирает транспорт: прокси, если задан PROXY_URL, иначе
// прямые запросы к API со своими учетными данными.
func buildExplorer(c cache.Cache) (*explorer.Explorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var transport providers.Transport
	if cfg.ProxyURL != "" {
		transport = providers.NewProxy(cfg.ProxyURL, cfg.Timeout())
	} else {
		transport = providers.NewAstronomyAPI(cfg.BaseURL, cfg.AppID, cfg.AppSecret, cfg.Timeout())
	}
	log.Debug("transport selected", "transport", transport.Name())

	return explorer.New(transport, c, log), nil
}

// openValkey подключает общий Valkey-кеш. Без VALKEY_ADDR или при недоступном
// сервере возвращает nil.
func openValkey(ctx context.Context) (cache.Cache, func()) {
	if cfg.ValkeyAddr == "" {
		return nil, func() {}
	}

	client, err := cache.Dial(ctx, cfg.ValkeyAddr)
	if err != nil {
		log.Warn("valkey unavailable", "addr", cfg.ValkeyAddr, "error", err)
		return nil, func() {}
	}
	log.Info("valkey cache connected", "addr", cfg.ValkeyAddr)
	return cache.NewValkey(client, "", cfg.CacheTTL()), client.Close
}

func mustExplorer(c cache.Cache) *explorer.Explorer {
	e, err := buildExplorer(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	return e
}

// runChart получает изображение через CLI
func runChart(endpoint string, raw models.RawRequest, output string) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout()+5*time.Second)
	defer cancel()

	// Кеш в памяти не переживает один запуск, поэтому CLI кеширует только в Valkey.
	store, closeStore := openValkey(ctx)
	defer closeStore()
	exp = mustExplorer(store)

	result, err := exp.Chart(ctx, endpoint, raw)
	if err != nil {
		log.Debug("chart failed", "endpoint", endpoint, "error", err)
		fmt.Fprintf(os.Stderr, "❌ %s\n", providers.UserMessage(err))
		os.Exit(1)
	}

	if output == "json" {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	// Текстовый вывод
	title := result.Subject
	if c, ok := catalog.LookupConstellation(result.Subject); ok {
		title = fmt.Sprintf("%s (%s)", c.Name, c.Code)
	}
	fmt.Printf("🔭 %s\n", title)
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Стиль: %s\n", result.Style)
	fmt.Printf("Наблюдатель: %.4f, %.4f\n", result.Observer.Latitude, result.Observer.Longitude)
	fmt.Printf("Дата: %s\n", result.Observer.Date)
	fmt.Printf("Изображение: %s\n", result.ImageURL)
}

// showSubjects выводит каталог созвездий
func showSubjects() {
	fmt.Println("✨ Созвездия:")
	fmt.Println(strings.Repeat("-", 30))
	for _, c := range catalog.Constellations() {
		fmt.Printf("%-4s %s\n", c.Code, c.Name)
	}
	fmt.Println()
	fmt.Printf("🌙 Виды Луны: %s\n", strings.Join(catalog.MoonViews, ", "))
}

func showStyles() {
	fmt.Printf("Звездная карта: %s\n", strings.Join(catalog.StarChartStyles, ", "))
	fmt.Printf("Фаза Луны: %s\n", strings.Join(catalog.MoonStyleNames(), ", "))
}

func login(appID, appSecret, theme string) {
	creds := config.Credentials{
		AppID:     strings.TrimSpace(appID),
		AppSecret: strings.TrimSpace(appSecret),
		Theme:     theme,
	}
	if creds.AppID == "" || creds.AppSecret == "" {
		fmt.Fprintln(os.Stderr, "❌ Нужны и Application ID, и Application Secret")
		os.Exit(1)
	}

	path := cfg.CredentialsPath
	if path == "" {
		path = config.DefaultCredentialsPath()
	}
	if err := config.SaveCredentials(path, creds); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Не удалось сохранить учетные данные: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Учетные данные сохранены в %s\n", path)
}

func downloadImage(imageURL, out string) {
	if out == "" {
		out = download.FileName(imageURL, "chart.png")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := download.NewFetcher(cfg.Timeout()).Save(ctx, imageURL, out, os.Stderr)
	if err != nil {
		log.Debug("download failed", "url", imageURL, "error", err)
		fmt.Fprintf(os.Stderr, "❌ %s\n", providers.UserMessage(err))
		os.Exit(1)
	}
	fmt.Printf("✅ Сохранено %s (%d байт)\n", out, n)
}

// startServer запускает HTTP прокси
func startServer() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := openValkey(ctx)
	defer closeStore()
	if store == nil {
		store = cache.NewMemory(cfg.CacheTTL())
	}
	exp = mustExplorer(store)

	router := server.NewRouter(server.Options{
		Service:        exp,
		Logger:         log,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		DefaultLat:     cfg.DefaultLat,
		DefaultLng:     cfg.DefaultLng,
	})
	srv := server.NewServer(":"+cfg.ServerPort, router)

	go sweepCache(ctx, cfg.CacheTTL())

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("server started", "port", cfg.ServerPort, "transport", exp.TransportName())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
		return
	}

	log.Info("server stopped")
}

// sweepCache периодически удаляет устаревшие записи, чтобы кеш в памяти не
// рос за счет запросов, которые больше не повторяются.
func sweepCache(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := exp.ClearExpired(ctx)
			if err != nil {
				log.Warn("cache sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("cache swept", "removed", n)
			}
		}
	}
}

// clearCache очищает общий кеш. Кеш в памяти живет только внутри процесса,
// поэтому без Valkey очищать нечего.
func clearCache(ctx context.Context, w io.Writer) error {
	if cfg.ValkeyAddr == "" {
		fmt.Fprintln(w, "ℹ️  Постоянный кеш не настроен (VALKEY_ADDR), очищать нечего")
		return nil
	}

	store, closeStore := openValkey(ctx)
	defer closeStore()
	if store == nil {
		return fmt.Errorf("valkey недоступен: %s", cfg.ValkeyAddr)
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("не удалось очистить кеш: %w", err)
	}
	fmt.Fprintln(w, "✅ Кеш очищен")
	return nil
}
