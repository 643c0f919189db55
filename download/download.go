package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"astronomy-explorer/providers"
)

// Fetcher сохраняет готовые изображения карт на диск.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client: &http.Client{
			Timeout: timeout,
		},
		UserAgent: "astronomy-explorer/0.1",
	}
}

// Save скачивает imageURL в out. Пока идет загрузка, данные пишутся во
// временный файл рядом, затем он переименовывается. Если progress не nil,
// туда выводится индикатор загрузки.
func (f *Fetcher) Save(ctx context.Context, imageURL, out string, progress io.Writer) (int64, error) {
	if out == "" {
		return 0, fmt.Errorf("out path required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, providers.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &providers.APIError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       json.RawMessage(`{}`),
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	tmp := out + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	var dst io.Writer = file
	if progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription("загрузка "+filepath.Base(out)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(progress) }),
		)
		dst = io.MultiWriter(file, bar)
	}

	written, copyErr := io.Copy(dst, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmp)
		return 0, providers.NewNetworkError(copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close file: %w", closeErr)
	}

	if err := os.Rename(tmp, out); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("rename file: %w", err)
	}
	return written, nil
}

// FileName имя файла из ссылки на изображение, запасной вариант fallback.
func FileName(imageURL, fallback string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return fallback
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || !strings.Contains(name, ".") {
		return fallback
	}
	return name
}
