package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"astronomy-explorer/providers"
)

func TestSave_WritesFile(t *testing.T) {
	image := bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 512)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(image)
	}))
	t.Cleanup(server.Close)

	out := filepath.Join(t.TempDir(), "charts", "ori.png")
	var progress bytes.Buffer

	n, err := NewFetcher(time.Second).Save(context.Background(), server.URL+"/ori.png", out, &progress)
	require.NoError(t, err)
	require.EqualValues(t, len(image), n)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, image, got)

	_, err = os.Stat(out + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestSave_HTTPErrorLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	out := filepath.Join(t.TempDir(), "missing.png")
	_, err := NewFetcher(time.Second).Save(context.Background(), server.URL+"/missing.png", out, nil)

	var apiErr *providers.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr))
}

func TestSave_RequiresOutPath(t *testing.T) {
	_, err := NewFetcher(time.Second).Save(context.Background(), "http://127.0.0.1:1/x.png", "", nil)
	require.Error(t, err)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "abc.png", FileName("https://cdn.example/studio/abc.png?sig=1", "chart.png"))
	require.Equal(t, "chart.png", FileName("https://cdn.example/", "chart.png"))
	require.Equal(t, "chart.png", FileName("https://cdn.example/render", "chart.png"))
	require.Equal(t, "chart.png", FileName("::bad", "chart.png"))
}
