package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Credentials учетные данные API и тема интерфейса, сохраняемые между сессиями.
type Credentials struct {
	AppID     string `toml:"app_id"`
	AppSecret string `toml:"app_secret"`
	Theme     string `toml:"theme"`
}

const (
	defaultCredentialsPath = "~/.config/astronomy-explorer/credentials.toml"
	defaultTheme           = "dark"
)

// DefaultCredentialsPath путь к файлу учетных данных по умолчанию.
func DefaultCredentialsPath() string {
	return defaultCredentialsPath
}

// LoadCredentials читает файл учетных данных. Отсутствие файла не ошибка.
func LoadCredentials(path string) (Credentials, error) {
	creds := Credentials{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return creds, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return creds, nil
		}
		return creds, fmt.Errorf("read credentials: %w", err)
	}

	if err := toml.Unmarshal(data, &creds); err != nil {
		return Credentials{Theme: defaultTheme}, fmt.Errorf("parse credentials: %w", err)
	}

	creds.AppID = strings.TrimSpace(creds.AppID)
	creds.AppSecret = strings.TrimSpace(creds.AppSecret)
	if strings.TrimSpace(creds.Theme) == "" {
		creds.Theme = defaultTheme
	}
	return creds, nil
}

// SaveCredentials записывает учетные данные, создавая каталоги. Файл доступен
// только владельцу.
func SaveCredentials(path string, creds Credentials) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	data, err := toml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultCredentialsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
