package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey общий кеш для прокси-сервера. Срок жизни записей отслеживает сам
// сервер Valkey (SET ... EX).
type Valkey struct {
	client valkey.Client
	prefix string
	maxAge time.Duration
}

// NewValkey создает кеш поверх готового клиента.
func NewValkey(client valkey.Client, prefix string, maxAge time.Duration) *Valkey {
	if prefix == "" {
		prefix = "astro"
	}
	return &Valkey{client: client, prefix: prefix, maxAge: maxAge}
}

// Dial подключается к Valkey по адресу host:port или URL и проверяет соединение.
func Dial(ctx context.Context, addr string) (valkey.Client, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(addr, "://") {
		opt, err = valkey.ParseURL(addr)
		if err != nil {
			return nil, err
		}
	} else {
		opt = valkey.ClientOption{InitAddress: []string{addr}}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (v *Valkey) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	payload, err := v.client.Do(ctx, v.client.B().Get().Key(v.entryKey(key)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return json.RawMessage(payload), true, nil
}

func (v *Valkey) Set(ctx context.Context, key string, value json.RawMessage) error {
	cmd := v.client.B().Set().Key(v.entryKey(key)).Value(string(value)).Ex(v.ttl()).Build()
	return v.client.Do(ctx, cmd).Error()
}

// ClearExpired ничего не делает: устаревшие ключи удаляет сервер.
func (v *Valkey) ClearExpired(_ context.Context) (int, error) {
	return 0, nil
}

// Clear удаляет все ключи с префиксом кеша.
func (v *Valkey) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		cmd := v.client.B().Scan().Cursor(cursor).Match(v.prefix + ":*").Count(100).Build()
		entry, err := v.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return err
		}
		if len(entry.Elements) > 0 {
			if err := v.client.Do(ctx, v.client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return err
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

// EX принимает целые секунды, меньше секунды сервер не примет.
func (v *Valkey) ttl() time.Duration {
	if v.maxAge < time.Second {
		return time.Second
	}
	return v.maxAge
}

// Ключ кеша содержит JSON тела запроса, поэтому в Valkey хранится его хеш.
func (v *Valkey) entryKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return v.prefix + ":" + hex.EncodeToString(sum[:])
}

var _ Cache = (*Valkey)(nil)
