package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Memory кеш в памяти процесса. Размер не ограничен: записи удаляются только
// по истечении maxAge (лениво при чтении или через ClearExpired).
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	maxAge  time.Duration
	now     func() time.Time
}

type entry struct {
	payload  json.RawMessage
	storedAt time.Time
}

// NewMemory создает кеш с заданным временем жизни записи.
func NewMemory(maxAge time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Get возвращает значение, если запись моложе maxAge. Устаревшая запись
// удаляется на месте.
func (m *Memory) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	e, found := m.entries[key]
	m.mu.RUnlock()
	if !found {
		return nil, false, nil
	}

	if m.expired(e, m.now()) {
		m.mu.Lock()
		// Запись могли перезаписать между блокировками.
		if current, ok := m.entries[key]; ok && m.expired(current, m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	return cloneRaw(e.payload), true, nil
}

// Set сохраняет значение с текущим временем.
func (m *Memory) Set(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{
		payload:  cloneRaw(value),
		storedAt: m.now(),
	}
	return nil
}

// ClearExpired удаляет все устаревшие записи и возвращает их количество.
func (m *Memory) ClearExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Clear очищает кеш
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry)
	return nil
}

// Len количество записей, включая еще не вычищенные устаревшие.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) expired(e entry, now time.Time) bool {
	return now.Sub(e.storedAt) > m.maxAge
}

func cloneRaw(value json.RawMessage) json.RawMessage {
	if value == nil {
		return nil
	}
	dup := make(json.RawMessage, len(value))
	copy(dup, value)
	return dup
}

var _ Cache = (*Memory)(nil)
