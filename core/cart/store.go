package cart

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// errors
var (
	ErrNoCart  = errors.New("no cart stored")
	ErrCorrupt = errors.New("stored cart is corrupt")
)

type (
	// Store persists the full line set of one cart.
	Store interface {
		Load(ctx context.Context) ([]Line, error)
		Save(ctx context.Context, lines []Line) error
		Clear(ctx context.Context) error
	}

	// Storage is a byte-level key/value backend. Get returns ErrNoCart when key is absent.
	Storage interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, data []byte) error
		Delete(ctx context.Context, key string) error
	}
)

// JSONStore keeps a cart as a JSON array of lines under a single Storage key.
type JSONStore struct {
	storage Storage
	key     string
}

var _ Store = (*JSONStore)(nil)

func NewJSONStore(storage Storage, key string) *JSONStore {
	return &JSONStore{storage: storage, key: key}
}

func (s *JSONStore) Key() string { return s.key }

// Load returns nil lines when nothing is stored.
func (s *JSONStore) Load(ctx context.Context) ([]Line, error) {
	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if errors.Cause(err) == ErrNoCart {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", s.key)
	}
	return Decode(data)
}

func (s *JSONStore) Save(ctx context.Context, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return errors.Wrap(err, "encoding cart")
	}
	return s.storage.Set(ctx, s.key, data)
}

func (s *JSONStore) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, s.key)
}

// Decode parses a stored record and normalizes it: lines without an id or with
// a quantity below 1 are dropped and duplicate ids are merged into the first one.
func Decode(data []byte) ([]Line, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var raw []Line
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}

	var lines []Line
	index := make(map[string]int, len(raw))
	for _, l := range raw {
		if l.ID == "" || l.Quantity < 1 {
			continue
		}
		if i, ok := index[l.ID]; ok {
			lines[i].Quantity += l.Quantity
			continue
		}
		index[l.ID] = len(lines)
		lines = append(lines, l)
	}
	return lines, nil
}

// MemoryStorage is a process-local Storage.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNoCart
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
