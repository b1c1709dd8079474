package storage

import (
	"encoding/json"
	"strings"
	"time"
)

// Keys of the domain records kept under a namespace.
const (
	KeyTasks            = "tasks"
	KeyProjects         = "projects"
	KeyTags             = "tags"
	KeyPomodoroSettings = "pomodoro_settings"
	KeyTheme            = "theme"
	// KeyAuth holds the local passphrase hash; it is never exported.
	KeyAuth = "auth"

	probeKey = "__probe__"

	DefaultProbeCeiling = 10 * 1024 * 1024
	DefaultVersion      = "0.0.0"
)

// Gateway namespaces a Medium and converts every failure into an *Error.
type Gateway struct {
	medium    Medium
	namespace string
	version   string
	now       func() time.Time
}

type Option func(*Gateway)

// WithVersion sets the version stamped on exported bundles.
func WithVersion(version string) Option {
	return func(g *Gateway) {
		if version != "" {
			g.version = version
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a gateway. An empty namespace addresses the whole medium.
func New(medium Medium, namespace string, opts ...Option) *Gateway {
	g := &Gateway{
		medium:    medium,
		namespace: namespace,
		version:   DefaultVersion,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Namespace() string {
	return g.namespace
}

func (g *Gateway) key(key string) string {
	if g.namespace == "" {
		return key
	}
	return g.namespace + ":" + key
}

func (g *Gateway) inNamespace(fullKey string) bool {
	if g.namespace == "" {
		return true
	}
	return strings.HasPrefix(fullKey, g.namespace+":")
}

func (g *Gateway) unavailable(op string) *Error {
	return newError(KindUnknown, nil, "storage medium is not available (op=%s)", op)
}

// Save serialises value to JSON and writes it under key.
func (g *Gateway) Save(key string, value any) error {
	if g.medium == nil {
		return g.unavailable("save")
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return newError(KindUnknown, err, "failed to serialize key %s: %v", g.key(key), err)
	}
	return g.write(g.key(key), string(payload))
}

func (g *Gateway) write(fullKey, payload string) error {
	if err := g.medium.SetItem(fullKey, payload); err != nil {
		if IsQuotaExceeded(err) {
			return newError(KindQuotaExceeded, err, "quota exceeded while saving key %s", fullKey)
		}
		return newError(KindUnknown, err, "failed to save key %s: %v", fullKey, err)
	}
	return nil
}

// Load decodes the JSON stored under key into out.
func (g *Gateway) Load(key string, out any) error {
	if g.medium == nil {
		return g.unavailable("load")
	}
	fullKey := g.key(key)
	raw, ok, err := g.medium.GetItem(fullKey)
	if err != nil {
		return newError(KindUnknown, err, "failed to load key %s: %v", fullKey, err)
	}
	if !ok {
		return newError(KindNotFound, nil, "key not found: %s", fullKey)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return newError(KindParseError, err, "failed to parse JSON for key %s: %v", fullKey, err)
	}
	return nil
}

// LoadAs is the typed form of Gateway.Load.
func LoadAs[T any](g *Gateway, key string) (T, error) {
	var out T
	if err := g.Load(key, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// LoadRecords decodes the JSON array under key one element at a time.
// Elements that do not decode into T are skipped and counted, so one bad
// record does not cost the rest of the collection.
func LoadRecords[T any](g *Gateway, key string) ([]T, int, error) {
	var raws []json.RawMessage
	if err := g.Load(key, &raws); err != nil {
		return []T{}, 0, err
	}
	records, skipped := decodeRecords[T](raws)
	return records, skipped, nil
}

func decodeRecords[T any](raws []json.RawMessage) ([]T, int) {
	records := make([]T, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		if string(raw) == "null" {
			skipped++
			continue
		}
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped
}

func (g *Gateway) Has(key string) (bool, error) {
	if g.medium == nil {
		return false, g.unavailable("has")
	}
	_, ok, err := g.medium.GetItem(g.key(key))
	if err != nil {
		return false, newError(KindUnknown, err, "failed to read key %s: %v", g.key(key), err)
	}
	return ok, nil
}

func (g *Gateway) Remove(key string) error {
	if g.medium == nil {
		return g.unavailable("remove")
	}
	if err := g.medium.RemoveItem(g.key(key)); err != nil {
		return newError(KindUnknown, err, "failed to remove key %s: %v", g.key(key), err)
	}
	return nil
}

// Clear removes the keys of this namespace, or the whole medium when no
// namespace is configured.
func (g *Gateway) Clear() error {
	if g.medium == nil {
		return g.unavailable("clear")
	}
	if g.namespace == "" {
		if err := g.medium.Clear(); err != nil {
			return newError(KindUnknown, err, "failed to clear storage: %v", err)
		}
		return nil
	}

	keys, err := g.medium.Keys()
	if err != nil {
		return newError(KindUnknown, err, "failed to clear storage for namespace %s: %v", g.namespace, err)
	}
	for _, k := range keys {
		if !g.inNamespace(k) {
			continue
		}
		if err := g.medium.RemoveItem(k); err != nil {
			return newError(KindUnknown, err, "failed to clear storage for namespace %s: %v", g.namespace, err)
		}
	}
	return nil
}

// UsedSpace sums the UTF-8 byte length of every namespaced key and value.
func (g *Gateway) UsedSpace() int {
	if g.medium == nil {
		return 0
	}
	keys, err := g.medium.Keys()
	if err != nil {
		return 0
	}
	total := 0
	for _, k := range keys {
		if !g.inNamespace(k) {
			continue
		}
		v, _, err := g.medium.GetItem(k)
		if err != nil {
			continue
		}
		total += len(k) + len(v)
	}
	return total
}

// AvailableSpace finds the largest payload, up to ceiling bytes, that can still
// be written under a probe key. It never fails: unexpected errors yield 0.
func (g *Gateway) AvailableSpace(ceiling int) int {
	if g.medium == nil {
		return 0
	}
	if ceiling <= 0 {
		ceiling = DefaultProbeCeiling
	}
	fullKey := g.key(probeKey)
	defer func() {
		_ = g.medium.RemoveItem(fullKey)
	}()

	low, high := 0, ceiling
	for low < high {
		mid := low + (high-low+1)/2
		err := g.medium.SetItem(fullKey, strings.Repeat("0", mid))
		switch {
		case err == nil:
			low = mid
		case IsQuotaExceeded(err):
			high = mid - 1
		default:
			return 0
		}
	}
	return low
}
