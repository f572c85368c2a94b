package cache

// NoopStore never stores anything. Every fetch becomes a network request.
type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (c *NoopStore) Get(key TileKey) ([]byte, bool) { return nil, false }

func (c *NoopStore) Has(key TileKey) bool { return false }

func (c *NoopStore) Set(key TileKey, value []byte) {}

func (c *NoopStore) Clear() {}
