package cache

// TileKey identifies one cached tile. Map is part of the key so that tiles
// from different maps sharing a zoom and coordinate never collide.
type TileKey struct {
	Map  string
	Zoom int
	X    int
	Y    int
}

type Store interface {
	Get(key TileKey) ([]byte, bool)
	Set(key TileKey, value []byte)
	Has(key TileKey) bool // Check if tile exists without reading it (lightweight check)
	Clear()
}
