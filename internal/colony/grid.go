package colony

import "fmt"

// GridConfig describes the cluster's grid shape: the overall simulated grid
// dimensions plus the dimensions of each shard. The shape is runtime
// configuration passed into the cluster-create operation; it is never a
// compiled-in constant.
type GridConfig struct {
	GridWidth   int `json:"grid_width"`
	GridHeight  int `json:"grid_height"`
	ShardWidth  int `json:"shard_width"`
	ShardHeight int `json:"shard_height"`
}

// Validate checks that the grid shape can be tiled exactly.
//
// All dimensions must be positive and the grid dimensions must be evenly
// divisible by the shard dimensions. Configurations that would leave
// partial trailing shards are rejected rather than silently truncated.
func (c GridConfig) Validate() error {
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return fmt.Errorf("%w: grid dimensions %dx%d must be positive", ErrConfig, c.GridWidth, c.GridHeight)
	}
	if c.ShardWidth <= 0 || c.ShardHeight <= 0 {
		return fmt.Errorf("%w: shard dimensions %dx%d must be positive", ErrConfig, c.ShardWidth, c.ShardHeight)
	}
	if c.GridWidth%c.ShardWidth != 0 {
		return fmt.Errorf("%w: grid width %d is not a multiple of shard width %d", ErrConfig, c.GridWidth, c.ShardWidth)
	}
	if c.GridHeight%c.ShardHeight != 0 {
		return fmt.Errorf("%w: grid height %d is not a multiple of shard height %d", ErrConfig, c.GridHeight, c.ShardHeight)
	}
	return nil
}

// WidthInShards returns the number of shard columns.
func (c GridConfig) WidthInShards() int { return c.GridWidth / c.ShardWidth }

// HeightInShards returns the number of shard rows.
func (c GridConfig) HeightInShards() int { return c.GridHeight / c.ShardHeight }

// Partition tiles the grid into shards, starting at the origin and
// proceeding row-major (left to right, then top to bottom).
//
// The returned shards are pairwise disjoint and their union covers the grid
// exactly. Partition is a pure function: the same config always produces
// the same ordered shard list.
func Partition(cfg GridConfig) ([]Shard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shards := make([]Shard, 0, cfg.WidthInShards()*cfg.HeightInShards())
	for y := 0; y < cfg.HeightInShards(); y++ {
		for x := 0; x < cfg.WidthInShards(); x++ {
			shards = append(shards, Shard{
				X:      x * cfg.ShardWidth,
				Y:      y * cfg.ShardHeight,
				Width:  cfg.ShardWidth,
				Height: cfg.ShardHeight,
			})
		}
	}
	return shards, nil
}
