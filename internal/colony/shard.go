package colony

import (
	"fmt"
	"strconv"
	"strings"
)

// Shard represents a rectangular sub-region of the simulated grid.
// Identity is structural: two shards are equal exactly when their origin
// and dimensions are equal. There is no separate id field; the canonical
// string form is derived on demand (see ID).
type Shard struct {
	X      int `json:"x"`      // Left edge of the shard, in grid cells
	Y      int `json:"y"`      // Top edge of the shard, in grid cells
	Width  int `json:"width"`  // Width of the shard, in grid cells
	Height int `json:"height"` // Height of the shard, in grid cells
}

// ID returns the canonical string form "{x}_{y}_{width}_{height}".
//
// The string form is used at the HTTP and logging boundary only; internal
// code compares Shard values directly. ParseShardID is the inverse:
// ParseShardID(s.ID()) == s for every Shard.
func (s Shard) ID() string {
	return fmt.Sprintf("%d_%d_%d_%d", s.X, s.Y, s.Width, s.Height)
}

// ParseShardID parses the canonical "{x}_{y}_{width}_{height}" form back
// into a Shard. It returns an error wrapping ErrInvalidShardID (never
// panics) for strings with the wrong number of parts or with non-integer
// parts.
func ParseShardID(id string) (Shard, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 4 {
		return Shard{}, fmt.Errorf("%w %q: expected 4 parts, got %d", ErrInvalidShardID, id, len(parts))
	}

	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Shard{}, fmt.Errorf("%w %q: invalid x coordinate", ErrInvalidShardID, id)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Shard{}, fmt.Errorf("%w %q: invalid y coordinate", ErrInvalidShardID, id)
	}
	width, err := strconv.Atoi(parts[2])
	if err != nil {
		return Shard{}, fmt.Errorf("%w %q: invalid width", ErrInvalidShardID, id)
	}
	height, err := strconv.Atoi(parts[3])
	if err != nil {
		return Shard{}, fmt.Errorf("%w %q: invalid height", ErrInvalidShardID, id)
	}

	return Shard{X: x, Y: y, Width: width, Height: height}, nil
}

// Contains reports whether the grid cell (x, y) falls inside the shard.
func (s Shard) Contains(x, y int) bool {
	return x >= s.X && x < s.X+s.Width && y >= s.Y && y < s.Y+s.Height
}

// Overlaps reports whether two shards share at least one grid cell.
func (s Shard) Overlaps(o Shard) bool {
	return s.X < o.X+o.Width && o.X < s.X+s.Width &&
		s.Y < o.Y+o.Height && o.Y < s.Y+s.Height
}
