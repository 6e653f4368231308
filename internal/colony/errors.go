package colony

import "errors"

// ErrConfig is returned when partition parameters are invalid: non-positive
// dimensions, or grid dimensions not evenly divisible by the shard size.
// It is fatal to the create call and is not retried.
var ErrConfig = errors.New("invalid grid configuration")

// ErrInvalidShardID is returned by ParseShardID for strings that are not in
// the canonical "{x}_{y}_{width}_{height}" form.
var ErrInvalidShardID = errors.New("invalid shard id")
