package projection

import (
	"context"
	"time"
)

const (
	boardKey = "projection:odds_board"

	// BoardTTL is how long a rendered odds board is served from cache.
	BoardTTL = 30 * time.Second
)

// PutBoard caches a rendered odds board.
func PutBoard(ctx context.Context, store Store, board interface{}) error {
	return SetJSON(ctx, store, boardKey, board, BoardTTL)
}

// GetBoard loads a cached odds board into dest.
func GetBoard(ctx context.Context, store Store, dest interface{}) error {
	return GetJSON(ctx, store, boardKey, dest)
}

// InvalidateBoard drops the cached odds board after ingestion or an override.
func InvalidateBoard(ctx context.Context, store Store) error {
	return store.Delete(ctx, boardKey)
}
