package storage

import (
	"context"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

// Store persists full ledger snapshots. Load's second return is false when no
// snapshot has ever been saved.
type Store interface {
	Load(ctx context.Context) (model.State, bool, error)
	Save(ctx context.Context, state model.State) error
}
