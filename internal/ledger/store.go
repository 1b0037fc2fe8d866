package ledger

import (
	"context"

	"tokenEngine/internal/model"
)

// Store owns the persisted ledger. Callers read the whole snapshot,
// modify it in memory and write a collection back; the engine serializes
// those sequences.
type Store interface {
	// Load returns the full ledger snapshot. Absent data yields an
	// empty ledger so the system can start cold; an unreachable
	// backend is an error, never an empty snapshot.
	Load(ctx context.Context) (model.Ledger, error)
	// SaveDeployments atomically replaces the deployments collection.
	SaveDeployments(ctx context.Context, deployments []model.Deployment) error
	// SaveEvents atomically replaces the issuance event collection.
	SaveEvents(ctx context.Context, events []model.IssuanceEvent) error
}
