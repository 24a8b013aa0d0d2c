package claim

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for analyzed claims.  Implementations
// live in internal/infrastructure/database; the pipeline and handlers depend
// only on this interface.
type Repository interface {
	// Snapshot returns the historical corpus used to derive frequency and
	// cost-outlier features.  The snapshot is a point-in-time read; claims
	// saved afterwards are not reflected.
	Snapshot(ctx context.Context) ([]HistoricalRecord, error)

	// Save appends one scored claim.  Save never updates existing rows.
	Save(ctx context.Context, rec *ClaimRecord) error

	// Stats aggregates the stored corpus.
	Stats(ctx context.Context) (*Stats, error)

	// RecordFeedback attaches an adjuster's fraud label to a stored claim.
	// Returns a not-found error when id is unknown.
	RecordFeedback(ctx context.Context, id uuid.UUID, isFraud bool) error
}

// EventPublisher is the outbound messaging contract for claim lifecycle
// events.  Publishing is best effort; the pipeline logs failures and
// continues.
type EventPublisher interface {
	// ClaimAnalyzed announces a completed analysis.
	ClaimAnalyzed(ctx context.Context, v *Verdict) error

	// ClaimFlagged announces a high-risk classification.
	ClaimFlagged(ctx context.Context, v *Verdict) error
}

// DocumentArchive is the outbound object-storage contract for uploaded claim
// documents.  Archiving is best effort and happens after the verdict is
// produced.
type DocumentArchive interface {
	// Store archives the original document bytes under the claim's id and
	// returns the storage key.
	Store(ctx context.Context, claimID uuid.UUID, filename string, data []byte) (string, error)
}
