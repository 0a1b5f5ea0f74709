package transform

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Batch identifies one import run. Row IDs are unique within the batch by
// construction (import timestamp + row index); they are never used for
// deduplication, which goes by the bank's reference number.
type Batch struct {
	importID  string
	startedAt time.Time
}

// NewBatch creates a batch stamped with the current time.
func NewBatch() *Batch {
	return NewBatchAt(time.Now())
}

// NewBatchAt creates a batch with an explicit start time (tests).
func NewBatchAt(startedAt time.Time) *Batch {
	return &Batch{
		importID:  uuid.New().String(),
		startedAt: startedAt,
	}
}

// ImportID returns the unique identifier of this import run.
func (b *Batch) ImportID() string { return b.importID }

// StartedAt returns the batch start time, also used as the date fallback.
func (b *Batch) StartedAt() time.Time { return b.startedAt }

// RowID generates the local transaction ID for a row of this batch.
// Format: txn-{batchUnixMilli}-{rowIndex}
func (b *Batch) RowID(index int) string {
	return fmt.Sprintf("txn-%d-%d", b.startedAt.UnixMilli(), index)
}
