package ledger

import (
	"context"
	"fmt"

	"pto/models"
)

// CleanUnfinishedEntries deletes the owner's other entries that never got
// hours allocated. Running it again deletes nothing.
func CleanUnfinishedEntries(ctx context.Context, store Store, keep *models.Entry) (int64, error) {
	n, err := store.DeleteUnfinishedEntries(ctx, keep.UserID, keep.ID)
	if err != nil {
		return 0, fmt.Errorf("ledger: clean unfinished entries: %w", err)
	}
	return n, nil
}
