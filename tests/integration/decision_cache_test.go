package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwarner/loginguard/internal/models"
	"github.com/mwarner/loginguard/internal/repositories"
)

// An upsert followed by a read for the same address must return the
// just-written decision even while other addresses are being upserted
// concurrently.
func TestDecisionCache_ReadYourWriteUnderConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.CleanupTables(ctx))
	repo := repositories.NewDecisionRepository(testDB.DB)

	const (
		writers          = 16
		upsertsPerWriter = 25
	)
	target := "203.0.113.200"
	now := time.Now().Unix()

	start := make(chan struct{})
	errs := make(chan error, writers*upsertsPerWriter)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			address := fmt.Sprintf("198.51.100.%d", n)
			for j := 0; j < upsertsPerWriter; j++ {
				if err := repo.Upsert(ctx, address, models.DecisionChallenge, now); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	close(start)

	// Interleave target writes with the background churn.
	sequence := []models.Decision{
		models.DecisionBlock,
		models.DecisionChallenge,
		models.DecisionAllow,
		models.DecisionBlock,
	}
	for _, want := range sequence {
		require.NoError(t, repo.Upsert(ctx, target, want, now))
		got, err := repo.Read(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// The churn landed: every background address holds its decision.
	for i := 0; i < writers; i++ {
		got, err := repo.Read(ctx, fmt.Sprintf("198.51.100.%d", i))
		require.NoError(t, err)
		assert.Equal(t, models.DecisionChallenge, got)
	}
}
