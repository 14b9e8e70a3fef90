package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cim-tables/constants"
)

func openTestRepo(t *testing.T) *JobRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "jobs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestJobRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		repo := openTestRepo(t)

		id, err := repo.Create(ctx, "deck.pdf")
		require.NoError(t, err)

		job, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "deck.pdf", job.Filename)
		assert.Equal(t, constants.JobStatusQueued, job.Status)
		assert.Zero(t, job.TablesAccepted)
	})

	t.Run("status transitions", func(t *testing.T) {
		repo := openTestRepo(t)
		id, err := repo.Create(ctx, "deck.pdf")
		require.NoError(t, err)

		require.NoError(t, repo.MarkRunning(ctx, id))
		job, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, constants.JobStatusRunning, job.Status)

		require.NoError(t, repo.MarkExtracted(ctx, id, 3, 1, "deck-abc.xlsx"))
		job, err = repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, constants.JobStatusExtractOK, job.Status)
		assert.Equal(t, 3, job.TablesAccepted)
		assert.Equal(t, 1, job.TablesSkipped)
		assert.Equal(t, "deck-abc.xlsx", job.WorkbookFile)
	})

	t.Run("mark failed records the error", func(t *testing.T) {
		repo := openTestRepo(t)
		id, err := repo.Create(ctx, "deck.pdf")
		require.NoError(t, err)

		require.NoError(t, repo.MarkFailed(ctx, id, "model declined"))
		job, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, constants.JobStatusFailed, job.Status)
		assert.Equal(t, "model declined", job.Error)
	})

	t.Run("list recent returns newest first", func(t *testing.T) {
		repo := openTestRepo(t)
		for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
			_, err := repo.Create(ctx, name)
			require.NoError(t, err)
		}

		jobs, err := repo.ListRecent(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})

	t.Run("missing job errors", func(t *testing.T) {
		repo := openTestRepo(t)
		id, err := repo.Create(ctx, "x.pdf")
		require.NoError(t, err)

		other, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, other)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.Error(t, err)
	})
}
