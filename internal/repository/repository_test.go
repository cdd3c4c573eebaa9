package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/water-quality-bot/internal/config"
	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/logging"
)

func openSQLite(t *testing.T) MeasurementRepository {
	t.Helper()
	repo, err := Open(context.Background(), config.StorageConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "nested", "wq.db"),
	}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// exerciseRepository runs the shared contract against any implementation
func exerciseRepository(t *testing.T, repo MeasurementRepository) {
	ctx := context.Background()

	last, err := repo.GetLastUpdateTime(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	initial := []entities.Measurement{
		{Time: 0, DissolvedOxygen: 8, Turbidity: entities.Float(1), PH: entities.Float(7)},
		{Time: 10, DissolvedOxygen: 7.5},
	}
	require.NoError(t, repo.ReplaceMeasurements(ctx, initial))

	got, err := repo.ListMeasurements(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, initial[0].Time, got[0].Time)
	require.NotNil(t, got[0].PH)
	assert.Equal(t, 7.0, *got[0].PH)
	assert.Nil(t, got[1].Turbidity)

	require.NoError(t, repo.SaveMeasurement(ctx, entities.Measurement{Time: 10, DissolvedOxygen: 7.0, PH: entities.Float(6.9)}))
	require.NoError(t, repo.SaveMeasurement(ctx, entities.Measurement{Time: 5, DissolvedOxygen: 7.8}))

	got, err = repo.ListMeasurements(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{0, 5, 10}, []float64{got[0].Time, got[1].Time, got[2].Time})
	assert.Equal(t, 7.0, got[2].DissolvedOxygen)

	last, err = repo.GetLastUpdateTime(ctx)
	require.NoError(t, err)
	assert.False(t, last.IsZero())

	require.NoError(t, repo.ReplaceMeasurements(ctx, []entities.Measurement{{Time: 1, DissolvedOxygen: 9}}))
	got, err = repo.ListMeasurements(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	older := entities.ImportRecord{ID: uuid.NewString(), Source: "a.csv", Accepted: 3, Skipped: 1, ImportedAt: time.Now().Add(-time.Hour)}
	newer := entities.ImportRecord{ID: uuid.NewString(), Source: "b.csv", Accepted: 5, ImportedAt: time.Now()}
	require.NoError(t, repo.SaveImport(ctx, older))
	require.NoError(t, repo.SaveImport(ctx, newer))

	imports, err := repo.ListImports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, newer.ID, imports[0].ID)
	assert.Equal(t, 1, imports[1].Skipped)
}

func TestSQLiteMeasurementRepository(t *testing.T) {
	exerciseRepository(t, openSQLite(t))
}

func TestPostgresMeasurementRepository(t *testing.T) {
	dsn := os.Getenv("WQ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WQ_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	repo, err := NewPostgresMeasurementRepository(ctx, dsn, logging.Nop())
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.pool.Exec(ctx, `TRUNCATE measurements, imports`)
	require.NoError(t, err)

	exerciseRepository(t, repo)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StorageConfig{Driver: "mysql"}, logging.Nop())
	assert.Error(t, err)
}
