//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
	"github.com/healthbox/diabetes-risk/internal/infrastructure/postgres"
	pgpkg "github.com/healthbox/diabetes-risk/pkg/postgres"
	"github.com/healthbox/diabetes-risk/pkg/testutil"
)

func TestAssessmentRepository_Integration(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	pc.RunMigrations(t, "../../../migrations")

	require.NoError(t, pgpkg.HealthCheck(ctx, pc.Pool))
	repo := postgres.NewAssessmentRepository(pc.Pool)

	newAssessment := func(class int, pct float64) *model.Assessment {
		a, err := model.NewAssessment(model.PredictionResult{
			PredictedClass: class,
			ProbabilityPct: pct,
			RiskLevel:      valueobject.RiskLevelFromPrediction(class, pct),
		}, "logistic-v1")
		require.NoError(t, err)
		return a
	}

	t.Run("save and find", func(t *testing.T) {
		a := newAssessment(1, 83.21875)
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindByID(ctx, a.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, a.ID(), got.ID())
		assert.Equal(t, 1, got.PredictedClass())
		assert.InDelta(t, 83.2188, got.ProbabilityPct(), 1e-9)
		assert.Equal(t, valueobject.RiskLevelHigh, got.RiskLevel())
		assert.Equal(t, "logistic-v1", got.ModelVersion())
		assert.WithinDuration(t, a.AssessedAt(), got.AssessedAt(), time.Millisecond)
	})

	t.Run("save is idempotent", func(t *testing.T) {
		a := newAssessment(0, 12)
		require.NoError(t, repo.Save(ctx, a))
		require.NoError(t, repo.Save(ctx, a))
	})

	t.Run("find missing returns nil", func(t *testing.T) {
		got, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("count by risk level", func(t *testing.T) {
		since := time.Now().Add(-time.Minute)
		require.NoError(t, repo.Save(ctx, newAssessment(0, 45)))
		require.NoError(t, repo.Save(ctx, newAssessment(0, 30)))

		counts, err := repo.CountByRiskLevel(ctx, since)
		require.NoError(t, err)
		assert.Equal(t, 1, counts["High Risk"])
		assert.Equal(t, 1, counts["Low Risk"])
		assert.Equal(t, 2, counts["Moderate Risk"])

		none, err := repo.CountByRiskLevel(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
