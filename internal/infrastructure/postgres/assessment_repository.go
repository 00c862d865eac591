package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/healthbox/diabetes-risk/internal/domain/model"
	"github.com/healthbox/diabetes-risk/internal/domain/valueobject"
	pgpkg "github.com/healthbox/diabetes-risk/pkg/postgres"
)

// probabilityScale is the number of decimal places stored for probabilities.
const probabilityScale = 4

// AssessmentRepository implements port.AssessmentRepository using PostgreSQL.
type AssessmentRepository struct {
	db pgpkg.Querier
}

// NewAssessmentRepository creates a new PostgreSQL-backed assessment repository.
func NewAssessmentRepository(db pgpkg.Querier) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Save inserts an assessment. Saving the same ID twice is a no-op.
func (r *AssessmentRepository) Save(ctx context.Context, a *model.Assessment) error {
	query := `
		INSERT INTO risk_assessments (
			id, predicted_class, probability_pct, risk_level, model_version, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		a.ID(),
		a.PredictedClass(),
		decimal.NewFromFloat(a.ProbabilityPct()).Round(probabilityScale),
		a.RiskLevel().String(),
		a.ModelVersion(),
		a.AssessedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

// FindByID retrieves an assessment by ID. It returns nil, nil when absent.
func (r *AssessmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	query := `
		SELECT id, predicted_class, probability_pct, risk_level, model_version, assessed_at
		FROM risk_assessments
		WHERE id = $1
	`

	var (
		rowID          uuid.UUID
		predictedClass int
		probability    decimal.Decimal
		riskLevelStr   string
		modelVersion   string
		assessedAt     time.Time
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rowID, &predictedClass, &probability, &riskLevelStr, &modelVersion, &assessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	riskLevel, err := valueobject.RiskLevelFromString(riskLevelStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse risk level: %w", err)
	}

	return model.ReconstructAssessment(
		rowID,
		predictedClass,
		probability.InexactFloat64(),
		riskLevel,
		modelVersion,
		assessedAt.UTC(),
	), nil
}

// CountByRiskLevel returns the number of assessments per risk label since the given time.
func (r *AssessmentRepository) CountByRiskLevel(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT risk_level, COUNT(*)
		FROM risk_assessments
		WHERE assessed_at >= $1
		GROUP BY risk_level
	`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk level counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			level string
			n     int
		)
		if err := rows.Scan(&level, &n); err != nil {
			return nil, fmt.Errorf("failed to scan risk level count: %w", err)
		}
		counts[level] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate risk level counts: %w", err)
	}
	return counts, nil
}
