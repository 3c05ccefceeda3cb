package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"rusithink-backend/internal/domain"
)

// AnalyticsRepository persists analytics snapshots in Postgres.
// Breakdown maps are stored as JSONB.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

func marshalBreakdown(m map[string]decimal.Decimal) ([]byte, error) {
	if m == nil {
		m = map[string]decimal.Decimal{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal breakdown: %w", err)
	}
	return data, nil
}

// UpsertClient stores the latest snapshot for a client, replacing any previous one
func (r *AnalyticsRepository) UpsertClient(ctx context.Context, a *domain.ClientAnalytics) error {
	spending, err := marshalBreakdown(a.MonthlySpending)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO client_analytics (
			client_id, total_projects, completed_projects, pending_projects,
			total_spent, average_project_value, project_completion_rate,
			monthly_spending, calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (client_id) DO UPDATE SET
			total_projects = EXCLUDED.total_projects,
			completed_projects = EXCLUDED.completed_projects,
			pending_projects = EXCLUDED.pending_projects,
			total_spent = EXCLUDED.total_spent,
			average_project_value = EXCLUDED.average_project_value,
			project_completion_rate = EXCLUDED.project_completion_rate,
			monthly_spending = EXCLUDED.monthly_spending,
			calculated_at = EXCLUDED.calculated_at
	`

	_, err = r.pool.Exec(ctx, query,
		a.ClientID,
		a.TotalProjects,
		a.CompletedProjects,
		a.PendingProjects,
		a.TotalSpent,
		a.AverageProjectValue,
		a.ProjectCompletionRate,
		spending,
		a.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert client analytics: %w", err)
	}
	return nil
}

// DeleteClient removes the stored snapshot of a client. Deleting an absent
// row is not an error; account removal calls this unconditionally.
func (r *AnalyticsRepository) DeleteClient(ctx context.Context, clientID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM client_analytics WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete client analytics: %w", err)
	}
	return nil
}

// UpsertAdminMonth stores the business-wide snapshot for one month, replacing
// any previous row for the same month_year key
func (r *AnalyticsRepository) UpsertAdminMonth(ctx context.Context, a *domain.AdminAnalytics) error {
	revenue, err := marshalBreakdown(a.RevenueByClient)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO admin_analytics (
			month_year, total_revenue, total_projects, completed_projects,
			pending_projects, new_clients, active_clients, average_project_value,
			project_completion_rate, revenue_by_client, calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (month_year) DO UPDATE SET
			total_revenue = EXCLUDED.total_revenue,
			total_projects = EXCLUDED.total_projects,
			completed_projects = EXCLUDED.completed_projects,
			pending_projects = EXCLUDED.pending_projects,
			new_clients = EXCLUDED.new_clients,
			active_clients = EXCLUDED.active_clients,
			average_project_value = EXCLUDED.average_project_value,
			project_completion_rate = EXCLUDED.project_completion_rate,
			revenue_by_client = EXCLUDED.revenue_by_client,
			calculated_at = EXCLUDED.calculated_at
	`

	_, err = r.pool.Exec(ctx, query,
		a.MonthYear,
		a.TotalRevenue,
		a.TotalProjects,
		a.CompletedProjects,
		a.PendingProjects,
		a.NewClients,
		a.ActiveClients,
		a.AverageProjectValue,
		a.ProjectCompletionRate,
		revenue,
		a.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert admin analytics: %w", err)
	}
	return nil
}
