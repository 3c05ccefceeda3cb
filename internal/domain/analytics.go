package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientAnalytics is the per-client snapshot, recomputed on demand and
// persisted as the single latest row per client.
type ClientAnalytics struct {
	ClientID              uuid.UUID                  `json:"client_id" db:"client_id"`
	TotalProjects         int                        `json:"total_projects" db:"total_projects"`
	CompletedProjects     int                        `json:"completed_projects" db:"completed_projects"`
	PendingProjects       int                        `json:"pending_projects" db:"pending_projects"`
	TotalSpent            decimal.Decimal            `json:"total_spent" db:"total_spent"`
	AverageProjectValue   decimal.Decimal            `json:"average_project_value" db:"average_project_value"`
	ProjectCompletionRate float64                    `json:"project_completion_rate" db:"project_completion_rate"`
	MonthlySpending       map[string]decimal.Decimal `json:"monthly_spending" db:"monthly_spending"`
	CalculatedAt          time.Time                  `json:"calculated_at" db:"calculated_at"`
}

// AdminAnalytics is the business-wide snapshot for one calendar month,
// persisted per month_year key and overwritten on recomputation.
type AdminAnalytics struct {
	MonthYear             string                     `json:"month_year" db:"month_year"`
	TotalRevenue          decimal.Decimal            `json:"total_revenue" db:"total_revenue"`
	TotalProjects         int                        `json:"total_projects" db:"total_projects"`
	CompletedProjects     int                        `json:"completed_projects" db:"completed_projects"`
	PendingProjects       int                        `json:"pending_projects" db:"pending_projects"`
	NewClients            int                        `json:"new_clients" db:"new_clients"`
	ActiveClients         int                        `json:"active_clients" db:"active_clients"`
	AverageProjectValue   decimal.Decimal            `json:"average_project_value" db:"average_project_value"`
	ProjectCompletionRate float64                    `json:"project_completion_rate" db:"project_completion_rate"`
	RevenueByClient       map[string]decimal.Decimal `json:"revenue_by_client" db:"revenue_by_client"`
	CalculatedAt          time.Time                  `json:"calculated_at" db:"calculated_at"`
}

// RecalculationResult reports a completed analytics batch
type RecalculationResult struct {
	ClientsProcessed     int `json:"clients_processed"`
	AdminMonthsProcessed int `json:"admin_months_processed"`
}

// MonthIndex converts a time to a linear month counter (year*12 + month - 1)
// in UTC. Linear arithmetic makes lookback windows of any size safe across
// year boundaries.
func MonthIndex(t time.Time) int {
	u := t.UTC()
	return u.Year()*12 + int(u.Month()) - 1
}

// MonthKey renders a linear month index as its "YYYY-MM" bucket key
func MonthKey(index int) string {
	return fmt.Sprintf("%04d-%02d", index/12, index%12+1)
}

// MonthKeyFor renders the "YYYY-MM" bucket key of a timestamp in UTC
func MonthKeyFor(t time.Time) string {
	return MonthKey(MonthIndex(t))
}
