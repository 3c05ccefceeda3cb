package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rusithink-backend/internal/domain"
	"rusithink-backend/internal/repository/postgres"
	"rusithink-backend/pkg/constants"
	apperrors "rusithink-backend/pkg/errors"
	"rusithink-backend/pkg/logger"
	"rusithink-backend/pkg/metrics"
)

// TaskReader interface
type TaskReader interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	ListAll(ctx context.Context) ([]*domain.Task, error)
}

// UserDirectory interface
type UserDirectory interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ListClients(ctx context.Context) ([]*domain.User, error)
}

// SnapshotStore interface
type SnapshotStore interface {
	UpsertClient(ctx context.Context, a *domain.ClientAnalytics) error
	UpsertAdminMonth(ctx context.Context, a *domain.AdminAnalytics) error
}

// Service computes and persists analytics snapshots. Snapshots are always
// recomputed from current task data before they are returned, so a stored
// snapshot is a cache of the latest computation, never the source of truth.
type Service struct {
	tasks     TaskReader
	users     UserDirectory
	snapshots SnapshotStore
	clock     func() time.Time
}

// NewService creates a new analytics service
func NewService(tasks TaskReader, users UserDirectory, snapshots SnapshotStore) *Service {
	return &Service{
		tasks:     tasks,
		users:     users,
		snapshots: snapshots,
		clock:     time.Now,
	}
}

// CalculateClientAnalytics recomputes the snapshot of one client from its
// tasks. Monthly spending buckets every priced task by its creation month.
func (s *Service) CalculateClientAnalytics(ctx context.Context, clientID uuid.UUID) (*domain.ClientAnalytics, error) {
	tasks, err := s.tasks.ListByOwner(ctx, clientID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	result := &domain.ClientAnalytics{
		ClientID:        clientID,
		MonthlySpending: map[string]decimal.Decimal{},
		CalculatedAt:    s.clock().UTC(),
	}

	for _, task := range tasks {
		result.TotalProjects++
		if task.Status == domain.TaskStatusCompleted {
			result.CompletedProjects++
		} else {
			result.PendingProjects++
		}
		if task.ProjectPrice != nil {
			result.TotalSpent = result.TotalSpent.Add(*task.ProjectPrice)
			key := domain.MonthKeyFor(task.CreatedAt)
			result.MonthlySpending[key] = result.MonthlySpending[key].Add(*task.ProjectPrice)
		}
	}

	if result.TotalProjects > 0 {
		result.AverageProjectValue = result.TotalSpent.Div(decimal.NewFromInt(int64(result.TotalProjects))).Round(4)
		result.ProjectCompletionRate = float64(result.CompletedProjects) / float64(result.TotalProjects) * 100
	}

	return result, nil
}

// CalculateAdminAnalytics recomputes the business-wide view for the last
// monthsBack calendar months, newest first. Months without activity are
// present with zero values, so the window always has exactly monthsBack
// entries.
func (s *Service) CalculateAdminAnalytics(ctx context.Context, monthsBack int) ([]*domain.AdminAnalytics, error) {
	if monthsBack == 0 {
		monthsBack = constants.DefaultAdminMonths
	}
	if monthsBack < 1 || monthsBack > constants.MaxAdminMonths {
		return nil, apperrors.ValidationError("months must be between 1 and 120")
	}

	tasks, err := s.tasks.ListAll(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	now := s.clock().UTC()
	currentMonth := domain.MonthIndex(now)

	// A client counts as new in the month of its earliest task
	firstTaskMonth := map[uuid.UUID]int{}
	for _, task := range tasks {
		month := domain.MonthIndex(task.CreatedAt)
		if first, ok := firstTaskMonth[task.OwnerID]; !ok || month < first {
			firstTaskMonth[task.OwnerID] = month
		}
	}

	byMonth := map[int][]*domain.Task{}
	for _, task := range tasks {
		month := domain.MonthIndex(task.CreatedAt)
		byMonth[month] = append(byMonth[month], task)
	}

	results := make([]*domain.AdminAnalytics, 0, monthsBack)
	for offset := 0; offset < monthsBack; offset++ {
		month := currentMonth - offset
		snapshot := &domain.AdminAnalytics{
			MonthYear:       domain.MonthKey(month),
			RevenueByClient: map[string]decimal.Decimal{},
			CalculatedAt:    now,
		}

		activeClients := map[uuid.UUID]bool{}
		for _, task := range byMonth[month] {
			snapshot.TotalProjects++
			if task.Status == domain.TaskStatusCompleted {
				snapshot.CompletedProjects++
			} else {
				snapshot.PendingProjects++
			}
			activeClients[task.OwnerID] = true
			if task.ProjectPrice != nil {
				snapshot.TotalRevenue = snapshot.TotalRevenue.Add(*task.ProjectPrice)
				key := task.OwnerID.String()
				snapshot.RevenueByClient[key] = snapshot.RevenueByClient[key].Add(*task.ProjectPrice)
			}
		}

		snapshot.ActiveClients = len(activeClients)
		for _, first := range firstTaskMonth {
			if first == month {
				snapshot.NewClients++
			}
		}
		if snapshot.TotalProjects > 0 {
			snapshot.AverageProjectValue = snapshot.TotalRevenue.Div(decimal.NewFromInt(int64(snapshot.TotalProjects))).Round(4)
			snapshot.ProjectCompletionRate = float64(snapshot.CompletedProjects) / float64(snapshot.TotalProjects) * 100
		}

		results = append(results, snapshot)
	}

	return results, nil
}

// GetClientAnalytics recomputes, stores, and returns one client snapshot.
// Clients can only read their own; the admin can read any client's.
func (s *Service) GetClientAnalytics(ctx context.Context, caller domain.Identity, clientID uuid.UUID) (*domain.ClientAnalytics, error) {
	if !caller.IsAdmin() && caller.UserID != clientID {
		return nil, apperrors.AccessDeniedError("clients can only access their own analytics")
	}

	user, err := s.users.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.ClientNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	if user.Role != domain.RoleClient {
		return nil, apperrors.ValidationError("user is not a client")
	}

	snapshot, err := s.CalculateClientAnalytics(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.UpsertClient(ctx, snapshot); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return snapshot, nil
}

// GetAdminAnalytics recomputes, stores, and returns the admin window.
// Admin only.
func (s *Service) GetAdminAnalytics(ctx context.Context, caller domain.Identity, monthsBack int) ([]*domain.AdminAnalytics, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}

	snapshots, err := s.CalculateAdminAnalytics(ctx, monthsBack)
	if err != nil {
		return nil, err
	}
	for _, snapshot := range snapshots {
		if err := s.snapshots.UpsertAdminMonth(ctx, snapshot); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
	}
	return snapshots, nil
}

// RecalculateAll refreshes every client snapshot and the recent admin
// months. A failing client is logged and skipped so one bad row cannot stall
// the batch. Admin only.
func (s *Service) RecalculateAll(ctx context.Context, caller domain.Identity) (*domain.RecalculationResult, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.AccessDeniedError("admin access required")
	}

	start := s.clock()
	defer func() {
		metrics.AnalyticsRecalculationDuration.Observe(time.Since(start).Seconds())
	}()

	clients, err := s.users.ListClients(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	result := &domain.RecalculationResult{}
	for _, client := range clients {
		snapshot, err := s.CalculateClientAnalytics(ctx, client.UserID)
		if err == nil {
			err = s.snapshots.UpsertClient(ctx, snapshot)
		}
		if err != nil {
			metrics.AnalyticsRecalculationTotal.WithLabelValues("client", "error").Inc()
			logger.Log.Warn("failed to recalculate client analytics",
				zap.String("client_id", client.UserID.String()),
				zap.Error(err))
			continue
		}
		metrics.AnalyticsRecalculationTotal.WithLabelValues("client", "ok").Inc()
		result.ClientsProcessed++
	}

	adminSnapshots, err := s.CalculateAdminAnalytics(ctx, constants.RecalculateAdminMonths)
	if err != nil {
		return nil, err
	}
	for _, snapshot := range adminSnapshots {
		if err := s.snapshots.UpsertAdminMonth(ctx, snapshot); err != nil {
			metrics.AnalyticsRecalculationTotal.WithLabelValues("admin_month", "error").Inc()
			logger.Log.Warn("failed to store admin analytics month",
				zap.String("month_year", snapshot.MonthYear),
				zap.Error(err))
			continue
		}
		metrics.AnalyticsRecalculationTotal.WithLabelValues("admin_month", "ok").Inc()
		result.AdminMonthsProcessed++
	}

	return result, nil
}
