package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/utils"
)

// StatsService derives per-walker counters from the reservation set.
type StatsService struct {
	DB    *gorm.DB
	Clock utils.Clock
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db, Clock: utils.RealClock{}}
}

type MonthlyCount struct {
	Month     string `json:"month"`
	Completed int64  `json:"completed"`
}

type WalkerStats struct {
	WalkerID              uint           `json:"walker_id"`
	Name                  string         `json:"name"`
	Rating                float64        `json:"rating"`
	TotalReviews          int            `json:"total_reviews"`
	TotalReservations     int64          `json:"total_reservations"`
	PendingReservations   int64          `json:"pending_reservations"`
	ConfirmedReservations int64          `json:"confirmed_reservations"`
	CompletedReservations int64          `json:"completed_reservations"`
	ReservationsThisMonth int64          `json:"reservations_this_month"`
	ReservationsLastMonth int64          `json:"reservations_last_month"`
	UniqueClients         int64          `json:"unique_clients"`
	UniqueDogs            int64          `json:"unique_dogs"`
	MonthlyTrend          []MonthlyCount `json:"monthly_trend"`
}

// GetWalkerStats computes status totals, month-over-month booking counts,
// distinct client/dog counts and a 6-month completed-walk trend (oldest
// month first). Month buckets are computed in Go because mysql and sqlite
// spell date truncation differently.
func (ss *StatsService) GetWalkerStats(walkerID uint) (*WalkerStats, error) {
	var walker models.Walker
	if err := ss.DB.First(&walker, walkerID).Error; err != nil {
		return nil, err
	}

	stats := &WalkerStats{
		WalkerID:     walker.ID,
		Name:         walker.Name,
		Rating:       walker.Rating,
		TotalReviews: walker.TotalReviews,
	}

	scope := func() *gorm.DB {
		return ss.DB.Model(&models.WalkReservation{}).Where("walker_id = ?", walkerID)
	}

	if err := scope().Count(&stats.TotalReservations).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("status = ?", models.StatusPending).Count(&stats.PendingReservations).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("status = ?", models.StatusConfirmed).Count(&stats.ConfirmedReservations).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("status = ?", models.StatusCompleted).Count(&stats.CompletedReservations).Error; err != nil {
		return nil, err
	}

	now := ss.Clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	if err := scope().Where("created_at >= ?", monthStart).
		Count(&stats.ReservationsThisMonth).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("created_at >= ? AND created_at < ?", prevMonthStart, monthStart).
		Count(&stats.ReservationsLastMonth).Error; err != nil {
		return nil, err
	}

	if err := scope().Distinct("client_id").Count(&stats.UniqueClients).Error; err != nil {
		return nil, err
	}
	if err := scope().Distinct("dog_id").Count(&stats.UniqueDogs).Error; err != nil {
		return nil, err
	}

	// Rolling 6-month window ending with the current month.
	for i := 5; i >= 0; i-- {
		bucketStart := monthStart.AddDate(0, -i, 0)
		bucketEnd := bucketStart.AddDate(0, 1, 0)

		var completed int64
		if err := scope().
			Where("status = ? AND created_at >= ? AND created_at < ?", models.StatusCompleted, bucketStart, bucketEnd).
			Count(&completed).Error; err != nil {
			return nil, err
		}
		stats.MonthlyTrend = append(stats.MonthlyTrend, MonthlyCount{
			Month:     bucketStart.Format("Jan"),
			Completed: completed,
		})
	}

	return stats, nil
}
