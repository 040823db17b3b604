package services

import (
	"database/sql"
	"math"

	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/models"
)

// RatingService keeps walker rating aggregates consistent with the set of
// rated reservations. It is the only writer of Walker.Rating and
// Walker.TotalReviews.
type RatingService struct {
	DB *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{DB: db}
}

// RecalculateWalkerRating recomputes total_reviews and the mean rating for
// one walker from scratch. Recomputing from the full rated set keeps
// concurrent ratings convergent: whichever recalculation commits last has
// read a superset of the other's data.
func (rs *RatingService) RecalculateWalkerRating(walkerID uint) error {
	return rs.DB.Transaction(func(tx *gorm.DB) error {
		rated := tx.Model(&models.WalkReservation{}).
			Where("walker_id = ? AND client_rating IS NOT NULL", walkerID)

		var total int64
		if err := rated.Count(&total).Error; err != nil {
			return err
		}

		rating := 0.0
		if total > 0 {
			var avg sql.NullFloat64
			if err := tx.Model(&models.WalkReservation{}).
				Where("walker_id = ? AND client_rating IS NOT NULL", walkerID).
				Select("AVG(client_rating)").
				Row().Scan(&avg); err != nil {
				return err
			}
			if avg.Valid {
				rating = math.Round(avg.Float64*100) / 100
			}
		}

		return tx.Model(&models.Walker{}).
			Where("id = ?", walkerID).
			Updates(map[string]interface{}{
				"rating":        rating,
				"total_reviews": total,
			}).Error
	})
}
