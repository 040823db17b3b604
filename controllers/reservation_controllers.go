package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/services"
	"github.com/giovanni-pe/api-smarpx/utils"
)

// Transition failures surfaced by the lifecycle engine. Each maps to a
// machine-readable code in transitionErrorResponse.
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNotPending          = errors.New("reservation is not in pending status")
	ErrNotConfirmed        = errors.New("reservation is not in confirmed status")
	ErrNotInProgress       = errors.New("reservation is not in progress")
	ErrNotCancelable       = errors.New("only pending or confirmed reservations can be cancelled")
	ErrNotCompleted        = errors.New("only completed reservations can be rated")
	ErrPastDated           = errors.New("reservation date/time is already in the past")
	ErrTooLateToCancel     = errors.New("reservations can only be cancelled more than 2 hours in advance")
	ErrAlreadyRated        = errors.New("this reservation has already been rated")
)

type ReservationController struct {
	DB      *gorm.DB
	Clock   utils.Clock
	Ratings *services.RatingService
}

func NewReservationController(db *gorm.DB) *ReservationController {
	return &ReservationController{
		DB:      db,
		Clock:   utils.RealClock{},
		Ratings: services.NewRatingService(db),
	}
}

// CreateReservation -> book a walk. Status is always forced to pending
// regardless of what the caller sends.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	type reqBody struct {
		ClientID        uint   `json:"client_id" binding:"required"`
		DogID           uint   `json:"dog_id" binding:"required"`
		WalkerID        *uint  `json:"walker_id"`
		ReservationDate string `json:"reservation_date" binding:"required"`
		ReservationTime string `json:"reservation_time" binding:"required"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}

	if _, err := time.Parse("2006-01-02", req.ReservationDate); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed,
			errors.New("reservation_date must be formatted as YYYY-MM-DD"))
		return
	}
	normalizedTime, err := normalizeTimeOfDay(req.ReservationTime)
	if err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}

	// Referenced entities must exist before the booking is accepted.
	var client models.Client
	if err := rc.DB.First(&client, req.ClientID).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("client not found"))
		return
	}
	var dog models.Dog
	if err := rc.DB.First(&dog, req.DogID).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("dog not found"))
		return
	}
	if req.WalkerID != nil {
		var walker models.Walker
		if err := rc.DB.First(&walker, *req.WalkerID).Error; err != nil {
			utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("walker not found"))
			return
		}
	}

	reservation := models.WalkReservation{
		ClientID:        req.ClientID,
		DogID:           req.DogID,
		WalkerID:        req.WalkerID,
		ReservationDate: req.ReservationDate,
		ReservationTime: normalizedTime,
		Status:          models.StatusPending,
	}

	if err := rc.DB.Create(&reservation).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.InfoLogger.Printf("Reservation %d created (client=%d dog=%d)", reservation.ID, reservation.ClientID, reservation.DogID)
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", reservation)
}

// CreateDemoReservation -> simplified booking flow for visitors: reuse or
// create the client by email, always create a new dog, attach it, and book
// a walk for tomorrow at 10:00. The whole sequence is one transaction so a
// failure in any step leaves no partial state behind.
func (rc *ReservationController) CreateDemoReservation(c *gin.Context) {
	type reqBody struct {
		Name      string  `json:"name" binding:"required,max=100"`
		Email     string  `json:"email" binding:"required,email"`
		Phone     *string `json:"phone"`
		DogName   string  `json:"dog_name" binding:"required,max=100"`
		DogBreed  string  `json:"dog_breed" binding:"required,max=100"`
		DogAge    string  `json:"dog_age" binding:"required,max=30"`
		DogEnergy string  `json:"dog_energy" binding:"required"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}
	if !models.ValidEnergyLevel(req.DogEnergy) {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed,
			errors.New("dog_energy must be one of low, medium, high"))
		return
	}

	now := rc.Clock.Now()
	var reservation models.WalkReservation

	err := rc.DB.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		err := tx.Where("email = ?", req.Email).First(&client).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			client = models.Client{
				Name:  req.Name,
				Email: req.Email,
				Phone: req.Phone,
			}
			if err := tx.Create(&client).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// Demo dogs are never reused between bookings.
		dog := models.Dog{
			Name:        req.DogName,
			Breed:       req.DogBreed,
			Age:         req.DogAge,
			Size:        "medium",
			EnergyLevel: req.DogEnergy,
		}
		if err := tx.Create(&dog).Error; err != nil {
			return err
		}
		if err := tx.Model(&client).Association("Dogs").Append(&dog); err != nil {
			return err
		}

		reservation = models.WalkReservation{
			ClientID:        client.ID,
			DogID:           dog.ID,
			WalkerID:        nil,
			ReservationDate: now.AddDate(0, 0, 1).Format("2006-01-02"),
			ReservationTime: "10:00:00",
			Status:          models.StatusPending,
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		utils.ErrorLogger.Printf("Demo reservation failed for %s: %v", req.Email, err)
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.InfoLogger.Printf("Demo reservation %d created for %s", reservation.ID, req.Email)
	utils.RespondJSON(c, http.StatusOK, "Demo reservation created successfully, we will contact you soon!", gin.H{
		"reference":   uuid.NewString(),
		"reservation": reservation,
	})
}

// Accept -> walker confirms a pending reservation. Past-dated walks can
// no longer be accepted.
func (rc *ReservationController) Accept(c *gin.Context) {
	now := rc.Clock.Now()
	rc.transition(c, func(tx *gorm.DB, reservation *models.WalkReservation) error {
		if reservation.Status != models.StatusPending {
			return ErrNotPending
		}
		scheduledAt, err := reservation.ScheduledAt(now.Location())
		if err != nil {
			return err
		}
		if scheduledAt.Before(now) {
			return ErrPastDated
		}
		reservation.Status = models.StatusConfirmed
		reservation.ConfirmedAt = &now
		return tx.Save(reservation).Error
	}, "Reservation confirmed")
}

// Reject -> walker declines a pending reservation.
func (rc *ReservationController) Reject(c *gin.Context) {
	type reqBody struct {
		Reason string `json:"reason"`
	}
	// Body is optional for rejections.
	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	now := rc.Clock.Now()
	rc.transition(c, func(tx *gorm.DB, reservation *models.WalkReservation) error {
		if reservation.Status != models.StatusPending {
			return ErrNotPending
		}
		reservation.Status = models.StatusCancelled
		reservation.CancelledAt = &now
		if req.Reason != "" {
			reservation.RejectionReason = &req.Reason
		}
		walker := models.CancelledByWalker
		reservation.CancelledBy = &walker
		return tx.Save(reservation).Error
	}, "Reservation rejected")
}

// Start -> walker begins a confirmed walk.
func (rc *ReservationController) Start(c *gin.Context) {
	now := rc.Clock.Now()
	rc.transition(c, func(tx *gorm.DB, reservation *models.WalkReservation) error {
		if reservation.Status != models.StatusConfirmed {
			return ErrNotConfirmed
		}
		reservation.Status = models.StatusInProgress
		reservation.StartedAt = &now
		return tx.Save(reservation).Error
	}, "Walk started")
}

// Complete -> walker finishes an in-progress walk, optionally recording
// notes and the actual duration.
func (rc *ReservationController) Complete(c *gin.Context) {
	type reqBody struct {
		Notes           string `json:"notes"`
		DurationMinutes *int   `json:"duration_minutes"`
	}
	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		req = reqBody{}
	}

	now := rc.Clock.Now()
	rc.transition(c, func(tx *gorm.DB, reservation *models.WalkReservation) error {
		if reservation.Status != models.StatusInProgress {
			return ErrNotInProgress
		}
		reservation.Status = models.StatusCompleted
		reservation.CompletedAt = &now
		if req.Notes != "" {
			reservation.CompletionNotes = &req.Notes
		}
		reservation.DurationMinutes = req.DurationMinutes
		return tx.Save(reservation).Error
	}, "Walk completed")
}

// CancelByClient -> client cancels a pending or confirmed reservation,
// allowed up to 2 hours before the scheduled walk.
func (rc *ReservationController) CancelByClient(c *gin.Context) {
	type reqBody struct {
		Reason string `json:"reason"`
	}
	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	now := rc.Clock.Now()
	rc.transition(c, func(tx *gorm.DB, reservation *models.WalkReservation) error {
		if reservation.Status != models.StatusPending && reservation.Status != models.StatusConfirmed {
			return ErrNotCancelable
		}
		scheduledAt, err := reservation.ScheduledAt(now.Location())
		if err != nil {
			return err
		}
		if !now.Add(2 * time.Hour).Before(scheduledAt) {
			return ErrTooLateToCancel
		}
		reservation.Status = models.StatusCancelled
		reservation.CancelledAt = &now
		if req.Reason != "" {
			reservation.CancellationReason = &req.Reason
		}
		client := models.CancelledByClient
		reservation.CancelledBy = &client
		return tx.Save(reservation).Error
	}, "Reservation cancelled")
}

// Rate -> client rates a completed walk exactly once. The walker's average
// rating is recomputed afterwards; a failure there is logged but does not
// undo the rating itself.
func (rc *ReservationController) Rate(c *gin.Context) {
	type reqBody struct {
		Rating int    `json:"rating" binding:"required,min=1,max=5"`
		Review string `json:"review"`
	}
	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}

	now := rc.Clock.Now()
	var reservation models.WalkReservation
	err := rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, c.Param("reservation_id")).Error; err != nil {
			return ErrReservationNotFound
		}
		if reservation.Status != models.StatusCompleted {
			return ErrNotCompleted
		}
		if reservation.ClientRating != nil {
			return ErrAlreadyRated
		}
		reservation.ClientRating = &req.Rating
		if req.Review != "" {
			reservation.ClientReview = &req.Review
		}
		reservation.RatedAt = &now
		return tx.Save(&reservation).Error
	})
	if err != nil {
		transitionErrorResponse(c, err)
		return
	}

	// Best effort: the rate call already committed, so an aggregator
	// failure must not be surfaced as a failure of this request.
	if reservation.WalkerID != nil {
		if err := rc.Ratings.RecalculateWalkerRating(*reservation.WalkerID); err != nil {
			utils.ErrorLogger.Printf("Rating recalculation failed for walker %d: %v", *reservation.WalkerID, err)
		}
	}

	utils.InfoLogger.Printf("Reservation %d rated %d/5", reservation.ID, req.Rating)
	utils.RespondJSON(c, http.StatusOK, "Reservation rated", reservation)
}

// GetWalkerReservations -> list a walker's reservations, most recent walk
// first, with optional status and date range filters.
func (rc *ReservationController) GetWalkerReservations(c *gin.Context) {
	var walker models.Walker
	if err := rc.DB.First(&walker, c.Param("walker_id")).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("walker not found"))
		return
	}
	rc.listReservations(c, "walker_id", walker.ID)
}

// GetClientReservations -> list a client's reservations with the same
// filters and ordering as the walker listing.
func (rc *ReservationController) GetClientReservations(c *gin.Context) {
	var client models.Client
	if err := rc.DB.First(&client, c.Param("client_id")).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("client not found"))
		return
	}
	rc.listReservations(c, "client_id", client.ID)
}

// GetMyReservations -> reservations of the authenticated user's client
// profile. Users without a linked client profile get a 404, never a
// fallback id.
func (rc *ReservationController) GetMyReservations(c *gin.Context) {
	userIDInterface, exists := c.Get("user_id")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}
	userID, ok := userIDInterface.(uint)
	if !ok {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("invalid user id type"))
		return
	}

	var user models.User
	if err := rc.DB.First(&user, userID).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("user not found"))
		return
	}
	if user.ClientID == nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound,
			errors.New("no client profile linked to this account"))
		return
	}

	rc.listReservations(c, "client_id", *user.ClientID)
}

// listReservations applies the shared filter/pagination/order contract of
// the reservation listings. Ordering is fixed: reservation_date desc, then
// reservation_time desc.
func (rc *ReservationController) listReservations(c *gin.Context, scopeColumn string, scopeID uint) {
	query := rc.DB.Model(&models.WalkReservation{}).Where(scopeColumn+" = ?", scopeID)

	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(status) {
			utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed,
				errors.New("unknown status filter: "+status))
			return
		}
		query = query.Where("status = ?", status)
	}
	if from := c.Query("date_from"); from != "" {
		query = query.Where("reservation_date >= ?", from)
	}
	if to := c.Query("date_to"); to != "" {
		query = query.Where("reservation_date <= ?", to)
	}

	page, perPage := parsePagination(c, 1, 10)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	var reservations []models.WalkReservation
	if err := query.
		Order("reservation_date DESC, reservation_time DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&reservations).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of reservations", gin.H{
		"reservations": reservations,
		"meta": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": totalPages(total, perPage),
		},
	})
}

// transition runs a read-check-write cycle inside one transaction so two
// concurrent attempts on the same reservation cannot interleave.
func (rc *ReservationController) transition(c *gin.Context, apply func(tx *gorm.DB, r *models.WalkReservation) error, message string) {
	var reservation models.WalkReservation
	err := rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, c.Param("reservation_id")).Error; err != nil {
			return ErrReservationNotFound
		}
		return apply(tx, &reservation)
	})
	if err != nil {
		transitionErrorResponse(c, err)
		return
	}

	utils.InfoLogger.Printf("Reservation %d -> %s", reservation.ID, reservation.Status)
	utils.RespondJSON(c, http.StatusOK, message, reservation)
}

func transitionErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrReservationNotFound):
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, err)
	case errors.Is(err, ErrPastDated):
		utils.RespondErrorCode(c, http.StatusUnprocessableEntity, utils.CodePastDated, err)
	case errors.Is(err, ErrTooLateToCancel):
		utils.RespondErrorCode(c, http.StatusUnprocessableEntity, utils.CodeTooLateToCancel, err)
	case errors.Is(err, ErrAlreadyRated):
		utils.RespondErrorCode(c, http.StatusConflict, utils.CodeAlreadyRated, err)
	case errors.Is(err, ErrNotPending),
		errors.Is(err, ErrNotConfirmed),
		errors.Is(err, ErrNotInProgress),
		errors.Is(err, ErrNotCancelable),
		errors.Is(err, ErrNotCompleted):
		utils.RespondErrorCode(c, http.StatusConflict, utils.CodeInvalidState, err)
	default:
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
	}
}

func normalizeTimeOfDay(value string) (string, error) {
	if t, err := time.Parse("15:04:05", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	if t, err := time.Parse("15:04", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	return "", errors.New("reservation_time must be formatted as HH:MM or HH:MM:SS")
}

func parsePagination(c *gin.Context, defaultPage, defaultPerPage int) (int, int) {
	page := defaultPage
	if v, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage))); err == nil && v > 0 {
		page = v
	}
	perPage := defaultPerPage
	if v, err := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage))); err == nil && v > 0 {
		perPage = v
	}
	return page, perPage
}

func totalPages(total int64, perPage int) int64 {
	if perPage <= 0 {
		return 0
	}
	pages := total / int64(perPage)
	if total%int64(perPage) != 0 {
		pages++
	}
	return pages
}
