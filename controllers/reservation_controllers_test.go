package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/controllers"
	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/services"
	"github.com/giovanni-pe/api-smarpx/utils"
)

// testNow is the fixed instant every lifecycle test runs at.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupReservationTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:reservations_%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Client{}, &models.Dog{}, &models.Walker{}, &models.WalkReservation{})
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	// Seed one client, one dog and one walker.
	client := models.Client{Name: "Maria Lopez", Email: "maria@example.com"}
	db.Create(&client)
	dog := models.Dog{Name: "Toby", Breed: "Labrador", Age: "3 years", Size: "medium", EnergyLevel: models.EnergyMedium}
	db.Create(&dog)
	walker := models.Walker{Name: "Ana Torres", Email: "ana@example.com"}
	db.Create(&walker)

	return db
}

func setupReservationRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	ctrl := &controllers.ReservationController{
		DB:      db,
		Clock:   utils.FixedClock{Time: testNow},
		Ratings: services.NewRatingService(db),
	}

	router.POST("/reservations", ctrl.CreateReservation)
	router.POST("/walk-reservations/demo", ctrl.CreateDemoReservation)
	router.POST("/reservations/:reservation_id/accept", ctrl.Accept)
	router.POST("/reservations/:reservation_id/reject", ctrl.Reject)
	router.POST("/reservations/:reservation_id/start", ctrl.Start)
	router.POST("/reservations/:reservation_id/complete", ctrl.Complete)
	router.POST("/reservations/:reservation_id/cancel", ctrl.CancelByClient)
	router.POST("/reservations/:reservation_id/rate", ctrl.Rate)
	router.GET("/walkers/:walker_id/reservations", ctrl.GetWalkerReservations)
	router.GET("/clients/:client_id/reservations", ctrl.GetClientReservations)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	return resp
}

func seedReservation(db *gorm.DB, status, date, timeOfDay string, walkerID *uint) models.WalkReservation {
	r := models.WalkReservation{
		ClientID:        1,
		DogID:           1,
		WalkerID:        walkerID,
		ReservationDate: date,
		ReservationTime: timeOfDay,
		Status:          status,
	}
	db.Create(&r)
	return r
}

func uintPtr(v uint) *uint { return &v }

func TestMain(m *testing.M) {
	utils.InitLogger()
	m.Run()
}

func TestCreateReservationForcesPending(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", map[string]interface{}{
		"client_id":        1,
		"dog_id":           1,
		"walker_id":        1,
		"reservation_date": "2025-06-10",
		"reservation_time": "14:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var reservation models.WalkReservation
	assert.NoError(t, db.First(&reservation).Error)
	assert.Equal(t, models.StatusPending, reservation.Status)
	assert.Equal(t, "14:00:00", reservation.ReservationTime)
	assert.Nil(t, reservation.ConfirmedAt)
}

func TestCreateReservationUnknownEntities(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", map[string]interface{}{
		"client_id":        99,
		"dog_id":           1,
		"reservation_date": "2025-06-10",
		"reservation_time": "14:00",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeResponse(t, w)["code"])

	var count int64
	db.Model(&models.WalkReservation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestAcceptPendingFutureReservation(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)
	r := seedReservation(db, models.StatusPending, "2025-06-02", "14:00:00", uintPtr(1))

	w := doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/accept", r.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.WalkReservation
	db.First(&updated, r.ID)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	if assert.NotNil(t, updated.ConfirmedAt) {
		assert.Equal(t, testNow.Unix(), updated.ConfirmedAt.Unix())
	}
}

func TestAcceptPastDatedReservation(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)
	// One minute before the fixed clock.
	r := seedReservation(db, models.StatusPending, "2025-06-01", "11:59:00", uintPtr(1))

	w := doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/accept", r.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "PAST_DATED", decodeResponse(t, w)["code"])

	var updated models.WalkReservation
	db.First(&updated, r.ID)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Nil(t, updated.ConfirmedAt)
}

func TestInvalidTransitionsLeaveReservationUntouched(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	cases := []struct {
		name   string
		status string
		action string
	}{
		{"accept confirmed", models.StatusConfirmed, "accept"},
		{"accept completed", models.StatusCompleted, "accept"},
		{"reject confirmed", models.StatusConfirmed, "reject"},
		{"start pending", models.StatusPending, "start"},
		{"start completed", models.StatusCompleted, "start"},
		{"complete pending", models.StatusPending, "complete"},
		{"complete confirmed", models.StatusConfirmed, "complete"},
		{"cancel in_progress", models.StatusInProgress, "cancel"},
		{"cancel completed", models.StatusCompleted, "cancel"},
		{"cancel cancelled", models.StatusCancelled, "cancel"},
	}

	for _, tc := range cases {
		r := seedReservation(db, tc.status, "2025-06-10", "14:00:00", uintPtr(1))

		w := doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/%s", r.ID, tc.action), nil)
		assert.Equal(t, http.StatusConflict, w.Code, tc.name)
		assert.Equal(t, "INVALID_STATE", decodeResponse(t, w)["code"], tc.name)

		var updated models.WalkReservation
		db.First(&updated, r.ID)
		assert.Equal(t, tc.status, updated.Status, tc.name)
		assert.Nil(t, updated.ConfirmedAt, tc.name)
		assert.Nil(t, updated.StartedAt, tc.name)
		assert.Nil(t, updated.CompletedAt, tc.name)
		assert.Nil(t, updated.CancelledAt, tc.name)
	}
}

func TestRejectPendingReservation(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)
	r := seedReservation(db, models.StatusPending, "2025-06-10", "14:00:00", uintPtr(1))

	w := doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/reject", r.ID), map[string]interface{}{
		"reason": "fully booked that day",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.WalkReservation
	db.First(&updated, r.ID)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.NotNil(t, updated.CancelledAt)
	if assert.NotNil(t, updated.RejectionReason) {
		assert.Equal(t, "fully booked that day", *updated.RejectionReason)
	}
	if assert.NotNil(t, updated.CancelledBy) {
		assert.Equal(t, models.CancelledByWalker, *updated.CancelledBy)
	}
}

func TestCancelByClientBoundary(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	// 119 minutes ahead of the fixed clock: inside the 2-hour window.
	tooClose := seedReservation(db, models.StatusConfirmed, "2025-06-01", "13:59:00", uintPtr(1))
	w := doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/cancel", tooClose.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "TOO_LATE_TO_CANCEL", decodeResponse(t, w)["code"])

	var unchanged models.WalkReservation
	db.First(&unchanged, tooClose.ID)
	assert.Equal(t, models.StatusConfirmed, unchanged.Status)

	// 121 minutes ahead: cancelable.
	farEnough := seedReservation(db, models.StatusConfirmed, "2025-06-01", "14:01:00", uintPtr(1))
	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/cancel", farEnough.ID), map[string]interface{}{
		"reason": "dog is sick",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var cancelled models.WalkReservation
	db.First(&cancelled, farEnough.ID)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	if assert.NotNil(t, cancelled.CancelledBy) {
		assert.Equal(t, models.CancelledByClient, *cancelled.CancelledBy)
	}
	if assert.NotNil(t, cancelled.CancellationReason) {
		assert.Equal(t, "dog is sick", *cancelled.CancellationReason)
	}
}

func TestFullLifecycleWithRating(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/reservations", map[string]interface{}{
		"client_id":        1,
		"dog_id":           1,
		"walker_id":        1,
		"reservation_date": "2025-06-02",
		"reservation_time": "14:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var r models.WalkReservation
	assert.NoError(t, db.First(&r).Error)

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/accept", r.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/start", r.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/complete", r.ID), map[string]interface{}{
		"notes":            "good walk",
		"duration_minutes": 30,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var completed models.WalkReservation
	db.First(&completed, r.ID)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.NotNil(t, completed.ConfirmedAt)
	assert.NotNil(t, completed.StartedAt)
	assert.NotNil(t, completed.CompletedAt)
	if assert.NotNil(t, completed.CompletionNotes) {
		assert.Equal(t, "good walk", *completed.CompletionNotes)
	}
	if assert.NotNil(t, completed.DurationMinutes) {
		assert.Equal(t, 30, *completed.DurationMinutes)
	}

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/rate", r.ID), map[string]interface{}{
		"rating": 5,
		"review": "Toby came back happy",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var rated models.WalkReservation
	db.First(&rated, r.ID)
	if assert.NotNil(t, rated.ClientRating) {
		assert.Equal(t, 5, *rated.ClientRating)
	}
	assert.NotNil(t, rated.RatedAt)

	var walker models.Walker
	db.First(&walker, 1)
	assert.Equal(t, 1, walker.TotalReviews)
	assert.Equal(t, 5.0, walker.Rating)
}

func TestRateTwiceIsRejected(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)
	r := seedReservation(db, models.StatusCompleted, "2025-05-30", "14:00:00", uintPtr(1))

	w := doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/rate", r.ID), map[string]interface{}{
		"rating": 4,
		"review": "solid walk",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/rate", r.ID), map[string]interface{}{
		"rating": 1,
		"review": "changed my mind",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_RATED", decodeResponse(t, w)["code"])

	var rated models.WalkReservation
	db.First(&rated, r.ID)
	if assert.NotNil(t, rated.ClientRating) {
		assert.Equal(t, 4, *rated.ClientRating)
	}
	if assert.NotNil(t, rated.ClientReview) {
		assert.Equal(t, "solid walk", *rated.ClientReview)
	}

	var walker models.Walker
	db.First(&walker, 1)
	assert.Equal(t, 1, walker.TotalReviews)
	assert.Equal(t, 4.0, walker.Rating)
}

func TestRateNonCompletedReservation(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)
	r := seedReservation(db, models.StatusInProgress, "2025-06-01", "10:00:00", uintPtr(1))

	w := doJSON(t, router, "POST", fmt.Sprintf("/reservations/%d/rate", r.ID), map[string]interface{}{
		"rating": 5,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decodeResponse(t, w)["code"])
}

func TestDemoReservationCreatesEverything(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	w := doJSON(t, router, "POST", "/walk-reservations/demo", map[string]interface{}{
		"name":       "Juan Perez",
		"email":      "juan@example.com",
		"phone":      "+51 999 999 999",
		"dog_name":   "Rocky",
		"dog_breed":  "Beagle",
		"dog_age":    "2 years",
		"dog_energy": "high",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["reference"])

	var client models.Client
	assert.NoError(t, db.Preload("Dogs").Where("email = ?", "juan@example.com").First(&client).Error)
	assert.Len(t, client.Dogs, 1)
	assert.Equal(t, "medium", client.Dogs[0].Size)

	var reservation models.WalkReservation
	assert.NoError(t, db.Where("client_id = ?", client.ID).First(&reservation).Error)
	assert.Equal(t, models.StatusPending, reservation.Status)
	assert.Nil(t, reservation.WalkerID)
	assert.Equal(t, testNow.AddDate(0, 0, 1).Format("2006-01-02"), reservation.ReservationDate)
	assert.Equal(t, "10:00:00", reservation.ReservationTime)
}

func TestDemoReservationReusesClientByEmail(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	// maria@example.com already exists from the seed.
	w := doJSON(t, router, "POST", "/walk-reservations/demo", map[string]interface{}{
		"name":       "Maria Lopez",
		"email":      "maria@example.com",
		"dog_name":   "Luna",
		"dog_breed":  "Poodle",
		"dog_age":    "5 years",
		"dog_energy": "low",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var clients int64
	db.Model(&models.Client{}).Where("email = ?", "maria@example.com").Count(&clients)
	assert.Equal(t, int64(1), clients)

	// A brand-new dog is created even for a returning client.
	var dogs int64
	db.Model(&models.Dog{}).Where("name = ?", "Luna").Count(&dogs)
	assert.Equal(t, int64(1), dogs)
}

func TestDemoReservationRollsBackOnFailure(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	// Force the final insert of the demo flow to fail.
	assert.NoError(t, db.Migrator().DropTable(&models.WalkReservation{}))

	w := doJSON(t, router, "POST", "/walk-reservations/demo", map[string]interface{}{
		"name":       "Pedro Gomez",
		"email":      "pedro@example.com",
		"dog_name":   "Max",
		"dog_breed":  "Bulldog",
		"dog_age":    "4 years",
		"dog_energy": "medium",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "STORAGE_FAILURE", decodeResponse(t, w)["code"])

	// The client and dog created earlier in the transaction must be gone.
	var clients int64
	db.Model(&models.Client{}).Where("email = ?", "pedro@example.com").Count(&clients)
	assert.Equal(t, int64(0), clients)

	var dogs int64
	db.Model(&models.Dog{}).Where("name = ?", "Max").Count(&dogs)
	assert.Equal(t, int64(0), dogs)
}

func TestListWalkerReservationsOrderingAndFilters(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	seedReservation(db, models.StatusCompleted, "2025-05-20", "09:00:00", uintPtr(1))
	seedReservation(db, models.StatusPending, "2025-06-03", "09:00:00", uintPtr(1))
	seedReservation(db, models.StatusPending, "2025-06-03", "16:00:00", uintPtr(1))
	seedReservation(db, models.StatusCancelled, "2025-06-05", "10:00:00", uintPtr(1))

	w := doJSON(t, router, "GET", "/walkers/1/reservations", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	list := data["reservations"].([]interface{})
	assert.Len(t, list, 4)

	// Most recent date first, later time first within the same date.
	first := list[0].(map[string]interface{})
	second := list[1].(map[string]interface{})
	third := list[2].(map[string]interface{})
	assert.Equal(t, "2025-06-05", first["reservation_date"])
	assert.Equal(t, "2025-06-03", second["reservation_date"])
	assert.Equal(t, "16:00:00", second["reservation_time"])
	assert.Equal(t, "09:00:00", third["reservation_time"])

	// Status filter.
	w = doJSON(t, router, "GET", "/walkers/1/reservations?status=pending", nil)
	resp = decodeResponse(t, w)
	data = resp["data"].(map[string]interface{})
	assert.Len(t, data["reservations"].([]interface{}), 2)

	// Date range filter.
	w = doJSON(t, router, "GET", "/walkers/1/reservations?date_from=2025-06-01&date_to=2025-06-04", nil)
	resp = decodeResponse(t, w)
	data = resp["data"].(map[string]interface{})
	assert.Len(t, data["reservations"].([]interface{}), 2)

	// Pagination metadata.
	w = doJSON(t, router, "GET", "/walkers/1/reservations?page=1&per_page=3", nil)
	resp = decodeResponse(t, w)
	data = resp["data"].(map[string]interface{})
	assert.Len(t, data["reservations"].([]interface{}), 3)
	meta := data["meta"].(map[string]interface{})
	assert.Equal(t, float64(4), meta["total"])
	assert.Equal(t, float64(2), meta["total_pages"])

	// Unknown walker.
	w = doJSON(t, router, "GET", "/walkers/42/reservations", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListClientReservations(t *testing.T) {
	db := setupReservationTestDB(t)
	router := setupReservationRouter(db)

	seedReservation(db, models.StatusPending, "2025-06-03", "09:00:00", nil)
	seedReservation(db, models.StatusPending, "2025-06-04", "09:00:00", uintPtr(1))

	w := doJSON(t, router, "GET", "/clients/1/reservations", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Len(t, data["reservations"].([]interface{}), 2)
}
