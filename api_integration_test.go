package main

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

	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/router"
	"github.com/giovanni-pe/api-smarpx/utils"
)

// Full booking lifecycle through the HTTP surface: register accounts,
// set up profiles, book a walk, run it through accept/start/complete,
// rate it, and verify the walker's aggregate rating moved.
func TestBookingLifecycleEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	autoMigrate(db)

	r := router.SetupRouter(db)

	do := func(method, url, token string, payload interface{}) *httptest.ResponseRecorder {
		var body *bytes.Buffer
		if payload != nil {
			raw, _ := json.Marshal(payload)
			body = bytes.NewBuffer(raw)
		} else {
			body = bytes.NewBuffer(nil)
		}
		req, _ := http.NewRequest(method, url, body)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var resp map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	login := func(email, password string) string {
		w := do("POST", "/login", "", map[string]interface{}{
			"email":    email,
			"password": password,
		})
		assert.Equal(t, http.StatusOK, w.Code)
		data := decode(w)["data"].(map[string]interface{})
		return data["token"].(string)
	}

	// Profiles the accounts will link to.
	client := models.Client{Name: "Maria Lopez", Email: "maria@example.com"}
	db.Create(&client)
	walker := models.Walker{Name: "Ana Torres", Email: "ana@example.com"}
	db.Create(&walker)
	dog := models.Dog{Name: "Toby", Breed: "Labrador", Age: "3 years", Size: "medium", EnergyLevel: models.EnergyMedium}
	db.Create(&dog)
	db.Model(&client).Association("Dogs").Append(&dog)

	// Accounts.
	w := do("POST", "/register", "", map[string]interface{}{
		"name":      "Maria Lopez",
		"email":     "maria@example.com",
		"password":  "supersecret",
		"role":      models.RoleClient,
		"client_id": client.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do("POST", "/register", "", map[string]interface{}{
		"name":      "Ana Torres",
		"email":     "ana@example.com",
		"password":  "supersecret",
		"role":      models.RoleWalker,
		"walker_id": walker.ID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	clientToken := login("maria@example.com", "supersecret")
	walkerToken := login("ana@example.com", "supersecret")

	// Book a walk two days out so the lifecycle checks see a future date.
	walkDate := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
	w = do("POST", "/reservations", "", map[string]interface{}{
		"client_id":        client.ID,
		"dog_id":           dog.ID,
		"walker_id":        walker.ID,
		"reservation_date": walkDate,
		"reservation_time": "14:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var reservation models.WalkReservation
	assert.NoError(t, db.First(&reservation).Error)
	assert.Equal(t, models.StatusPending, reservation.Status)

	reservationURL := func(action string) string {
		return fmt.Sprintf("/reservations/%d/%s", reservation.ID, action)
	}

	// The client cannot run walker transitions.
	w = do("POST", reservationURL("accept"), clientToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unauthenticated calls are rejected outright.
	w = do("POST", reservationURL("accept"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Walker runs the walk.
	w = do("POST", reservationURL("accept"), walkerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do("POST", reservationURL("start"), walkerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do("POST", reservationURL("complete"), walkerToken, map[string]interface{}{
		"notes":            "great walk in the park",
		"duration_minutes": 45,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// The walker cannot rate their own walk.
	w = do("POST", reservationURL("rate"), walkerToken, map[string]interface{}{"rating": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Client rates it.
	w = do("POST", reservationURL("rate"), clientToken, map[string]interface{}{
		"rating": 5,
		"review": "Toby loved it",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// The aggregate moved.
	var updatedWalker models.Walker
	db.First(&updatedWalker, walker.ID)
	assert.Equal(t, 5.0, updatedWalker.Rating)
	assert.Equal(t, 1, updatedWalker.TotalReviews)

	// And the client sees the walk under their own account.
	w = do("GET", "/me/reservations", clientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(w)["data"].(map[string]interface{})
	list := data["reservations"].([]interface{})
	if assert.Len(t, list, 1) {
		entry := list[0].(map[string]interface{})
		assert.Equal(t, models.StatusCompleted, entry["status"])
		assert.Equal(t, float64(5), entry["client_rating"])
	}

	// Logout revokes the token.
	w = do("POST", "/logout", clientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do("GET", "/me/reservations", clientToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
