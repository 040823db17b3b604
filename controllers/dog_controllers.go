package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/utils"
)

type DogController struct {
	DB *gorm.DB
}

func NewDogController(db *gorm.DB) *DogController {
	return &DogController{DB: db}
}

// CreateDog -> register a dog, optionally attached to a client right away.
func (dc *DogController) CreateDog(c *gin.Context) {
	type reqBody struct {
		Name        string  `json:"name" binding:"required,max=100"`
		Breed       string  `json:"breed" binding:"required,max=100"`
		Age         string  `json:"age" binding:"max=30"`
		Size        string  `json:"size"`
		EnergyLevel string  `json:"energy_level" binding:"required"`
		PhotoURL    *string `json:"photo_url"`
		ClientID    *uint   `json:"client_id"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}
	if !models.ValidEnergyLevel(req.EnergyLevel) {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed,
			errors.New("energy_level must be one of low, medium, high"))
		return
	}

	dog := models.Dog{
		Name:        req.Name,
		Breed:       req.Breed,
		Age:         req.Age,
		Size:        "medium",
		EnergyLevel: req.EnergyLevel,
		PhotoURL:    req.PhotoURL,
	}
	if req.Size != "" {
		dog.Size = req.Size
	}

	err := dc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dog).Error; err != nil {
			return err
		}
		if req.ClientID != nil {
			var client models.Client
			if err := tx.First(&client, *req.ClientID).Error; err != nil {
				return errors.New("client not found")
			}
			if err := tx.Model(&client).Association("Dogs").Append(&dog); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.InfoLogger.Printf("New dog registered: %s (%s)", dog.Name, dog.Breed)
	utils.RespondJSON(c, http.StatusCreated, "Dog created", dog)
}

// GetAllDogs -> list dogs with their owners.
func (dc *DogController) GetAllDogs(c *gin.Context) {
	var dogs []models.Dog
	if err := dc.DB.Preload("Clients").Find(&dogs).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of dogs", dogs)
}
