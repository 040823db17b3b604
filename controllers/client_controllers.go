package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/utils"
)

type ClientController struct {
	DB *gorm.DB
}

func NewClientController(db *gorm.DB) *ClientController {
	return &ClientController{DB: db}
}

// CreateClient -> register a client profile.
func (cc *ClientController) CreateClient(c *gin.Context) {
	type reqBody struct {
		Name    string  `json:"name" binding:"required,max=100"`
		Email   string  `json:"email" binding:"required,email"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}

	client := models.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}

	if err := cc.DB.Create(&client).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.InfoLogger.Printf("New client registered: %s", client.Email)
	utils.RespondJSON(c, http.StatusCreated, "Client created", client)
}

// GetClientByID -> client detail with registered dogs.
func (cc *ClientController) GetClientByID(c *gin.Context) {
	idStr := c.Param("client_id")
	id, _ := strconv.Atoi(idStr)

	var client models.Client
	if err := cc.DB.Preload("Dogs").First(&client, id).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("client not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Client detail", client)
}

// AttachDog -> link an existing dog to an existing client.
func (cc *ClientController) AttachDog(c *gin.Context) {
	var client models.Client
	if err := cc.DB.First(&client, c.Param("client_id")).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("client not found"))
		return
	}

	var dog models.Dog
	if err := cc.DB.First(&dog, c.Param("dog_id")).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("dog not found"))
		return
	}

	if err := cc.DB.Model(&client).Association("Dogs").Append(&dog); err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Dog attached to client", gin.H{
		"client_id": client.ID,
		"dog_id":    dog.ID,
	})
}
