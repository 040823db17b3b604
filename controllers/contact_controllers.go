package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/utils"
)

type ContactController struct {
	DB *gorm.DB
}

func NewContactController(db *gorm.DB) *ContactController {
	return &ContactController{DB: db}
}

// CreateContactMessage -> store a contact form submission. Delivery to the
// team inbox happens out of band.
func (cc *ContactController) CreateContactMessage(c *gin.Context) {
	type reqBody struct {
		Name    string  `json:"name" binding:"required,max=100"`
		Email   string  `json:"email" binding:"required,email"`
		Subject *string `json:"subject"`
		Message string  `json:"message" binding:"required"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}

	msg := models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	if err := cc.DB.Create(&msg).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.InfoLogger.Printf("Contact message %d received from %s", msg.ID, msg.Email)
	utils.RespondJSON(c, http.StatusCreated, "Message received, we will get back to you shortly", gin.H{
		"message_id": msg.ID,
	})
}
