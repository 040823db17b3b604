package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/giovanni-pe/api-smarpx/models"
	"github.com/giovanni-pe/api-smarpx/services"
	"github.com/giovanni-pe/api-smarpx/utils"
)

// Sortable walker attributes. Anything else is rejected so arbitrary
// column names never reach the ORDER BY clause.
var walkerSortFields = map[string]bool{
	"name":          true,
	"email":         true,
	"rating":        true,
	"total_reviews": true,
	"created_at":    true,
}

type WalkerController struct {
	DB    *gorm.DB
	Stats *services.StatsService
}

func NewWalkerController(db *gorm.DB) *WalkerController {
	return &WalkerController{
		DB:    db,
		Stats: services.NewStatsService(db),
	}
}

// GetAllWalkers -> all walkers, best rated first.
func (wc *WalkerController) GetAllWalkers(c *gin.Context) {
	var walkers []models.Walker
	if err := wc.DB.Order("rating DESC").Find(&walkers).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of walkers", walkers)
}

// SearchWalkers -> filterable, sortable, paginated walker search.
// `search` matches name or email, `specialty` matches the experience text,
// `min_rating` is an inclusive lower bound.
func (wc *WalkerController) SearchWalkers(c *gin.Context) {
	sortBy := c.DefaultQuery("sort_by", "rating")
	if !walkerSortFields[sortBy] {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeInvalidSortField,
			errors.New("cannot sort walkers by: "+sortBy))
		return
	}

	order := strings.ToLower(c.DefaultQuery("order", "desc"))
	if order != "asc" && order != "desc" {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed,
			errors.New("order must be asc or desc"))
		return
	}

	query := wc.DB.Model(&models.Walker{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if specialty := c.Query("specialty"); specialty != "" {
		// Weak substring match against the experience blob, kept as-is
		// from the product definition.
		pattern := "%" + strings.ToLower(specialty) + "%"
		query = query.Where("LOWER(experience) LIKE ?", pattern)
	}
	if minRatingStr := c.Query("min_rating"); minRatingStr != "" {
		minRating, err := strconv.ParseFloat(minRatingStr, 64)
		if err != nil {
			utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed,
				errors.New("min_rating must be a number"))
			return
		}
		query = query.Where("rating >= ?", minRating)
	}

	page, perPage := parsePagination(c, 1, 6)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	var walkers []models.Walker
	if err := query.
		Order(sortBy + " " + strings.ToUpper(order)).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&walkers).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Walker search results", gin.H{
		"walkers": walkers,
		"meta": gin.H{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": totalPages(total, perPage),
		},
	})
}

// CreateWalker -> register a walker profile. Rating and total_reviews
// always start at zero; they are derived fields.
func (wc *WalkerController) CreateWalker(c *gin.Context) {
	type reqBody struct {
		Name       string  `json:"name" binding:"required,max=100"`
		Email      string  `json:"email" binding:"required,email"`
		Experience *string `json:"experience"`
		PhotoURL   *string `json:"photo_url"`
	}

	var req reqBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed, err)
		return
	}

	walker := models.Walker{
		Name:       req.Name,
		Email:      req.Email,
		Experience: req.Experience,
		PhotoURL:   req.PhotoURL,
	}

	if err := wc.DB.Create(&walker).Error; err != nil {
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.InfoLogger.Printf("New walker registered: %s", walker.Email)
	utils.RespondJSON(c, http.StatusCreated, "Walker created", walker)
}

// GetWalkerStats -> per-walker dashboard counters and 6-month trend.
func (wc *WalkerController) GetWalkerStats(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("walker_id"))
	if err != nil {
		utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeValidationFailed,
			errors.New("walker_id must be numeric"))
		return
	}

	stats, err := wc.Stats.GetWalkerStats(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondErrorCode(c, http.StatusNotFound, utils.CodeNotFound, errors.New("walker not found"))
			return
		}
		utils.RespondErrorCode(c, http.StatusInternalServerError, utils.CodeStorageFailure, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Walker stats", stats)
}
