package delivery

import (
	"net/http"
	"strings"

	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CategoryHandler struct {
	useCase       usecase.CategoryUseCase
	configUseCase usecase.ConfigUseCase
	log           *logrus.Logger
}

func NewCategoryHandler(uc usecase.CategoryUseCase, cfgUC usecase.ConfigUseCase, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		useCase:       uc,
		configUseCase: cfgUC,
		log:           logger,
	}
}

// RegisterRoutes mounts the category and configuration routes. Every write
// goes through admin since it changes what a category name resolves to.
func (h *CategoryHandler) RegisterRoutes(router gin.IRouter, admin gin.HandlerFunc) {
	categories := router.Group("/categories")
	{
		categories.POST("", admin, h.CreateCategory)
		categories.GET("", h.ListCategories)
		categories.GET("/resolve", h.ResolveConfig)
		categories.GET("/defaults", h.ListDefaultConfigs)
		categories.GET("/:id", h.GetCategoryByID)
		categories.PATCH("/:id", admin, h.UpdateCategory)
		categories.DELETE("/:id", admin, h.DeleteCategory)

		categories.GET("/:id/config", h.GetConfig)
		categories.PUT("/:id/config", admin, h.SaveConfig)
		categories.DELETE("/:id/config", admin, h.DeleteConfig)
	}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var category domain.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		h.log.Errorf("Failed to bind JSON for create category: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	createdCategory, err := h.useCase.CreateCategory(c.Request.Context(), &category)
	if err != nil {
		h.log.Errorf("Failed to create category '%s': %v", category.Name, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to create category: "+err.Error())
		return
	}

	h.log.Infof("Category created successfully: ID %d, Name %s", createdCategory.ID, createdCategory.Name)
	SuccessResponse(c, http.StatusCreated, "Category created successfully", createdCategory)
}

func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	category, err := h.useCase.GetCategoryByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get category by ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve category: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Category retrieved successfully", category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	var categoryUpdates domain.Category
	if err := c.ShouldBindJSON(&categoryUpdates); err != nil {
		h.log.Errorf("Failed to bind JSON for update category ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	categoryUpdates.ID = id

	updatedCategory, err := h.useCase.UpdateCategory(c.Request.Context(), &categoryUpdates)
	if err != nil {
		h.log.Errorf("Failed to update category ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to update category: "+err.Error())
		return
	}

	h.log.Infof("Category updated successfully: ID %d", updatedCategory.ID)
	SuccessResponse(c, http.StatusOK, "Category updated successfully", updatedCategory)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	if err := h.useCase.DeleteCategory(c.Request.Context(), id); err != nil {
		h.log.Warnf("Failed to delete category ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to delete category: "+err.Error())
		return
	}

	h.log.Infof("Category deleted successfully: ID %d", id)
	SuccessResponse(c, http.StatusOK, "Category deleted successfully", nil)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to list categories: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve categories: "+err.Error())
		return
	}

	if len(categories) == 0 {
		SuccessResponse(c, http.StatusOK, "No categories found", []domain.Category{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}

func (h *CategoryHandler) GetConfig(c *gin.Context) {
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	cfg, err := h.configUseCase.GetConfig(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get config for category ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve category config: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Category config retrieved successfully", cfg)
}

func (h *CategoryHandler) SaveConfig(c *gin.Context) {
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	var cfg domain.CategoryConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		h.log.Errorf("Failed to bind JSON for config of category ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	saved, err := h.configUseCase.SaveConfig(c.Request.Context(), id, &cfg)
	if err != nil {
		h.log.Errorf("Failed to save config for category ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to save category config: "+err.Error())
		return
	}

	h.log.Infof("Category config saved: category ID %d", id)
	SuccessResponse(c, http.StatusOK, "Category config saved successfully", saved)
}

func (h *CategoryHandler) DeleteConfig(c *gin.Context) {
	id, ok := h.categoryID(c)
	if !ok {
		return
	}

	if err := h.configUseCase.DeleteConfig(c.Request.Context(), id); err != nil {
		h.log.Warnf("Failed to delete config for category ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to delete category config: "+err.Error())
		return
	}

	h.log.Infof("Category config deleted: category ID %d", id)
	SuccessResponse(c, http.StatusOK, "Category config deleted successfully", nil)
}

// ResolveConfig always answers 200; unknown or blank names resolve to a fallback.
func (h *CategoryHandler) ResolveConfig(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	res := h.configUseCase.Resolve(c.Request.Context(), name)
	if res.Fallback {
		SuccessResponse(c, http.StatusOK, "Using fallback configuration", res)
		return
	}
	SuccessResponse(c, http.StatusOK, "Category config resolved successfully", res)
}

func (h *CategoryHandler) ListDefaultConfigs(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "Default configs retrieved successfully", h.configUseCase.Defaults())
}

func (h *CategoryHandler) categoryID(c *gin.Context) (int, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.log.Warnf("Invalid category ID parameter: %s", c.Param("id"))
		ErrorResponse(c, http.StatusBadRequest, "Invalid category ID format")
		return 0, false
	}
	return id, true
}
