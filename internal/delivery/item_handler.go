package delivery

import (
	"encoding/json"
	"net/http"
	"strconv"

	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"
)

type ItemHandler struct {
	useCase usecase.ItemUseCase
	log     *logrus.Logger
}

func NewItemHandler(uc usecase.ItemUseCase, logger *logrus.Logger) *ItemHandler {
	return &ItemHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *ItemHandler) RegisterRoutes(router gin.IRouter) {
	items := router.Group("/items")
	{
		items.POST("", h.CreateItem)
		items.GET("", h.ListItems)
		items.GET("/export.csv", h.ExportSpecSheets)
		items.GET("/:id", h.GetItemByID)
		items.PATCH("/:id", h.UpdateItem)
		items.DELETE("/:id", h.DeleteItem)
		items.GET("/:id/variants", h.ListVariants)
		items.GET("/:id/specs", h.GetSpecSheet)
	}
}

func (h *ItemHandler) CreateItem(c *gin.Context) {
	var item domain.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		h.log.Errorf("Failed to bind JSON for create item: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	createdItem, err := h.useCase.CreateItem(c.Request.Context(), &item)
	if err != nil {
		h.log.Errorf("Failed to create item '%s': %v", item.Name, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to create item: "+err.Error())
		return
	}

	h.log.Infof("Item created successfully: ID %d, Name %s", createdItem.ID, createdItem.Name)
	SuccessResponse(c, http.StatusCreated, "Item created successfully", createdItem)
}

func (h *ItemHandler) GetItemByID(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	item, err := h.useCase.GetItemByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get item by ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve item: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Item retrieved successfully", item)
}

func (h *ItemHandler) UpdateItem(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	// Raw values keep the key order of a nested attributes object.
	var updates map[string]json.RawMessage
	if err := c.ShouldBindJSON(&updates); err != nil {
		h.log.Errorf("Failed to bind JSON for update item ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(updates) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: no fields provided for update")
		return
	}

	updatedItem, err := h.useCase.UpdateItem(c.Request.Context(), id, updates)
	if err != nil {
		h.log.Errorf("Failed to update item ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to update item: "+err.Error())
		return
	}

	h.log.Infof("Item updated successfully: ID %d", updatedItem.ID)
	SuccessResponse(c, http.StatusOK, "Item updated successfully", updatedItem)
}

func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	if err := h.useCase.DeleteItem(c.Request.Context(), id); err != nil {
		h.log.Warnf("Failed to delete item ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to delete item: "+err.Error())
		return
	}

	h.log.Infof("Item deleted successfully: ID %d", id)
	SuccessResponse(c, http.StatusOK, "Item deleted successfully", nil)
}

func (h *ItemHandler) ListItems(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		h.log.Warnf("Invalid limit parameter '%s', using default 10", limitStr)
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		h.log.Warnf("Invalid offset parameter '%s', using default 0", offsetStr)
		offset = 0
	}

	filter := domain.ItemFilter{Limit: limit, Offset: offset}
	if raw := c.Query("category_id"); raw != "" {
		if filter.CategoryID, err = parseID(raw); err != nil {
			h.log.Warnf("Invalid category_id filter parameter: %s", raw)
			ErrorResponse(c, http.StatusBadRequest, "Invalid category_id format")
			return
		}
	}
	if raw := c.Query("parent_id"); raw != "" {
		if filter.ParentID, err = parseID(raw); err != nil {
			h.log.Warnf("Invalid parent_id filter parameter: %s", raw)
			ErrorResponse(c, http.StatusBadRequest, "Invalid parent_id format")
			return
		}
	}

	items, err := h.useCase.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.log.Errorf("Failed to list items: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve items: "+err.Error())
		return
	}

	if len(items) == 0 {
		SuccessResponse(c, http.StatusOK, "No items found matching criteria", []domain.Item{})
		return
	}
	SuccessResponse(c, http.StatusOK, "Items retrieved successfully", items)
}

func (h *ItemHandler) ListVariants(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	variants, err := h.useCase.ListVariants(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to list variants of item ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve variants: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Variants retrieved successfully", variants)
}

func (h *ItemHandler) GetSpecSheet(c *gin.Context) {
	id, ok := h.itemID(c)
	if !ok {
		return
	}

	sheet, err := h.useCase.SpecSheet(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to build spec sheet for item ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to build spec sheet: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Spec sheet built successfully", sheet)
}

type specSheetRow struct {
	ItemID   int    `csv:"item_id"`
	SKU      string `csv:"sku"`
	Name     string `csv:"name"`
	Category string `csv:"category"`
	Source   string `csv:"source"`
	Label    string `csv:"label"`
	Value    string `csv:"value"`
}

// specSheetRows flattens sheets to one row per entry. An item without
// entries still gets one row with an empty label and value.
func specSheetRows(sheets []usecase.SpecSheet) []specSheetRow {
	rows := []specSheetRow{}
	for _, sheet := range sheets {
		base := specSheetRow{
			ItemID:   sheet.ItemID,
			SKU:      sheet.SKU,
			Name:     sheet.Name,
			Category: sheet.Category,
			Source:   string(sheet.Source),
		}
		if len(sheet.Entries) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, entry := range sheet.Entries {
			row := base
			row.Label = entry.Label
			row.Value = entry.Value
			rows = append(rows, row)
		}
	}
	return rows
}

func (h *ItemHandler) ExportSpecSheets(c *gin.Context) {
	categoryID := 0
	if raw := c.Query("category_id"); raw != "" {
		var err error
		if categoryID, err = parseID(raw); err != nil {
			h.log.Warnf("Invalid category_id export parameter: %s", raw)
			ErrorResponse(c, http.StatusBadRequest, "Invalid category_id format")
			return
		}
	}

	sheets, err := h.useCase.ExportSpecSheets(c.Request.Context(), categoryID)
	if err != nil {
		h.log.Errorf("Failed to export spec sheets (category ID %d): %v", categoryID, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to export spec sheets: "+err.Error())
		return
	}

	data, err := gocsv.MarshalBytes(specSheetRows(sheets))
	if err != nil {
		h.log.Errorf("Failed to encode spec sheets as CSV: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to export spec sheets: "+err.Error())
		return
	}

	h.log.Infof("Exported %d spec sheets (category ID %d)", len(sheets), categoryID)
	c.Header("Content-Disposition", `attachment; filename="spec-sheets.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *ItemHandler) itemID(c *gin.Context) (int, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.log.Warnf("Invalid item ID parameter: %s", c.Param("id"))
		ErrorResponse(c, http.StatusBadRequest, "Invalid item ID format")
		return 0, false
	}
	return id, true
}
