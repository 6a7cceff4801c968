package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SpecSheet is the projected display of one item under its resolved category configuration.
type SpecSheet struct {
	ItemID   int                 `json:"item_id"`
	SKU      string              `json:"sku"`
	Name     string              `json:"name"`
	Category string              `json:"category"`
	Fallback bool                `json:"fallback"`
	Source   catalog.Source      `json:"source"`
	Entries  []catalog.SpecEntry `json:"entries"`
}

type ItemUseCase interface {
	CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error)
	GetItemByID(ctx context.Context, id int) (*domain.Item, error)
	UpdateItem(ctx context.Context, id int, updates map[string]json.RawMessage) (*domain.Item, error)
	DeleteItem(ctx context.Context, id int) error
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)
	ListVariants(ctx context.Context, parentID int) ([]domain.Item, error)
	SpecSheet(ctx context.Context, id int) (*SpecSheet, error)
	ExportSpecSheets(ctx context.Context, categoryID int) ([]SpecSheet, error)
}

type itemUseCase struct {
	itemRepo     domain.ItemRepository
	categoryRepo domain.CategoryRepository
	resolver     *catalog.Resolver
	log          *logrus.Logger
}

const exportPageSize = 100

func NewItemUseCase(iRepo domain.ItemRepository, cRepo domain.CategoryRepository, resolver *catalog.Resolver, logger *logrus.Logger) ItemUseCase {
	return &itemUseCase{
		itemRepo:     iRepo,
		categoryRepo: cRepo,
		resolver:     resolver,
		log:          logger,
	}
}

func (uc *itemUseCase) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.SKU = strings.TrimSpace(item.SKU)
	if item.Name == "" {
		uc.log.Warn("Use Case: Attempted to create item with empty name")
		return nil, errors.New("item name cannot be empty")
	}
	if item.SKU == "" {
		uc.log.Warnf("Use Case: Attempted to create item '%s' with empty sku", item.Name)
		return nil, errors.New("item sku cannot be empty")
	}
	if !item.Price.IsPositive() {
		uc.log.Warnf("Use Case: Attempted to create item '%s' with invalid price: %s", item.Name, item.Price)
		return nil, errors.New("item price must be positive")
	}
	if item.Stock < 0 {
		uc.log.Warnf("Use Case: Attempted to create item '%s' with negative stock: %d", item.Name, item.Stock)
		return nil, errors.New("item stock cannot be negative")
	}
	if item.ParentID < 0 || item.CategoryID < 0 {
		uc.log.Warnf("Use Case: Attempted to create item '%s' with negative references", item.Name)
		return nil, errors.New("invalid parent_id or category_id")
	}

	if item.ParentID != 0 {
		parent, err := uc.baseProduct(ctx, item.ParentID)
		if err != nil {
			return nil, err
		}
		if item.CategoryID == 0 {
			item.CategoryID = parent.CategoryID
		}
	}
	if item.CategoryID != 0 {
		_, err := uc.categoryRepo.GetCategoryByID(ctx, item.CategoryID)
		if err != nil {
			uc.log.Warnf("Use Case: Category ID %d not found during item creation: %v", item.CategoryID, err)
			return nil, fmt.Errorf("category with id %d does not exist", item.CategoryID)
		}
	}

	uc.log.Infof("Use Case: Attempting to create item '%s'", item.Name)
	createdItem, err := uc.itemRepo.CreateItem(ctx, item)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create item '%s': %v", item.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Item '%s' created successfully with ID %d", createdItem.Name, createdItem.ID)
	return createdItem, nil
}

// baseProduct loads the parent of a new variant, which must not be a variant itself.
func (uc *itemUseCase) baseProduct(ctx context.Context, parentID int) (*domain.Item, error) {
	parent, err := uc.itemRepo.GetItemByID(ctx, parentID)
	if err != nil {
		uc.log.Warnf("Use Case: Parent item ID %d not found: %v", parentID, err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("parent item with id %d does not exist", parentID)
		}
		return nil, err
	}
	if parent.IsVariant() {
		uc.log.Warnf("Use Case: Parent item ID %d is itself a variant of %d", parentID, parent.ParentID)
		return nil, fmt.Errorf("invalid parent: item %d is itself a variant", parentID)
	}
	return parent, nil
}

func (uc *itemUseCase) GetItemByID(ctx context.Context, id int) (*domain.Item, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get item with invalid ID: %d", id)
		return nil, errors.New("invalid item ID")
	}

	uc.log.Infof("Use Case: Attempting to get item with ID %d", id)
	item, err := uc.itemRepo.GetItemByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get item ID %d: %v", id, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Item retrieved successfully for ID %d", id)
	return item, nil
}

func (uc *itemUseCase) UpdateItem(ctx context.Context, id int, updates map[string]json.RawMessage) (*domain.Item, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid item ID: %d", id)
		return nil, errors.New("invalid item ID for update")
	}
	if len(updates) == 0 {
		uc.log.Warnf("Use Case: Attempted update for item ID %d with no fields", id)
		return uc.itemRepo.GetItemByID(ctx, id)
	}

	_, err := uc.itemRepo.GetItemByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Item ID %d not found for update: %v", id, err)
		return nil, err
	}

	validUpdates := make(map[string]interface{})
	for key, raw := range updates {
		switch key {
		case "name", "sku":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
				uc.log.Warnf("Use Case: Invalid or empty '%s' provided for update ID %d", key, id)
				return nil, fmt.Errorf("item %s cannot be empty if provided for update", key)
			}
			validUpdates[key] = strings.TrimSpace(s)
		case "variant_type", "variant_color", "bolt_pattern":
			var s *string
			if err := json.Unmarshal(raw, &s); err != nil {
				uc.log.Warnf("Use Case: Invalid '%s' provided for update ID %d", key, id)
				return nil, fmt.Errorf("invalid type for %s", key)
			}
			if s == nil {
				validUpdates[key] = ""
			} else {
				validUpdates[key] = strings.TrimSpace(*s)
			}
		case "price":
			var price decimal.Decimal
			if err := json.Unmarshal(raw, &price); err != nil || !price.IsPositive() {
				uc.log.Warnf("Use Case: Invalid or non-positive 'price' provided for update ID %d", id)
				return nil, errors.New("item price must be positive if provided for update")
			}
			validUpdates[key] = price
		case "stock":
			var stock int
			if err := json.Unmarshal(raw, &stock); err != nil {
				uc.log.Warnf("Use Case: Invalid type or precision for 'stock' provided for update ID %d", id)
				return nil, errors.New("invalid type or precision for stock")
			}
			if stock < 0 {
				uc.log.Warnf("Use Case: Negative 'stock' provided for update ID %d", id)
				return nil, errors.New("item stock cannot be negative if provided for update")
			}
			validUpdates[key] = stock
		case "category_id":
			var catID *int
			if err := json.Unmarshal(raw, &catID); err != nil {
				uc.log.Warnf("Use Case: Invalid type for 'category_id' provided for update ID %d", id)
				return nil, errors.New("invalid type for category_id")
			}
			switch {
			case catID == nil || *catID == 0:
				validUpdates[key] = 0
			case *catID > 0:
				if _, err := uc.categoryRepo.GetCategoryByID(ctx, *catID); err != nil {
					uc.log.Warnf("Use Case: Category ID %d not found during item update for ID %d: %v", *catID, id, err)
					return nil, fmt.Errorf("category with id %d does not exist", *catID)
				}
				validUpdates[key] = *catID
			default:
				uc.log.Warnf("Use Case: Invalid 'category_id' (%d) provided for update ID %d", *catID, id)
				return nil, errors.New("category_id must be positive or 0/null")
			}
		case "color_temperature":
			var v domain.Value
			if err := json.Unmarshal(raw, &v); err != nil {
				uc.log.Warnf("Use Case: Invalid 'color_temperature' provided for update ID %d", id)
				return nil, errors.New("invalid type for color_temperature")
			}
			validUpdates[key] = v
		case "attributes":
			attrs := domain.NewAttributes()
			if err := attrs.UnmarshalJSON(raw); err != nil {
				uc.log.Warnf("Use Case: Invalid 'attributes' provided for update ID %d: %v", id, err)
				return nil, fmt.Errorf("invalid attributes: %v", err)
			}
			validUpdates[key] = attrs
		default:
			uc.log.Warnf("Use Case: Attempted to update unknown or unsupported field '%s' for item ID %d", key, id)
		}
	}

	if len(validUpdates) == 0 {
		uc.log.Infof("Use Case: No valid fields remaining after validation for update ID %d", id)
		return uc.itemRepo.GetItemByID(ctx, id)
	}

	uc.log.Infof("Use Case: Attempting partial update for item ID %d with %d valid fields", id, len(validUpdates))

	updatedItem, err := uc.itemRepo.UpdateItem(ctx, id, validUpdates)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed partial update for item ID %d: %v", id, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Item updated successfully for ID %d", updatedItem.ID)
	return updatedItem, nil
}

func (uc *itemUseCase) DeleteItem(ctx context.Context, id int) error {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted delete with invalid item ID: %d", id)
		return errors.New("invalid item ID for delete")
	}
	uc.log.Infof("Use Case: Attempting to delete item ID %d", id)
	err := uc.itemRepo.DeleteItem(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete item ID %d: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Item deleted successfully for ID %d", id)
	return nil
}

func (uc *itemUseCase) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	if filter.CategoryID < 0 || filter.ParentID < 0 {
		uc.log.Warnf("Use Case: Invalid list filter %+v", filter)
		return nil, errors.New("invalid category_id or parent_id filter")
	}
	if filter.CategoryID > 0 {
		if _, err := uc.categoryRepo.GetCategoryByID(ctx, filter.CategoryID); err != nil {
			uc.log.Warnf("Use Case: Category ID %d not found: %v", filter.CategoryID, err)
			return nil, fmt.Errorf("category with id %d not found", filter.CategoryID)
		}
	}

	uc.log.Infof("Use Case: Attempting to list items (%+v)", filter)
	items, err := uc.itemRepo.ListItems(ctx, filter)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list items: %v", err)
		return nil, fmt.Errorf("could not retrieve items: %w", err)
	}
	uc.log.Infof("Use Case: Retrieved %d items", len(items))
	return items, nil
}

func (uc *itemUseCase) ListVariants(ctx context.Context, parentID int) ([]domain.Item, error) {
	parent, err := uc.GetItemByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.IsVariant() {
		return []domain.Item{}, nil
	}
	return uc.allItems(ctx, domain.ItemFilter{ParentID: parentID})
}

// allItems pages through the repository until the filter is exhausted.
func (uc *itemUseCase) allItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	all := []domain.Item{}
	filter.Limit = exportPageSize
	for filter.Offset = 0; ; filter.Offset += exportPageSize {
		page, err := uc.itemRepo.ListItems(ctx, filter)
		if err != nil {
			uc.log.Errorf("Use Case: Repository failed to list items (%+v): %v", filter, err)
			return nil, fmt.Errorf("could not retrieve items: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}

func (uc *itemUseCase) SpecSheet(ctx context.Context, id int) (*SpecSheet, error) {
	item, err := uc.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	categoryName := uc.categoryName(ctx, item)
	sheet := project(item, categoryName, uc.resolver.Resolve(ctx, categoryName))
	uc.log.Infof("Use Case: Built spec sheet for item ID %d with %d entries (source: %s)", id, len(sheet.Entries), sheet.Source)
	return &sheet, nil
}

// categoryName is the item's own category, or its base product's for uncategorised variants.
func (uc *itemUseCase) categoryName(ctx context.Context, item *domain.Item) string {
	if item.Category != "" || !item.IsVariant() {
		return item.Category
	}
	parent, err := uc.itemRepo.GetItemByID(ctx, item.ParentID)
	if err != nil {
		uc.log.Warnf("Use Case: Could not load parent %d of item %d: %v", item.ParentID, item.ID, err)
		return ""
	}
	return parent.Category
}

func (uc *itemUseCase) ExportSpecSheets(ctx context.Context, categoryID int) ([]SpecSheet, error) {
	if categoryID < 0 {
		return nil, errors.New("invalid category ID")
	}
	if categoryID > 0 {
		if _, err := uc.categoryRepo.GetCategoryByID(ctx, categoryID); err != nil {
			uc.log.Warnf("Use Case: Category ID %d not found for export: %v", categoryID, err)
			return nil, err
		}
	}

	items, err := uc.allItems(ctx, domain.ItemFilter{CategoryID: categoryID})
	if err != nil {
		return nil, err
	}

	resolved := map[string]catalog.Resolution{}
	sheets := make([]SpecSheet, 0, len(items))
	for i := range items {
		name := uc.categoryName(ctx, &items[i])
		res, ok := resolved[name]
		if !ok {
			res = uc.resolver.Resolve(ctx, name)
			resolved[name] = res
		}
		sheets = append(sheets, project(&items[i], name, res))
	}
	uc.log.Infof("Use Case: Exported %d spec sheets (category ID %d)", len(sheets), categoryID)
	return sheets, nil
}

func project(item *domain.Item, categoryName string, res catalog.Resolution) SpecSheet {
	entries := catalog.Project(item, res.Config)
	if entries == nil {
		entries = []catalog.SpecEntry{}
	}
	return SpecSheet{
		ItemID:   item.ID,
		SKU:      item.SKU,
		Name:     item.Name,
		Category: categoryName,
		Fallback: res.Fallback,
		Source:   res.Source,
		Entries:  entries,
	}
}
