package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"catalog_service/internal/domain"

	"github.com/sirupsen/logrus"
)

type postgresItemRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresItemRepository(db *sql.DB, logger *logrus.Logger) domain.ItemRepository {
	return &postgresItemRepository{
		db:  db,
		log: logger,
	}
}

const selectItem = `
        SELECT i.id, i.parent_id, i.category_id, COALESCE(c.name, ''), i.name, i.sku, i.price, i.stock,
               i.variant_type, i.variant_color, i.color_temperature, i.bolt_pattern, i.extra, i.attributes
        FROM items i
        LEFT JOIN categories c ON c.id = i.category_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{
		Extra:      domain.NewAttributes(),
		Attributes: domain.NewAttributes(),
	}
	var (
		parentID, categoryID sql.NullInt64
		temperature          sql.NullString
	)
	err := row.Scan(
		&item.ID,
		&parentID,
		&categoryID,
		&item.Category,
		&item.Name,
		&item.SKU,
		&item.Price,
		&item.Stock,
		&item.VariantType,
		&item.VariantColor,
		&temperature,
		&item.BoltPattern,
		item.Extra,
		item.Attributes,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		item.ParentID = int(parentID.Int64)
	}
	if categoryID.Valid {
		item.CategoryID = int(categoryID.Int64)
	}
	item.ColorTemperature = temperatureFromColumn(temperature)
	return item, nil
}

func (r *postgresItemRepository) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item.Attributes == nil {
		item.Attributes = domain.NewAttributes()
	}
	if item.Extra == nil {
		item.Extra = domain.NewAttributes()
	}

	query := `
        INSERT INTO items (parent_id, category_id, name, sku, price, stock, variant_type, variant_color,
                           color_temperature, bolt_pattern, extra, attributes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		nullableID(item.ParentID),
		nullableID(item.CategoryID),
		item.Name,
		item.SKU,
		item.Price,
		item.Stock,
		item.VariantType,
		item.VariantColor,
		temperatureToColumn(item.ColorTemperature),
		item.BoltPattern,
		item.Extra,
		item.Attributes,
	).Scan(&item.ID)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			r.log.Warnf("Attempted to create item '%s' with non-existent category %d or parent %d", item.Name, item.CategoryID, item.ParentID)
			return nil, fmt.Errorf("category with id %d or parent item with id %d does not exist", item.CategoryID, item.ParentID)
		case isUniqueViolation(err):
			r.log.Warnf("Attempted to create item with duplicate SKU: %s", item.SKU)
			return nil, fmt.Errorf("item with sku '%s' already exists", item.SKU)
		case isCheckViolation(err):
			r.log.Warnf("Check constraint violation for item '%s': %v", item.Name, err)
			return nil, fmt.Errorf("item data constraint violation: %w", err)
		}
		r.log.Errorf("Failed to create item '%s': %v", item.Name, err)
		return nil, fmt.Errorf("could not create item: %w", err)
	}
	r.log.Infof("Item created successfully with ID: %d, Name: %s", item.ID, item.Name)
	return r.GetItemByID(ctx, item.ID)
}

func (r *postgresItemRepository) GetItemByID(ctx context.Context, id int) (*domain.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, selectItem+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Item with ID %d not found", id)
			return nil, fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Failed to get item by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get item by id: %w", err)
	}
	r.log.Debugf("Item retrieved successfully with ID: %d", id)
	return item, nil
}

var itemUpdateColumns = map[string]string{
	"name":              "name",
	"sku":               "sku",
	"price":             "price",
	"stock":             "stock",
	"category_id":       "category_id",
	"variant_type":      "variant_type",
	"variant_color":     "variant_color",
	"color_temperature": "color_temperature",
	"bolt_pattern":      "bolt_pattern",
	"extra":             "extra",
	"attributes":        "attributes",
}

func (r *postgresItemRepository) UpdateItem(ctx context.Context, id int, updates map[string]interface{}) (*domain.Item, error) {
	if len(updates) == 0 {
		r.log.Infof("Repository: No fields provided for item update ID %d. Returning current item.", id)
		return r.GetItemByID(ctx, id)
	}

	// Sorted so the generated statement is stable.
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := []interface{}{}
	setClauses := []string{}
	for _, key := range keys {
		column, ok := itemUpdateColumns[key]
		if !ok {
			r.log.Warnf("Repository: Skipping unknown field '%s' provided for item update ID %d", key, id)
			continue
		}

		argValue := updates[key]
		switch key {
		case "category_id":
			catID, ok := argValue.(int)
			if !ok {
				r.log.Errorf("Repository: Invalid type received for category_id for item ID %d: %T", id, argValue)
				return nil, fmt.Errorf("internal error: invalid type for category_id in repository")
			}
			argValue = nullableID(catID)
		case "color_temperature":
			v, ok := argValue.(domain.Value)
			if !ok {
				r.log.Errorf("Repository: Invalid type received for color_temperature for item ID %d: %T", id, argValue)
				return nil, fmt.Errorf("internal error: invalid type for color_temperature in repository")
			}
			argValue = temperatureToColumn(v)
		}

		args = append(args, argValue)
		setClauses = append(setClauses, column+" = $"+strconv.Itoa(len(args)))
	}

	if len(setClauses) == 0 {
		r.log.Warnf("Repository: No valid known fields provided for item update ID %d. Returning current item.", id)
		return r.GetItemByID(ctx, id)
	}

	args = append(args, id)
	query := "UPDATE items SET " + strings.Join(setClauses, ", ") + " WHERE id = $" + strconv.Itoa(len(args))
	r.log.Debugf("Repository: Executing partial update query for ID %d: %s", id, query)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			catID, _ := updates["category_id"].(int)
			r.log.Warnf("Repository: Attempted to update item ID %d with non-existent category ID: %d", id, catID)
			return nil, fmt.Errorf("category with id %d does not exist", catID)
		case isUniqueViolation(err):
			r.log.Warnf("Repository: Duplicate SKU on update of item ID %d", id)
			return nil, fmt.Errorf("item with sku '%v' already exists", updates["sku"])
		case isCheckViolation(err):
			r.log.Warnf("Repository: Check constraint violation for item update ID %d: %v", id, err)
			return nil, fmt.Errorf("item data constraint violation: %w", err)
		}
		r.log.Errorf("Repository: Failed to execute partial update for item ID %d: %v", id, err)
		return nil, fmt.Errorf("could not partially update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after partial update for ID %d: %v", id, err)
		return nil, fmt.Errorf("could not confirm item update: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Item with ID %d not found for update (0 rows affected)", id)
		return nil, fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
	}

	r.log.Infof("Repository: Partial update successful for item ID %d. Fetching updated item.", id)
	return r.GetItemByID(ctx, id)
}

func (r *postgresItemRepository) DeleteItem(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			r.log.Warnf("Attempted to delete item ID %d that still has variants", id)
			return fmt.Errorf("item with id %d still has variants: constraint violation", id)
		}
		r.log.Errorf("Failed to delete item ID %d: %v", id, err)
		return fmt.Errorf("could not delete item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after deleting item ID %d: %v", id, err)
		return fmt.Errorf("could not confirm item deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Attempted to delete non-existent item ID %d", id)
		return fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
	}
	r.log.Infof("Item deleted successfully with ID: %d", id)
	return nil
}

func (r *postgresItemRepository) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	where := []string{}
	args := []interface{}{}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		where = append(where, "i.category_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ParentID > 0 {
		args = append(args, filter.ParentID)
		where = append(where, "i.parent_id = $"+strconv.Itoa(len(args)))
	}

	query := selectItem
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY i.id ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Failed to list items (%+v): %v", filter, err)
		return nil, fmt.Errorf("could not list items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			r.log.Errorf("Failed to scan item row: %v", err)
			return nil, fmt.Errorf("error scanning item data: %w", err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during items list iteration: %v", err)
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	r.log.Infof("Retrieved %d items (limit: %d, offset: %d)", len(items), limit, offset)
	return items, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullableID(id int) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}

func temperatureToColumn(v domain.Value) sql.NullString {
	if v.IsBlank() {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

// temperatureFromColumn restores numeric readings as numbers.
func temperatureFromColumn(s sql.NullString) domain.Value {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return domain.Value{}
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s.String), 64); err == nil {
		return domain.NumberValue(f)
	}
	return domain.StringValue(s.String)
}
