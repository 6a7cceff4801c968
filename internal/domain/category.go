package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is wrapped by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeSelect FieldType = "select"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeSelect:
		return true
	}
	return false
}

// VariantDimension is an axis along which variants of a product differ.
// Field is the storage-location tag the value is read from.
type VariantDimension struct {
	Label  string `json:"label"`
	Field  string `json:"field"`
	Active bool   `json:"active"`
}

// TechnicalField is a category specific specification shown on spec sheets.
type TechnicalField struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Unit    string    `json:"unit,omitempty"`
	Options []string  `json:"options,omitempty"`
}

// CategoryConfig describes which dimensions and fields apply to a category.
// A nil list means the list was never configured.
type CategoryConfig struct {
	ID             int                `json:"id,omitempty"`
	CategoryID     int                `json:"category_id,omitempty"`
	CategoryName   string             `json:"category_name"`
	Dimensions     []VariantDimension `json:"variant_dimensions"`
	Fields         []TechnicalField   `json:"fields"`
	SuggestedTypes []string           `json:"suggested_types"`
	IsActive       bool               `json:"is_active"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// UnmarshalJSON treats a missing is_active as true, so a saved configuration
// takes effect unless it is switched off explicitly.
func (c *CategoryConfig) UnmarshalJSON(data []byte) error {
	type configAlias CategoryConfig
	aux := struct {
		*configAlias
		IsActive *bool `json:"is_active"`
	}{configAlias: (*configAlias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.IsActive = aux.IsActive == nil || *aux.IsActive
	return nil
}

// ActiveDimensions returns the active dimensions in configuration order.
func (c CategoryConfig) ActiveDimensions() []VariantDimension {
	active := make([]VariantDimension, 0, len(c.Dimensions))
	for _, d := range c.Dimensions {
		if d.Active {
			active = append(active, d)
		}
	}
	return active
}

// Clone returns a deep copy; nil lists stay nil.
func (c CategoryConfig) Clone() CategoryConfig {
	out := c
	if c.Dimensions != nil {
		out.Dimensions = append([]VariantDimension{}, c.Dimensions...)
	}
	if c.Fields != nil {
		out.Fields = make([]TechnicalField, len(c.Fields))
		for i, f := range c.Fields {
			if f.Options != nil {
				f.Options = append([]string{}, f.Options...)
			}
			out.Fields[i] = f
		}
	}
	if c.SuggestedTypes != nil {
		out.SuggestedTypes = append([]string{}, c.SuggestedTypes...)
	}
	return out
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *Category) (*Category, error)
	GetCategoryByID(ctx context.Context, id int) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id int) error
	ListCategories(ctx context.Context) ([]Category, error)
}

// ConfigCache drops configurations cached under a category name.
type ConfigCache interface {
	Forget(ctx context.Context, categoryName string)
}

type CategoryConfigRepository interface {
	GetConfigByCategoryID(ctx context.Context, categoryID int) (*CategoryConfig, error)
	// FindConfigByCategoryName matches the category name ignoring letter case.
	FindConfigByCategoryName(ctx context.Context, name string) (*CategoryConfig, error)
	UpsertConfig(ctx context.Context, cfg *CategoryConfig) (*CategoryConfig, error)
	DeleteConfig(ctx context.Context, categoryID int) error
}
