package domain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Item is a base product (ParentID == 0) or one of its variants.
type Item struct {
	ID               int             `json:"id"`
	ParentID         int             `json:"parent_id"`
	CategoryID       int             `json:"category_id"`
	Category         string          `json:"category"`
	Name             string          `json:"name"`
	SKU              string          `json:"sku"`
	Price            decimal.Decimal `json:"price"`
	Stock            int             `json:"stock"`
	VariantType      string          `json:"variant_type"`
	VariantColor     string          `json:"variant_color"`
	ColorTemperature Value           `json:"color_temperature"`
	BoltPattern      string          `json:"bolt_pattern"`
	// Extra holds top-level fields that have no dedicated column.
	Extra      *Attributes `json:"extra,omitempty"`
	Attributes *Attributes `json:"attributes"`
}

func (i *Item) IsVariant() bool { return i.ParentID != 0 }

var itemColumns = map[string]struct{}{
	"id": {}, "parent_id": {}, "category_id": {}, "category": {}, "name": {}, "sku": {},
	"price": {}, "stock": {}, "variant_type": {}, "variant_color": {}, "color_temperature": {},
	"bolt_pattern": {}, "extra": {}, "attributes": {},
}

// UnmarshalJSON decodes the known columns, collects any other top-level key
// into Extra and decodes the attributes blob leniently.
func (i *Item) UnmarshalJSON(data []byte) error {
	type itemAlias Item
	aux := struct {
		*itemAlias
		Extra      json.RawMessage `json:"extra"`
		Attributes json.RawMessage `json:"attributes"`
	}{itemAlias: (*itemAlias)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	i.Attributes = ParseAttributes(aux.Attributes)
	i.Extra = ParseAttributes(aux.Extra)

	top := orderedmap.New[string, json.RawMessage]()
	if err := top.UnmarshalJSON(data); err != nil {
		return err
	}
	for pair := top.Oldest(); pair != nil; pair = pair.Next() {
		if _, known := itemColumns[strings.ToLower(pair.Key)]; known {
			continue
		}
		var v Value
		if err := json.Unmarshal(pair.Value, &v); err != nil {
			continue
		}
		i.Extra.Set(pair.Key, v)
	}
	return nil
}

// Field returns a top-level attribute of the item: one of the attribute
// columns by its JSON name, or an Extra entry (letter case ignored).
func (i *Item) Field(key string) (Value, bool) {
	switch strings.ToLower(key) {
	case "name":
		return StringValue(i.Name), true
	case "sku":
		return StringValue(i.SKU), true
	case "category":
		return StringValue(i.Category), true
	case "variant_type":
		return StringValue(i.VariantType), true
	case "variant_color":
		return StringValue(i.VariantColor), true
	case "color_temperature":
		return i.ColorTemperature, true
	case "bolt_pattern":
		return StringValue(i.BoltPattern), true
	}
	_, v, ok := i.Extra.Lookup(key)
	return v, ok
}

type ItemFilter struct {
	CategoryID int
	ParentID   int
	Limit      int
	Offset     int
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *Item) (*Item, error)
	GetItemByID(ctx context.Context, id int) (*Item, error)
	UpdateItem(ctx context.Context, id int, updates map[string]interface{}) (*Item, error)
	DeleteItem(ctx context.Context, id int) error
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)
}
