package catalog

import (
	"sort"

	"catalog_service/internal/domain"
)

// Storage-location tags with dedicated item columns.
const (
	TagVariantType      = "variant_type"
	TagVariantColor     = "variant_color"
	TagColorTemperature = "color_temperature"
)

var defaultConfig = domain.CategoryConfig{
	Dimensions: []domain.VariantDimension{
		{Label: "Type / Size", Field: TagVariantType, Active: true},
	},
	Fields: []domain.TechnicalField{
		{Key: "specification", Label: "Specification", Type: domain.FieldTypeText},
	},
	SuggestedTypes: []string{},
	IsActive:       true,
}

// builtinConfigs is keyed by exact category name.
var builtinConfigs = map[string]domain.CategoryConfig{
	"Headlight": {
		CategoryName: "Headlight",
		Dimensions: []domain.VariantDimension{
			{Label: "Socket", Field: TagVariantType, Active: true},
			{Label: "Color Temperature", Field: TagColorTemperature, Active: true},
			{Label: "Color", Field: TagVariantColor, Active: false},
		},
		Fields: []domain.TechnicalField{
			{Key: "wattage", Label: "Wattage", Type: domain.FieldTypeNumber, Unit: "W"},
			{Key: "voltage", Label: "Voltage", Type: domain.FieldTypeNumber, Unit: "V"},
			{Key: "lumens", Label: "Lumens", Type: domain.FieldTypeNumber, Unit: "lm"},
			{Key: "color_temperature", Label: "Color Temperature", Type: domain.FieldTypeNumber, Unit: "K"},
		},
		SuggestedTypes: []string{"H1", "H4", "H7", "H11", "9005", "9006", "D2S"},
		IsActive:       true,
	},
	"Fog Light": {
		CategoryName: "Fog Light",
		Dimensions: []domain.VariantDimension{
			{Label: "Socket", Field: TagVariantType, Active: true},
			{Label: "Lens Color", Field: TagVariantColor, Active: true},
		},
		Fields: []domain.TechnicalField{
			{Key: "wattage", Label: "Wattage", Type: domain.FieldTypeNumber, Unit: "W"},
			{Key: "color_temperature", Label: "Color Temperature", Type: domain.FieldTypeNumber, Unit: "K"},
			{Key: "housing.material", Label: "Housing", Type: domain.FieldTypeText},
		},
		SuggestedTypes: []string{"H3", "H8", "H11", "880", "881"},
		IsActive:       true,
	},
	"Wiper": {
		CategoryName: "Wiper",
		Dimensions: []domain.VariantDimension{
			{Label: "Size", Field: TagVariantType, Active: true},
		},
		Fields: []domain.TechnicalField{
			{Key: "blade_type", Label: "Blade Type", Type: domain.FieldTypeSelect, Options: []string{"Conventional", "Beam", "Hybrid"}},
			{Key: "connector", Label: "Connector", Type: domain.FieldTypeText},
		},
		SuggestedTypes: []string{`14"`, `16"`, `18"`, `20"`, `22"`, `24"`, `26"`},
		IsActive:       true,
	},
	"Wheels": {
		CategoryName: "Wheels",
		Dimensions: []domain.VariantDimension{
			{Label: "Size", Field: TagVariantType, Active: true},
			{Label: "Finish", Field: TagVariantColor, Active: true},
		},
		Fields: []domain.TechnicalField{
			{Key: "offset", Label: "Offset", Type: domain.FieldTypeNumber, Unit: "mm"},
			{Key: "center_bore", Label: "Center Bore", Type: domain.FieldTypeNumber, Unit: "mm"},
		},
		SuggestedTypes: []string{"15x7", "16x7", "17x8", "18x8.5"},
		IsActive:       true,
	},
	"Battery": {
		CategoryName: "Battery",
		Dimensions: []domain.VariantDimension{
			{Label: "Group Size", Field: TagVariantType, Active: true},
		},
		Fields: []domain.TechnicalField{
			{Key: "cca", Label: "Cold Cranking Amps", Type: domain.FieldTypeNumber, Unit: "A"},
			{Key: "voltage", Label: "Voltage", Type: domain.FieldTypeNumber, Unit: "V"},
			{Key: "capacity", Label: "Capacity", Type: domain.FieldTypeNumber, Unit: "Ah"},
		},
		SuggestedTypes: []string{"NS40", "NS60", "DIN55", "DIN66", "DIN74"},
		IsActive:       true,
	},
}

// DefaultConfig returns a copy of the configuration used when nothing better is known.
func DefaultConfig() domain.CategoryConfig {
	return defaultConfig.Clone()
}

// BuiltinConfig returns a copy of the built-in configuration for the exact category name.
func BuiltinConfig(name string) (domain.CategoryConfig, bool) {
	cfg, ok := builtinConfigs[name]
	if !ok {
		return domain.CategoryConfig{}, false
	}
	return cfg.Clone(), true
}

// BuiltinConfigs lists copies of all built-in configurations sorted by name.
func BuiltinConfigs() []domain.CategoryConfig {
	out := make([]domain.CategoryConfig, 0, len(builtinConfigs))
	for _, cfg := range builtinConfigs {
		out = append(out, cfg.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryName < out[j].CategoryName })
	return out
}

// fallbackConfig is the built-in entry for name, or the global default.
func fallbackConfig(name string) (domain.CategoryConfig, Source) {
	if cfg, ok := BuiltinConfig(name); ok {
		return cfg, SourceBuiltin
	}
	cfg := DefaultConfig()
	cfg.CategoryName = name
	return cfg, SourceDefault
}
