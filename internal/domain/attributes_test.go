package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributesKeepsOrder(t *testing.T) {
	attrs := ParseAttributes([]byte(`{"zeta":1,"Alpha":"x","mid":{"inner":true}}`))

	assert.Equal(t, []string{"zeta", "Alpha", "mid"}, attrs.Keys())

	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"Alpha":"x","mid":{"inner":true}}`, string(data))
}

func TestParseAttributesLenient(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"null":          `null`,
		"array":         `[1,2]`,
		"number":        `42`,
		"malformed":     `{"a":`,
		"string scalar": `"hello"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			attrs := ParseAttributes([]byte(raw))
			require.NotNil(t, attrs)
			assert.Equal(t, 0, attrs.Len())
		})
	}

	t.Run("json string holding an object", func(t *testing.T) {
		attrs := ParseAttributes([]byte(`"{\"wattage\": 55}"`))
		v, ok := attrs.Get("wattage")
		require.True(t, ok)
		assert.Equal(t, "55", v.String())
	})
}

func TestAttributesLookup(t *testing.T) {
	attrs := ParseAttributes([]byte(`{"Beam":"low","beam":"high","VOLTAGE":12}`))

	key, v, ok := attrs.Lookup("beam")
	require.True(t, ok)
	assert.Equal(t, "beam", key)
	assert.Equal(t, "high", v.String())

	key, v, ok = attrs.Lookup("voltage")
	require.True(t, ok)
	assert.Equal(t, "VOLTAGE", key)
	assert.Equal(t, "12", v.String())

	_, _, ok = attrs.Lookup("lumens")
	assert.False(t, ok)

	var nilAttrs *Attributes
	_, _, ok = nilAttrs.Lookup("beam")
	assert.False(t, ok)
	assert.Equal(t, 0, nilAttrs.Len())
}

func TestAttributesScanAndValue(t *testing.T) {
	var attrs Attributes
	require.NoError(t, attrs.Scan([]byte(`{"b":2,"a":1}`)))
	assert.Equal(t, []string{"b", "a"}, attrs.Keys())

	stored, err := attrs.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":1}`, stored)

	require.NoError(t, attrs.Scan(nil))
	assert.Equal(t, 0, attrs.Len())

	require.NoError(t, attrs.Scan("not json"))
	assert.Equal(t, 0, attrs.Len())

	assert.Error(t, attrs.Scan(17))
}

func TestValueDecoding(t *testing.T) {
	cases := []struct {
		raw     string
		kind    ValueKind
		display string
		blank   bool
		zero    bool
	}{
		{`"H4"`, KindString, "H4", false, false},
		{`"  "`, KindString, "  ", true, true},
		{`"undefined"`, KindString, "undefined", true, true},
		{`"0"`, KindString, "0", false, true},
		{`6000`, KindNumber, "6000", false, false},
		{`12.5`, KindNumber, "12.5", false, false},
		{`0`, KindNumber, "0", false, true},
		{`true`, KindBool, "Yes", false, false},
		{`false`, KindBool, "No", false, true},
		{`["A", null, 2, {"x":1}]`, KindList, "A, 2", false, false},
		{`[]`, KindList, "", true, true},
		{`{}`, KindMap, "", true, true},
		{`null`, KindNull, "", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			var v Value
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &v))
			assert.Equal(t, tc.kind, v.Kind())
			assert.Equal(t, tc.display, v.String())
			assert.Equal(t, tc.blank, v.IsBlank())
			assert.Equal(t, tc.zero, v.IsZero())
		})
	}
}

func TestValueNumber(t *testing.T) {
	n, ok := StringValue(" 4300 ").Number()
	assert.True(t, ok)
	assert.Equal(t, 4300.0, n)

	_, ok = StringValue("warm").Number()
	assert.False(t, ok)

	_, ok = BoolValue(true).Number()
	assert.False(t, ok)
}

func TestItemUnmarshalCollectsExtra(t *testing.T) {
	var item Item
	err := json.Unmarshal([]byte(`{
		"name": "LED Kit",
		"sku": "LED-H4",
		"price": "39.90",
		"variant_type": "H4",
		"color_temperature": 6000,
		"housing": {"material": "aluminium"},
		"beam_angle": 30,
		"attributes": "{\"wattage\": 55}"
	}`), &item)
	require.NoError(t, err)

	assert.True(t, item.Price.Equal(decimal.RequireFromString("39.9")))
	assert.Equal(t, KindNumber, item.ColorTemperature.Kind())
	assert.Equal(t, []string{"housing", "beam_angle"}, item.Extra.Keys())
	assert.Equal(t, []string{"wattage"}, item.Attributes.Keys())

	v, ok := item.Field("Beam_Angle")
	require.True(t, ok)
	assert.Equal(t, "30", v.String())

	v, ok = item.Field("variant_type")
	require.True(t, ok)
	assert.Equal(t, "H4", v.String())

	_, ok = item.Field("lumens")
	assert.False(t, ok)
	assert.False(t, item.IsVariant())
}

func TestItemUnmarshalMalformedAttributes(t *testing.T) {
	var item Item
	require.NoError(t, json.Unmarshal([]byte(`{"name":"X","attributes":[1,2,3]}`), &item))

	require.NotNil(t, item.Attributes)
	assert.Equal(t, 0, item.Attributes.Len())
	assert.Equal(t, 0, item.Extra.Len())
}

func TestCategoryConfigActiveByDefault(t *testing.T) {
	var cfg CategoryConfig
	require.NoError(t, json.Unmarshal([]byte(`{"variant_dimensions":[{"label":"Voltage","field":"spec_voltage","active":true}]}`), &cfg))
	assert.True(t, cfg.IsActive)
	assert.Equal(t, "spec_voltage", cfg.Dimensions[0].Field)

	require.NoError(t, json.Unmarshal([]byte(`{"is_active":false,"suggested_types":[]}`), &cfg))
	assert.False(t, cfg.IsActive)
	assert.NotNil(t, cfg.SuggestedTypes)

	require.NoError(t, json.Unmarshal([]byte(`{"is_active":null}`), &cfg))
	assert.True(t, cfg.IsActive)

	data, err := json.Marshal(CategoryConfig{CategoryName: "Wiper"})
	require.NoError(t, err)
	var decoded CategoryConfig
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.False(t, decoded.IsActive)
}
