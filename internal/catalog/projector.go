package catalog

import (
	"strings"
	"unicode"

	"catalog_service/internal/domain"
)

// SpecEntry is one row of an item's spec sheet.
type SpecEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type wellKnownTag struct {
	column  func(item *domain.Item) domain.Value
	aliases []string
	kelvin  bool
}

var wellKnownTags = map[string]wellKnownTag{
	TagVariantType: {
		column:  func(item *domain.Item) domain.Value { return domain.StringValue(item.VariantType) },
		aliases: []string{"socket_type", "type", "size"},
	},
	TagVariantColor: {
		column:  func(item *domain.Item) domain.Value { return domain.StringValue(item.VariantColor) },
		aliases: []string{"color", "colour"},
	},
	TagColorTemperature: {
		column:  func(item *domain.Item) domain.Value { return item.ColorTemperature },
		aliases: []string{"kelvin", "temperature", "color_temp"},
		kelvin:  true,
	},
}

// temperatureKeys name the same measurement as the color temperature column.
var temperatureKeys = map[string]struct{}{
	"color_temperature": {}, "kelvin": {}, "temperature": {}, "color_temp": {},
}

const (
	boltPatternKey   = "bolt_pattern"
	boltPatternLabel = "Bolt Pattern"
	nestedSpecsKey   = "specs"
)

var boltPatternAliases = []string{boltPatternKey, "pcd"}

// Keys of the blob that are never shown on a spec sheet.
var internalKeys = map[string]struct{}{
	"tags": {}, nestedSpecsKey: {}, "restock_level": {}, "last_restock": {}, "reorder_point": {},
	"internal_notes": {}, "notes": {}, boltPatternKey: {}, "pcd": {},
}

// consumed tracks keys and values already emitted. Both sets hold lower-cased entries.
type consumed struct {
	keys   map[string]struct{}
	values map[string]struct{}
}

func newConsumed() consumed {
	return consumed{keys: map[string]struct{}{}, values: map[string]struct{}{}}
}

func (c consumed) hasKey(key string) bool {
	_, ok := c.keys[strings.ToLower(key)]
	return ok
}

func (c consumed) hasValue(value string) bool {
	_, ok := c.values[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// mentions reports whether an emitted value contains s as whole words, e.g. a
// socket type written as "H4 6000K" already showing the temperature.
func (c consumed) mentions(s string) bool {
	want := words(s)
	if len(want) == 0 {
		return false
	}
	for v := range c.values {
		if containsRun(words(v), want) {
			return true
		}
	}
	return false
}

// words splits s into lower-cased runs of letters, digits and dots.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
}

func containsRun(haystack, run []string) bool {
	for i := 0; i+len(run) <= len(haystack); i++ {
		match := true
		for j := range run {
			if haystack[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (c consumed) markKeys(keys ...string) {
	for _, k := range keys {
		if k != "" {
			c.keys[strings.ToLower(k)] = struct{}{}
		}
	}
}

func (c consumed) markValues(values ...string) {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			c.values[strings.ToLower(v)] = struct{}{}
		}
	}
}

// Project flattens an item into ordered label/value pairs: active dimensions,
// then technical fields, then the bolt pattern, then whatever remains in the
// attributes blob. No two entries share a value, ignoring case.
func Project(item *domain.Item, cfg domain.CategoryConfig) []SpecEntry {
	entries := []SpecEntry{}
	if item == nil {
		return entries
	}

	acc := newConsumed()
	steps := []func(*domain.Item, domain.CategoryConfig, consumed) ([]SpecEntry, consumed){
		projectDimensions,
		projectFields,
		projectBoltPattern,
		projectRemaining,
	}
	for _, step := range steps {
		var out []SpecEntry
		out, acc = step(item, cfg, acc)
		entries = append(entries, out...)
	}
	return entries
}

func projectDimensions(item *domain.Item, cfg domain.CategoryConfig, acc consumed) ([]SpecEntry, consumed) {
	var out []SpecEntry
	for _, dim := range cfg.ActiveDimensions() {
		tag := strings.TrimSpace(dim.Field)
		if tag == "" || acc.hasKey(tag) {
			continue
		}

		value, raw, keys := dimensionValue(item, tag)
		acc.markKeys(keys...)
		if isBlank(value) || acc.hasValue(value) {
			continue
		}
		acc.markValues(value, raw)
		out = append(out, SpecEntry{Label: dim.Label, Value: value})
	}
	return out, acc
}

// dimensionValue resolves a storage tag to its display value and raw value,
// and reports every key the tag stands for.
func dimensionValue(item *domain.Item, tag string) (string, string, []string) {
	known, ok := wellKnownTags[strings.ToLower(tag)]
	if !ok {
		key, v, found := topLevelOrBlob(item, tag)
		if !found || v.Kind() == domain.KindMap {
			return "", "", []string{tag, key}
		}
		value := strings.TrimSpace(v.String())
		return value, value, []string{tag, key}
	}

	keys := append([]string{tag}, known.aliases...)
	v := known.column(item)
	if v.IsBlank() {
		for _, alias := range known.aliases {
			if _, av, found := topLevelOrBlob(item, alias); found && !av.IsBlank() {
				v = av
				break
			}
		}
	}

	raw := strings.TrimSpace(v.String())
	value := raw
	if known.kelvin && isNumeric(raw) {
		value += "K"
	}
	return value, raw, keys
}

func projectFields(item *domain.Item, cfg domain.CategoryConfig, acc consumed) ([]SpecEntry, consumed) {
	temperatureShown := temperatureDimensionActive(cfg)

	var out []SpecEntry
	for _, field := range cfg.Fields {
		key := strings.TrimSpace(field.Key)
		if key == "" || acc.hasKey(key) {
			continue
		}
		_, isTemp := temperatureKeys[strings.ToLower(key)]
		if isTemp && temperatureShown {
			continue
		}

		v, keys := fieldValue(item, key)
		acc.markKeys(keys...)
		raw := strings.TrimSpace(v.String())
		if v.Kind() == domain.KindMap || isBlank(raw) {
			continue
		}

		value := withUnit(raw, field.Unit)
		if acc.hasValue(value) {
			continue
		}
		if isTemp && (acc.mentions(value) || acc.mentions(raw+"K")) {
			continue
		}
		acc.markValues(value, raw)
		out = append(out, SpecEntry{Label: field.Label, Value: value})
	}
	return out, acc
}

// temperatureDimensionActive reports whether an active dimension already
// carries the color temperature, under its tag or one of its aliases.
func temperatureDimensionActive(cfg domain.CategoryConfig) bool {
	for _, dim := range cfg.ActiveDimensions() {
		tag := strings.ToLower(strings.TrimSpace(dim.Field))
		if _, ok := temperatureKeys[tag]; ok {
			return true
		}
	}
	return false
}

// fieldValue resolves a flat key or a "parent.child" path.
func fieldValue(item *domain.Item, key string) (domain.Value, []string) {
	parent, child, nested := strings.Cut(key, ".")
	if !nested {
		found, v, _ := topLevelOrBlob(item, key)
		return v, []string{key, found}
	}

	keys := []string{key, child}
	if top, ok := item.Field(parent); ok {
		if m, isMap := top.Map(); isMap {
			if _, v, found := m.Lookup(child); found {
				return v, keys
			}
		}
	}
	if _, pv, ok := item.Attributes.Lookup(parent); ok {
		if m, isMap := pv.Map(); isMap {
			if _, v, found := m.Lookup(child); found {
				return v, keys
			}
		}
	}
	return domain.Value{}, keys
}

func projectBoltPattern(item *domain.Item, _ domain.CategoryConfig, acc consumed) ([]SpecEntry, consumed) {
	for _, k := range boltPatternAliases {
		if acc.hasKey(k) {
			return nil, acc
		}
	}
	acc.markKeys(boltPatternAliases...)

	var value string
	for _, k := range boltPatternAliases {
		if _, v, found := topLevelOrBlob(item, k); found && !v.IsBlank() {
			value = strings.TrimSpace(v.String())
			break
		}
	}
	if isBlank(value) || acc.hasValue(value) {
		return nil, acc
	}
	acc.markValues(value)
	return []SpecEntry{{Label: boltPatternLabel, Value: value}}, acc
}

func projectRemaining(item *domain.Item, _ domain.CategoryConfig, acc consumed) ([]SpecEntry, consumed) {
	var out []SpecEntry
	for _, kv := range remainingAttributes(item.Attributes) {
		if _, internal := internalKeys[strings.ToLower(kv.key)]; internal || acc.hasKey(kv.key) {
			continue
		}
		if kv.value.Kind() == domain.KindMap || kv.value.IsZero() {
			continue
		}

		value := strings.TrimSpace(kv.value.String())
		if isBlank(value) || acc.hasValue(value) {
			continue
		}
		acc.markKeys(kv.key)
		acc.markValues(value)
		out = append(out, SpecEntry{Label: deriveLabel(kv.key), Value: value})
	}
	return out, acc
}

type keyValue struct {
	key   string
	value domain.Value
}

// remainingAttributes merges the blob with its nested specs mapping. Blob
// keys come first; a specs key is skipped when the blob already has it.
func remainingAttributes(blob *domain.Attributes) []keyValue {
	merged := make([]keyValue, 0, blob.Len())
	seen := map[string]struct{}{}
	add := func(k string, v domain.Value) {
		lower := strings.ToLower(k)
		if _, dup := seen[lower]; dup {
			return
		}
		seen[lower] = struct{}{}
		merged = append(merged, keyValue{key: k, value: v})
	}

	blob.Each(add)
	if _, specs, ok := blob.Lookup(nestedSpecsKey); ok {
		if m, isMap := specs.Map(); isMap {
			m.Each(add)
		}
	}
	return merged
}

// topLevelOrBlob looks a key up among the item's top-level attributes first,
// then in the attributes blob. Both lookups ignore letter case.
func topLevelOrBlob(item *domain.Item, key string) (string, domain.Value, bool) {
	if v, ok := item.Field(key); ok && !v.IsBlank() {
		return key, v, true
	}
	if found, v, ok := item.Attributes.Lookup(key); ok {
		return found, v, true
	}
	return "", domain.Value{}, false
}

func deriveLabel(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "_", " "))
}

func withUnit(value, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" || strings.HasSuffix(strings.ToLower(value), strings.ToLower(unit)) {
		return value
	}
	return value + unit
}

// isNumeric accepts plain decimal numbers only: digits with at most one dot.
func isNumeric(s string) bool {
	digits, dot := 0, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	lower := strings.ToLower(s)
	return lower == "undefined" || lower == "null"
}
