package delivery

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubCategoryUseCase struct {
	categories map[int]domain.Category
}

func (s *stubCategoryUseCase) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	if c.Name == "" {
		return nil, errors.New("category name cannot be empty")
	}
	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return nil, fmt.Errorf("category with name '%s' already exists", c.Name)
		}
	}
	c.ID = len(s.categories) + 1
	s.categories[c.ID] = *c
	return c, nil
}

func (s *stubCategoryUseCase) GetCategoryByID(_ context.Context, id int) (*domain.Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category with id %d %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (s *stubCategoryUseCase) UpdateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	s.categories[c.ID] = *c
	return c, nil
}

func (s *stubCategoryUseCase) DeleteCategory(_ context.Context, id int) error {
	delete(s.categories, id)
	return nil
}

func (s *stubCategoryUseCase) ListCategories(context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}

type stubConfigUseCase struct {
	saved map[int]domain.CategoryConfig
}

func (s *stubConfigUseCase) GetConfig(_ context.Context, categoryID int) (*domain.CategoryConfig, error) {
	cfg, ok := s.saved[categoryID]
	if !ok {
		return nil, fmt.Errorf("config for category with id %d %w", categoryID, domain.ErrNotFound)
	}
	return &cfg, nil
}

func (s *stubConfigUseCase) SaveConfig(_ context.Context, categoryID int, cfg *domain.CategoryConfig) (*domain.CategoryConfig, error) {
	for _, f := range cfg.Fields {
		if !f.Type.Valid() {
			return nil, fmt.Errorf("invalid field '%s': unknown type '%s'", f.Key, f.Type)
		}
	}
	cfg.CategoryID = categoryID
	s.saved[categoryID] = *cfg
	return cfg, nil
}

func (s *stubConfigUseCase) DeleteConfig(_ context.Context, categoryID int) error {
	delete(s.saved, categoryID)
	return nil
}

func (s *stubConfigUseCase) Resolve(_ context.Context, name string) catalog.Resolution {
	if cfg, ok := catalog.BuiltinConfig(name); ok {
		return catalog.Resolution{Config: cfg, Fallback: true, Source: catalog.SourceBuiltin}
	}
	return catalog.Resolution{Config: catalog.DefaultConfig(), Fallback: true, Source: catalog.SourceDefault}
}

func (s *stubConfigUseCase) Defaults() []domain.CategoryConfig {
	return catalog.BuiltinConfigs()
}

type stubItemUseCase struct {
	items       map[int]domain.Item
	lastFilter  domain.ItemFilter
	lastUpdates map[string]json.RawMessage
}

func (s *stubItemUseCase) CreateItem(_ context.Context, item *domain.Item) (*domain.Item, error) {
	if !item.Price.IsPositive() {
		return nil, errors.New("item price must be positive")
	}
	item.ID = len(s.items) + 1
	s.items[item.ID] = *item
	return item, nil
}

func (s *stubItemUseCase) GetItemByID(_ context.Context, id int) (*domain.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
	}
	return &item, nil
}

func (s *stubItemUseCase) UpdateItem(ctx context.Context, id int, updates map[string]json.RawMessage) (*domain.Item, error) {
	s.lastUpdates = updates
	return s.GetItemByID(ctx, id)
}

func (s *stubItemUseCase) DeleteItem(_ context.Context, id int) error {
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item with id %d %w", id, domain.ErrNotFound)
	}
	return errors.New("item with id 1 still has variants: constraint violation")
}

func (s *stubItemUseCase) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubItemUseCase) ListVariants(context.Context, int) ([]domain.Item, error) {
	return []domain.Item{}, nil
}

func (s *stubItemUseCase) SpecSheet(ctx context.Context, id int) (*usecase.SpecSheet, error) {
	item, err := s.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := catalog.Resolution{Config: catalog.DefaultConfig(), Fallback: true, Source: catalog.SourceDefault}
	if cfg, ok := catalog.BuiltinConfig(item.Category); ok {
		res = catalog.Resolution{Config: cfg, Fallback: true, Source: catalog.SourceBuiltin}
	}
	return &usecase.SpecSheet{
		ItemID: item.ID, SKU: item.SKU, Name: item.Name, Category: item.Category,
		Fallback: res.Fallback, Source: res.Source, Entries: catalog.Project(item, res.Config),
	}, nil
}

func (s *stubItemUseCase) ExportSpecSheets(ctx context.Context, categoryID int) ([]usecase.SpecSheet, error) {
	if categoryID == 99 {
		return nil, fmt.Errorf("category with id 99 %w", domain.ErrNotFound)
	}
	var sheets []usecase.SpecSheet
	for id := 1; id <= len(s.items); id++ {
		sheet, err := s.SpecSheet(ctx, id)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, *sheet)
	}
	return sheets, nil
}

type testServer struct {
	router  *gin.Engine
	items   *stubItemUseCase
	configs *stubConfigUseCase
}

func newTestServer() *testServer {
	logger := quietLogger()
	items := &stubItemUseCase{items: map[int]domain.Item{}}
	configs := &stubConfigUseCase{saved: map[int]domain.CategoryConfig{}}
	categories := &stubCategoryUseCase{categories: map[int]domain.Category{1: {ID: 1, Name: "Headlight"}}}

	admin := func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer admin" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}

	router := gin.New()
	NewCategoryHandler(categories, configs, logger).RegisterRoutes(router, admin)
	NewItemHandler(items, logger).RegisterRoutes(router)
	return &testServer{router: router, items: items, configs: configs}
}

func (s *testServer) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	var envelope struct {
		Status  string          `json:"Status"`
		Message string          `json:"Message"`
		Data    json.RawMessage `json:"Data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return Response{Status: envelope.Status, Message: envelope.Message}
}

func TestCategoryRoutes(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/categories", `{"name":"Wiper"}`, "Authorization", "Bearer admin")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/categories", `{"name":"Wiper"}`, "Authorization", "Bearer admin")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Fail", decodeResponse(t, rec, nil).Status)

	rec = s.do(http.MethodGet, "/categories/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/categories/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryWritesRequireAdmin(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/categories", `{"name":"Mirrors"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodPatch, "/categories/1", `{"name":"Headlights"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(http.MethodDelete, "/categories/1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var category domain.Category
	rec = s.do(http.MethodGet, "/categories/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &category)
	assert.Equal(t, "Headlight", category.Name)

	rec = s.do(http.MethodPatch, "/categories/1", `{"name":"Headlights"}`, "Authorization", "Bearer admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/categories/1", "", "Authorization", "Bearer admin")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveConfigWithoutActiveFlagIsActive(t *testing.T) {
	s := newTestServer()
	body := `{"variant_dimensions":[{"label":"Voltage","field":"spec_voltage","active":true}]}`

	rec := s.do(http.MethodPut, "/categories/1/config", body, "Authorization", "Bearer admin")
	require.Equal(t, http.StatusOK, rec.Code)

	var saved domain.CategoryConfig
	decodeResponse(t, rec, &saved)
	assert.True(t, saved.IsActive)
	assert.True(t, s.configs.saved[1].IsActive)

	rec = s.do(http.MethodPut, "/categories/1/config", `{"is_active":false}`, "Authorization", "Bearer admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.configs.saved[1].IsActive)
}

func TestConfigRoutes(t *testing.T) {
	s := newTestServer()
	body := `{"variant_dimensions":[{"label":"Socket","field":"variant_type","active":true}],"is_active":true}`

	rec := s.do(http.MethodPut, "/categories/1/config", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.configs.saved)

	rec = s.do(http.MethodPut, "/categories/1/config", body, "Authorization", "Bearer admin")
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg domain.CategoryConfig
	rec = s.do(http.MethodGet, "/categories/1/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &cfg)
	assert.Equal(t, "Socket", cfg.Dimensions[0].Label)

	rec = s.do(http.MethodPut, "/categories/1/config", `{"fields":[{"key":"w","label":"W","type":"float"}]}`,
		"Authorization", "Bearer admin")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/categories/1/config", "", "Authorization", "Bearer admin")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/categories/1/config", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveAndDefaultsRoutes(t *testing.T) {
	s := newTestServer()

	var res catalog.Resolution
	rec := s.do(http.MethodGet, "/categories/resolve?name=Wiper", "")
	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeResponse(t, rec, &res)
	assert.Equal(t, "Using fallback configuration", envelope.Message)
	assert.Equal(t, catalog.SourceBuiltin, res.Source)
	assert.Equal(t, "Size", res.Config.Dimensions[0].Label)

	rec = s.do(http.MethodGet, "/categories/resolve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &res)
	assert.Equal(t, catalog.SourceDefault, res.Source)

	var defaults []domain.CategoryConfig
	rec = s.do(http.MethodGet, "/categories/defaults", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &defaults)
	assert.Len(t, defaults, len(catalog.BuiltinConfigs()))
}

func TestItemRoutes(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/items", `{"name":"LED Kit","sku":"LED-H4","price":"39.90","category":"Headlight",
		"variant_type":"H4","color_temperature":6000,"attributes":{"wattage":55,"beam":"low"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/items", `{"name":"Free","sku":"F","price":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/items", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, "/items/1", `{"attributes":{"z":1,"a":2}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"z":1,"a":2}`, string(s.items.lastUpdates["attributes"]))

	rec = s.do(http.MethodPatch, "/items/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/items/1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodDelete, "/items/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/items?limit=500&offset=-1&category_id=1&parent_id=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ItemFilter{CategoryID: 1, ParentID: 2, Limit: 100, Offset: 0}, s.items.lastFilter)
	var listed []domain.Item
	decodeResponse(t, rec, &listed)
	assert.NotNil(t, listed)

	rec = s.do(http.MethodGet, "/items?category_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpecSheetRoute(t *testing.T) {
	s := newTestServer()
	s.do(http.MethodPost, "/items", `{"name":"LED Kit","sku":"LED-H4","price":"39.90","category":"Headlight",
		"variant_type":"H4","color_temperature":6000,"attributes":{"wattage":55,"beam":"low"}}`)

	var sheet usecase.SpecSheet
	rec := s.do(http.MethodGet, "/items/1/specs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &sheet)

	assert.Equal(t, catalog.SourceBuiltin, sheet.Source)
	assert.Equal(t, []catalog.SpecEntry{
		{Label: "Socket", Value: "H4"},
		{Label: "Color Temperature", Value: "6000K"},
		{Label: "Wattage", Value: "55W"},
		{Label: "BEAM", Value: "low"},
	}, sheet.Entries)

	rec = s.do(http.MethodGet, "/items/5/specs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportSpecSheetsRoute(t *testing.T) {
	s := newTestServer()
	s.do(http.MethodPost, "/items", `{"name":"LED Kit","sku":"LED-H4","price":"39.90","category":"Headlight","variant_type":"H4"}`)
	s.do(http.MethodPost, "/items", `{"name":"Plain","sku":"P","price":"1"}`)

	rec := s.do(http.MethodGet, "/items/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"item_id", "sku", "name", "category", "source", "label", "value"},
		{"1", "LED-H4", "LED Kit", "Headlight", "builtin", "Socket", "H4"},
		{"2", "P", "Plain", "", "default", "", ""},
	}, records)

	rec = s.do(http.MethodGet, "/items/export.csv?category_id=99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/items/export.csv?category_id=-3", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMapErrorToStatus(t *testing.T) {
	cases := map[string]int{
		"category with id 3 not found":                   http.StatusNotFound,
		"item with sku 'A' already exists":               http.StatusConflict,
		"invalid field 'x': unknown type 'float'":        http.StatusBadRequest,
		"parent item with id 4 does not exist":           http.StatusBadRequest,
		"item stock cannot be negative":                  http.StatusBadRequest,
		"could not list items: connection reset by peer": http.StatusInternalServerError,
	}
	for msg, want := range cases {
		assert.Equal(t, want, mapErrorToStatus(errors.New(msg)), msg)
	}
	assert.Equal(t, http.StatusNotFound, mapErrorToStatus(fmt.Errorf("config %w", domain.ErrNotFound)))
}
