package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"catalog/internal/handlers"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRepository fails every storage call.
type failingRepository struct {
	err error
}

func (r failingRepository) GetAll(context.Context) ([]models.Product, error) { return nil, r.err }
func (r failingRepository) GetByID(context.Context, int) (*models.Product, error) {
	return nil, r.err
}
func (r failingRepository) CountByName(context.Context, string) (int64, error) { return 0, r.err }
func (r failingRepository) Create(context.Context, *models.Product) error     { return r.err }
func (r failingRepository) Update(context.Context, *models.Product) error     { return r.err }
func (r failingRepository) Delete(context.Context, int) error                 { return r.err }

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// setupApp mounts the product routes under /api on a fresh app.
func setupApp(repo repositories.ProductRepository) *fiber.App {
	app := fiber.New()
	handlers.NewProductHandler(services.NewProductService(repo, nil)).RegisterRoutes(app.Group("/api"))
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func seed(t *testing.T, repo repositories.ProductRepository, name string) *models.Product {
	t.Helper()
	input := models.ProductInput{Name: name}
	product := input.ToProduct(0)
	product.Stock = 10
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func TestHandleGetProducts(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	app := setupApp(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `[]`, string(raw))
	resp.Body.Close()

	seed(t, repo, "Laptop")
	seed(t, repo, "Mouse")

	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	resp.Body.Close()
	require.Len(t, products, 2)
	assert.Equal(t, "Laptop", products[0]["PRODUCTNAME"])
	assert.Contains(t, products[0], "PRODUCTID")
	assert.Contains(t, products[0], "PRICE")
	assert.Contains(t, products[0], "STOCK")
}

func TestHandleGetProductByID(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	app := setupApp(repo)
	product := seed(t, repo, "Keyboard")

	resp, body := doRequest(t, app, http.MethodGet, "/api/products/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(product.ID), body["PRODUCTID"])
	assert.Equal(t, "Keyboard", body["PRODUCTNAME"])

	resp, body = doRequest(t, app, http.MethodGet, "/api/products/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["message"])

	resp, _ = doRequest(t, app, http.MethodGet, "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/api/products/0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCreateProduct(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	app := setupApp(repo)

	resp, body := doRequest(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"PRODUCTNAME": "Bolt",
		"PRICE":       2.50,
		"STOCK":       100,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Product created successfully", body["message"])
	assert.Equal(t, float64(1), body["PRODUCTID"])

	stored, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bolt", stored.Name)
	assert.Equal(t, "2.5", stored.Price.String())
	assert.Equal(t, 100, stored.Stock)
}

func TestHandleCreateProduct_AcceptsZeroStockAndMixedCaseKeys(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	app := setupApp(repo)

	resp, _ := doRequest(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"ProductName": "Washer",
		"Price":       0.05,
		"Stock":       0,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	stored, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Washer", stored.Name)
	assert.Equal(t, 0, stored.Stock)
}

func TestHandleCreateProduct_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		body  map[string]interface{}
		field string
	}{
		{"empty name", map[string]interface{}{"PRODUCTNAME": "", "PRICE": 1, "STOCK": 1}, "Name"},
		{"missing name", map[string]interface{}{"PRICE": 1, "STOCK": 1}, "Name"},
		{"zero price", map[string]interface{}{"PRODUCTNAME": "A", "PRICE": 0, "STOCK": 1}, "Price"},
		{"negative price", map[string]interface{}{"PRODUCTNAME": "A", "PRICE": -3.5, "STOCK": 1}, "Price"},
		{"missing price", map[string]interface{}{"PRODUCTNAME": "A", "STOCK": 1}, "Price"},
		{"negative stock", map[string]interface{}{"PRODUCTNAME": "A", "PRICE": 1, "STOCK": -1}, "Stock"},
		{"missing stock", map[string]interface{}{"PRODUCTNAME": "A", "PRICE": 1}, "Stock"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := repositories.NewMemoryProductRepository()
			app := setupApp(repo)

			resp, body := doRequest(t, app, http.MethodPost, "/api/products", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Validation failed: Name is required and price/stock must be positive.", body["message"])
			assert.Contains(t, body["errors"], tc.field)

			products, err := repo.GetAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, products)
		})
	}
}

func TestHandleCreateProduct_InvalidBody(t *testing.T) {
	app := setupApp(repositories.NewMemoryProductRepository())

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader([]byte(`{"PRODUCTNAME":`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHandleCreateProduct_DuplicateName(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	app := setupApp(repo)
	widget := map[string]interface{}{"PRODUCTNAME": "Widget", "PRICE": 4.99, "STOCK": 3}

	resp, _ := doRequest(t, app, http.MethodPost, "/api/products", widget)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doRequest(t, app, http.MethodPost, "/api/products", widget)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Product name 'Widget' already exists.", body["message"])

	count, err := repo.CountByName(context.Background(), "Widget")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHandleUpdateProduct(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	app := setupApp(repo)
	product := seed(t, repo, "Bolt")
	seed(t, repo, "Nut")

	// Renaming onto an existing name is allowed on update.
	resp, body := doRequest(t, app, http.MethodPut, "/api/products/1", map[string]interface{}{
		"PRODUCTNAME": "Nut",
		"PRICE":       3.00,
		"STOCK":       90,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Product updated successfully", body["message"])

	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, stored.ID)
	assert.Equal(t, "Nut", stored.Name)
	assert.Equal(t, "3", stored.Price.String())
	assert.Equal(t, 90, stored.Stock)

	// Unknown IDs still report success.
	resp, _ = doRequest(t, app, http.MethodPut, "/api/products/999", map[string]interface{}{
		"PRODUCTNAME": "Ghost",
		"PRICE":       1,
		"STOCK":       1,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPut, "/api/products/1", map[string]interface{}{
		"PRODUCTNAME": "Bolt",
		"PRICE":       -1,
		"STOCK":       1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPut, "/api/products/x1", map[string]interface{}{
		"PRODUCTNAME": "Bolt",
		"PRICE":       1,
		"STOCK":       1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleDeleteProduct(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	app := setupApp(repo)
	seed(t, repo, "Bolt")

	resp, body := doRequest(t, app, http.MethodDelete, "/api/products/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Product deleted successfully", body["message"])

	resp, body = doRequest(t, app, http.MethodDelete, "/api/products/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body["message"])
}

func TestHandlers_StorageFailures(t *testing.T) {
	app := setupApp(failingRepository{err: errors.New("dial tcp 127.0.0.1:1433: connection refused")})
	valid := map[string]interface{}{"PRODUCTNAME": "Bolt", "PRICE": 1, "STOCK": 1}

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/products", nil},
		{http.MethodGet, "/api/products/1", nil},
		{http.MethodPost, "/api/products", valid},
		{http.MethodPut, "/api/products/1", valid},
		{http.MethodDelete, "/api/products/1", nil},
	}

	for _, r := range requests {
		resp, body := doRequest(t, app, r.method, r.path, r.body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, "%s %s", r.method, r.path)
		assert.Contains(t, body["error"], "connection refused", "%s %s", r.method, r.path)
	}
}
