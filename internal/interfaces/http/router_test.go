package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pyme-stock-api/internal/application/catalog"
	"github.com/jhoicas/pyme-stock-api/internal/application/dto"
	"github.com/jhoicas/pyme-stock-api/internal/application/inventory"
	"github.com/jhoicas/pyme-stock-api/internal/application/orders"
	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
	"github.com/jhoicas/pyme-stock-api/internal/domain/entity"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/pyme-stock-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/pyme-stock-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/pyme-stock-api/pkg/jwt"
	"github.com/jhoicas/pyme-stock-api/pkg/logger"
)

const (
	acmeID   = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	betaID   = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
	baseHost = "pyme.test"
)

// countingTx cuenta las transacciones abiertas: permite comprobar que el motor no se invoca.
type countingTx struct {
	inner inventory.TxRunner
	calls atomic.Int32
}

func (c *countingTx) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	c.calls.Add(1)
	return c.inner.Run(ctx, fn)
}

type apiEnv struct {
	app   *fiber.App
	store *memory.Store
	tx    *countingTx
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	for _, tn := range []*entity.Tenant{
		{ID: acmeID, Name: "Acme", Slug: "acme", Status: entity.TenantStatusActive},
		{ID: betaID, Name: "Beta", Slug: "beta", Status: entity.TenantStatusActive},
		{ID: "cccccccc-cccc-4ccc-8ccc-cccccccccccc", Name: "Suspendida", Slug: "suspendida", Status: entity.TenantStatusSuspended},
	} {
		require.NoError(t, store.Tenants().Create(ctx, tn))
	}

	tx := &countingTx{inner: memory.NewTxRunner(store)}
	retry := inventory.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
	engine := inventory.NewStockEngine(tx, nil, retry, logger.Nop())
	ledger := inventory.NewBatchLedger(store.Products(), store.Batches())
	processor := orders.NewProcessor(tx, engine, retry, logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Resolver:     tenancy.NewResolver(store.Tenants(), nil, baseHost, 0, logger.Nop()),
		TenantHeader: "X-Tenant-ID",
		ProductUC:    catalog.NewProductUseCase(store.Products(), tx),
		Engine:       engine,
		Ledger:       ledger,
		BatchReport:  inventory.NewBatchReportUseCase(ledger, pdf.NewBatchReportGenerator()),
		SalesUC:      orders.NewSalesUseCase(processor),
		PurchasesUC:  orders.NewPurchasesUseCase(processor),
		ProductionUC: orders.NewProductionUseCase(processor),
		JWTSecret:    testJWTSecret,
	})
	return &apiEnv{app: app, store: store, tx: tx}
}

type call struct {
	method string
	path   string
	tenant string // header X-Tenant-ID
	host   string
	token  string
	body   any
}

func (e *apiEnv) do(t *testing.T, c call) *http.Response {
	t.Helper()
	var reader io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, reader)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.host != "" {
		req.Host = c.host
	}
	if c.tenant != "" {
		req.Header.Set("X-Tenant-ID", c.tenant)
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func token(t *testing.T, tenantID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, tenantID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *apiEnv) createProduct(t *testing.T, tenantSlug, tenantID, sku string, batches bool) dto.ProductResponse {
	t.Helper()
	resp := e.do(t, call{
		method: http.MethodPost, path: "/api/products", tenant: tenantSlug, token: token(t, tenantID, pkgjwt.RoleAdmin),
		body: dto.CreateProductRequest{SKU: sku, Name: sku, Category: "lacteos", ManagesBatches: batches},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.ProductResponse](t, resp)
}

func (e *apiEnv) purchase(t *testing.T, productID string, qty int64) dto.DocumentResponse {
	t.Helper()
	resp := e.do(t, call{
		method: http.MethodPost, path: "/api/purchases", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleBodeguero),
		body: dto.CreateDocumentRequest{Lines: []dto.DocumentLineRequest{{ProductID: productID, Quantity: decimal.NewFromInt(qty)}}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.DocumentResponse](t, resp)
}

func (e *apiEnv) batches(t *testing.T, productID string) dto.BatchListResponse {
	t.Helper()
	resp := e.do(t, call{
		method: http.MethodGet, path: "/api/inventory/products/" + productID + "/batches",
		tenant: "acme", token: token(t, acmeID, pkgjwt.RoleVendedor),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.BatchListResponse](t, resp)
}

func TestTenantMiddleware_SinTenantNoLlegaAlMotor(t *testing.T) {
	env := newAPI(t)
	resp := env.do(t, call{
		method: http.MethodPost, path: "/api/inventory/events", token: token(t, acmeID, pkgjwt.RoleAdmin),
		body: dto.StockEventRequest{ProductID: "p1", Kind: entity.StockEventAdjustment, Delta: decimal.NewFromInt(5)},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "UNRESOLVED_TENANT")
	assert.Equal(t, int32(0), env.tx.calls.Load(), "el motor no debe abrir transacciones")
}

func TestTenantMiddleware_HintsInvalidos(t *testing.T) {
	env := newAPI(t)
	for _, hint := range []string{"desconocido", "suspendida", "NO VALIDO!"} {
		resp := env.do(t, call{method: http.MethodGet, path: "/api/products/x", tenant: hint, token: token(t, acmeID, pkgjwt.RoleAdmin)})
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, hint)
	}
	assert.Equal(t, int32(0), env.tx.calls.Load())
}

func TestTenantMiddleware_ResuelvePorSubdominio(t *testing.T) {
	env := newAPI(t)
	p := env.createProduct(t, "acme", acmeID, "QUESO", false)

	resp := env.do(t, call{
		method: http.MethodGet, path: "/api/products/" + p.ID, host: "acme." + baseHost + ":8080",
		token: token(t, acmeID, pkgjwt.RoleVendedor),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, acmeID, out.TenantID)
}

func TestRequireTenantClaim_TokenDeOtroTenant(t *testing.T) {
	env := newAPI(t)
	resp := env.do(t, call{method: http.MethodGet, path: "/api/products/x", tenant: "acme", token: token(t, betaID, pkgjwt.RoleAdmin)})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "TENANT_MISMATCH")
}

func TestProducts_RecursoDeOtroTenant(t *testing.T) {
	env := newAPI(t)
	foreign := env.createProduct(t, "beta", betaID, "AJENO", false)

	resp := env.do(t, call{method: http.MethodGet, path: "/api/products/" + foreign.ID, tenant: "acme", token: token(t, acmeID, pkgjwt.RoleAdmin)})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, call{method: http.MethodGet, path: "/api/products/no-existe", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleAdmin)})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSales_VentaYAnulacionSobreLotes(t *testing.T) {
	env := newAPI(t)
	p := env.createProduct(t, "acme", acmeID, "LECHE", true)
	env.purchase(t, p.ID, 3)
	env.purchase(t, p.ID, 4)

	resp := env.do(t, call{
		method: http.MethodPost, path: "/api/sales", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleVendedor),
		body: dto.CreateDocumentRequest{Lines: []dto.DocumentLineRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(5)}}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.DocumentResponse](t, resp)
	require.Len(t, sale.StockLevels, 1)
	assert.True(t, sale.StockLevels[0].Level.Equal(decimal.NewFromInt(2)))

	after := env.batches(t, p.ID)
	require.Len(t, after.Items, 1)
	assert.True(t, after.Total.Equal(decimal.NewFromInt(2)))

	resp = env.do(t, call{method: http.MethodPost, path: "/api/sales/" + sale.ID + "/void", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleVendedor)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	voided := decode[dto.DocumentResponse](t, resp)
	assert.Equal(t, entity.DocumentStatusVoided, voided.Status)

	restored := env.batches(t, p.ID)
	require.Len(t, restored.Items, 2)
	assert.True(t, restored.Total.Equal(decimal.NewFromInt(7)))

	resp = env.do(t, call{method: http.MethodPost, path: "/api/sales/" + sale.ID + "/void", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleVendedor)})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSales_StockInsuficiente(t *testing.T) {
	env := newAPI(t)
	p := env.createProduct(t, "acme", acmeID, "YOGUR", true)
	env.purchase(t, p.ID, 3)

	resp := env.do(t, call{
		method: http.MethodPost, path: "/api/sales", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleVendedor),
		body: dto.CreateDocumentRequest{Lines: []dto.DocumentLineRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(10)}}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	out := decode[dto.StockErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Code)
	assert.Equal(t, p.ID, out.ProductID)
	assert.Equal(t, "10", out.Requested)
	assert.Equal(t, "3", out.Available)

	assert.True(t, env.batches(t, p.ID).Total.Equal(decimal.NewFromInt(3)))
}

func TestInventory_EventoDirectoYNivel(t *testing.T) {
	env := newAPI(t)
	p := env.createProduct(t, "acme", acmeID, "SAL", false)

	resp := env.do(t, call{
		method: http.MethodPost, path: "/api/inventory/events", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleBodeguero),
		body: dto.StockEventRequest{ProductID: p.ID, Kind: entity.StockEventAdjustment, Delta: decimal.NewFromInt(5)},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	level := decode[dto.StockLevelResponse](t, resp)
	assert.True(t, level.Level.Equal(decimal.NewFromInt(5)))

	resp = env.do(t, call{
		method: http.MethodPost, path: "/api/inventory/events", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleBodeguero),
		body: dto.StockEventRequest{ProductID: p.ID, Kind: entity.StockEventSale, Delta: decimal.NewFromInt(2)},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "venta con delta positivo")

	// reversal_of no se acepta por esta ruta: las anulaciones van por los documentos.
	resp = env.do(t, call{
		method: http.MethodPost, path: "/api/inventory/events", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleBodeguero),
		body: map[string]any{"product_id": p.ID, "kind": entity.StockEventSale, "delta": "100", "reversal_of": "no-existe"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "anulación directa")

	resp = env.do(t, call{method: http.MethodGet, path: "/api/inventory/products/" + p.ID + "/stock", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleVendedor)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.StockLevelResponse](t, resp).Level.Equal(decimal.NewFromInt(5)))

	resp = env.do(t, call{
		method: http.MethodPost, path: "/api/inventory/events", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleBodeguero),
		body: dto.StockEventRequest{ProductID: "no-existe", Kind: entity.StockEventAdjustment, Delta: decimal.NewFromInt(1)},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInventory_ReporteYVencimiento(t *testing.T) {
	env := newAPI(t)
	p := env.createProduct(t, "acme", acmeID, "QUESILLO", true)
	exp := time.Now().UTC().Add(24 * time.Hour)

	resp := env.do(t, call{
		method: http.MethodPost, path: "/api/purchases", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleAdmin),
		body: dto.CreateDocumentRequest{Lines: []dto.DocumentLineRequest{{ProductID: p.ID, Quantity: decimal.NewFromInt(6), ExpiresAt: &exp}}},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, call{method: http.MethodGet, path: "/api/inventory/products/" + p.ID + "/batches/report", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleAdmin)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	asOf := exp.Add(time.Hour)
	resp = env.do(t, call{
		method: http.MethodPost, path: "/api/inventory/products/" + p.ID + "/expire", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleBodeguero),
		body: dto.ExpireBatchesRequest{AsOf: &asOf},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.ExpireBatchesResponse](t, resp)
	assert.Equal(t, 1, out.Expired)
	assert.True(t, out.Level.IsZero())
}

func TestProducts_BatchTrackingBloqueadoConLotes(t *testing.T) {
	env := newAPI(t)
	p := env.createProduct(t, "acme", acmeID, "HUEVOS", true)
	env.purchase(t, p.ID, 2)

	resp := env.do(t, call{
		method: http.MethodPut, path: "/api/products/" + p.ID + "/batch-tracking", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleAdmin),
		body: dto.SetBatchTrackingRequest{Enabled: false},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "BATCH_MODE_LOCKED")
}

func TestDocuments_RolNoPermitido(t *testing.T) {
	env := newAPI(t)
	resp := env.do(t, call{
		method: http.MethodPost, path: "/api/purchases", tenant: "acme", token: token(t, acmeID, pkgjwt.RoleVendedor),
		body: dto.CreateDocumentRequest{},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(0), env.tx.calls.Load())
}
