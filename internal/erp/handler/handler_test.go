package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/middleware"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupHandlerTest(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := service.NewServices(repository.NewRepositories(db), db, service.Options{})
	h := NewHandlers(svc, nil)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	h.Register(api, nil)
	return &testEnv{db: db, router: router}
}

func expectCode(t *testing.T, resp map[string]interface{}, want float64) {
	t.Helper()
	if got, _ := resp["code"].(float64); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, resp["code"], resp["message"])
	}
}

func TestRequiresAuthentication(t *testing.T) {
	env := setupHandlerTest(t)

	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/products", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/products", nil, "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", w.Code)
	}
}

func TestProductWritesNeedInventoryRole(t *testing.T) {
	env := setupHandlerTest(t)
	body := map[string]interface{}{"name": "Persian Red", "length": 2, "width": 1.5, "length_unit": "m", "width_unit": "m"}

	orders := testutil.GenerateTestToken("u-orders", "Orders Desk", middleware.RoleOrders)
	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/products", body, orders)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}

	inventory := testutil.GenerateTestToken("u-inv", "Store Keeper", middleware.RoleInventory)
	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/products", body, inventory)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	created := testutil.Data(w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected product id, got %v", created)
	}
	if created["stock_tracking"] != "individual" {
		t.Errorf("expected individual tracking by default, got %v", created["stock_tracking"])
	}

	// reads are open to any signed-in user
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/products/"+id, nil, orders)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := testutil.Data(w)
	if sqm, _ := view["sqm"].(float64); sqm != 3 {
		t.Errorf("expected sqm 3, got %v", view["sqm"])
	}
}

func TestErrorMapping(t *testing.T) {
	env := setupHandlerTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/products/missing", nil, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	expectCode(t, testutil.ParseResponse(w), 10002)

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/products", map[string]interface{}{"width": 2}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing name, got %d", w.Code)
	}
	expectCode(t, testutil.ParseResponse(w), 10001)

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":          "Counted Rug",
		"current_stock": 5,
	}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	expectCode(t, testutil.ParseResponse(w), 10003)

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/planning/whatever/requirements?quantity=abc", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad quantity, got %d", w.Code)
	}
}

func TestListEnvelope(t *testing.T) {
	env := setupHandlerTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedRawMaterial(t, env.db, "Wool", "kg", 100, 10)
	testutil.SeedRawMaterial(t, env.db, "Jute", "kg", 3, 10)

	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/raw-materials?page=1&size=1", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.Data(w)
	if data["total"].(float64) != 2 {
		t.Errorf("expected total 2, got %v", data["total"])
	}
	if data["size"].(float64) != 1 {
		t.Errorf("expected size 1, got %v", data["size"])
	}
	if items := data["items"].([]interface{}); len(items) != 1 {
		t.Errorf("expected 1 item on the page, got %d", len(items))
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/raw-materials/low-stock", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	low := testutil.Data(w)["raw_materials"].([]interface{})
	if len(low) != 1 {
		t.Fatalf("expected 1 low stock material, got %d", len(low))
	}
}

func TestRequirementsEndpoint(t *testing.T) {
	env := setupHandlerTest(t)
	product := testutil.SeedProduct(t, env.db, "Persian Red", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, env.db, "Wool", "kg", 10, 5)
	testutil.SeedRecipe(t, env.db, product, wool)

	inventory := testutil.GenerateTestToken("u-inv", "Store Keeper", middleware.RoleInventory)
	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/planning/"+product.ID+"/requirements?quantity=10", nil, inventory)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without production role, got %d", w.Code)
	}

	production := testutil.GenerateTestToken("u-prod", "Floor Manager", middleware.RoleProduction)
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/planning/"+product.ID+"/requirements?quantity=10", nil, production)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.Data(w)
	if data["total_sqm"].(float64) != 30 {
		t.Errorf("expected total_sqm 30, got %v", data["total_sqm"])
	}
	materials := data["materials"].([]interface{})
	row := materials[0].(map[string]interface{})
	if row["required_quantity"].(float64) != 15 {
		t.Errorf("expected required 15, got %v", row["required_quantity"])
	}
	if row["status"] != "low" {
		t.Errorf("expected status low, got %v", row["status"])
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/notifications/unread-count", nil, production)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if n := testutil.Data(w)["count"].(float64); n != 1 {
		t.Errorf("expected 1 unread shortage alert, got %v", n)
	}
}

func TestRequirementsZeroQuantity(t *testing.T) {
	env := setupHandlerTest(t)
	product := testutil.SeedProduct(t, env.db, "Persian Red", 2, 1.5)
	wool := testutil.SeedRawMaterial(t, env.db, "Wool", "kg", 10, 5)
	testutil.SeedRecipe(t, env.db, product, wool)
	production := testutil.GenerateTestToken("u-prod", "Floor Manager", middleware.RoleProduction)

	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/planning/"+product.ID+"/requirements?quantity=0", nil, production)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for quantity 0, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.Data(w)
	if data["total_sqm"].(float64) != 0 {
		t.Errorf("expected total_sqm 0, got %v", data["total_sqm"])
	}
	row := data["materials"].([]interface{})[0].(map[string]interface{})
	if row["status"] != "available" {
		t.Errorf("expected status available, got %v", row["status"])
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/planning/"+product.ID+"/requirements?quantity=-1", nil, production)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative quantity, got %d", w.Code)
	}
	expectCode(t, testutil.ParseResponse(w), 10001)
}

func TestInventoryReportDownload(t *testing.T) {
	env := setupHandlerTest(t)
	testutil.SeedRawMaterial(t, env.db, "Wool", "kg", 100, 10)

	orders := testutil.GenerateTestToken("u-orders", "Orders Desk", middleware.RoleOrders)
	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/reports/inventory", nil, orders)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	rm := testutil.GenerateTestToken("u-rm", "Yarn Store", middleware.RoleRawMaterial)
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/reports/inventory", nil, rm)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Error("expected a workbook body")
	}
}
