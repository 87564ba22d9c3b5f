package handler

import (
	"net/http"
	"testing"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/middleware"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/testutil"
)

func TestOrderDispatchFlow(t *testing.T) {
	env := setupHandlerTest(t)
	token := testutil.GenerateTestToken("u-orders", "Orders Desk", middleware.RoleOrders)

	customer := testutil.SeedCustomer(t, env.db, "Sharma Interiors")
	product := testutil.SeedProduct(t, env.db, "Persian Red", 2, 1.5)
	units := testutil.SeedUnits(t, env.db, product, 2)

	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"customer_id": customer.ID,
		"gst_rate":    12,
		"items":       []map[string]interface{}{{"product_id": product.ID, "quantity": 1, "unit_price": 2500}},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	order := testutil.Data(w)
	orderID := order["id"].(string)
	if order["total_amount"].(float64) != 2800 {
		t.Errorf("expected total 2800, got %v", order["total_amount"])
	}
	itemID := order["items"].([]interface{})[0].(map[string]interface{})["id"].(string)
	base := "/api/v1/orders/" + orderID

	w = testutil.DoRequest(env.router, http.MethodPut, base+"/status", map[string]interface{}{"status": "accepted"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodPut, base+"/status", map[string]interface{}{"status": "dispatched"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("dispatch without units: expected 400, got %d", w.Code)
	}
	expectCode(t, testutil.ParseResponse(w), 10004)

	w = testutil.DoRequest(env.router, http.MethodPut, base+"/items/"+itemID+"/units", map[string]interface{}{
		"individual_product_ids": []string{units[1].ID},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("select: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodPut, base+"/status", map[string]interface{}{"status": "dispatched"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("dispatch: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/individual-products/"+units[1].ID, nil, token)
	if status := testutil.Data(w)["status"]; status != "sold" {
		t.Errorf("expected unit sold, got %v", status)
	}

	w = testutil.DoRequest(env.router, http.MethodPut, base+"/status", map[string]interface{}{"status": "pending"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("back to pending: expected 400, got %d", w.Code)
	}
	expectCode(t, testutil.ParseResponse(w), 10001)
}

func TestOrderWritesNeedOrdersRole(t *testing.T) {
	env := setupHandlerTest(t)
	production := testutil.GenerateTestToken("u-prod", "Floor Manager", middleware.RoleProduction)

	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/customers", map[string]interface{}{"name": "Walk-in"}, production)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	expectCode(t, testutil.ParseResponse(w), 40312)

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/orders", nil, production)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestPurchaseOrderDelivery(t *testing.T) {
	env := setupHandlerTest(t)
	token := testutil.GenerateTestToken("u-rm", "Yarn Store", middleware.RoleRawMaterial)

	supplier := testutil.SeedSupplier(t, env.db, "Bhadohi Yarns")
	wool := testutil.SeedRawMaterial(t, env.db, "Wool", "kg", 10, 20)

	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/purchase-orders", map[string]interface{}{
		"supplier_id": supplier.ID,
		"material_id": wool.ID,
		"quantity":    40,
	}, token, middleware.IdempotencyHeader, "po-1")
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	poID := testutil.Data(w)["id"].(string)

	// the key is honoured by the service even without the middleware
	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/purchase-orders", map[string]interface{}{
		"supplier_id": supplier.ID,
		"material_id": wool.ID,
		"quantity":    40,
	}, token, middleware.IdempotencyHeader, "po-1")
	if id := testutil.Data(w)["id"]; id != poID {
		t.Fatalf("expected the same purchase order, got %v", id)
	}

	for _, status := range []string{"approved", "shipped", "delivered"} {
		w = testutil.DoRequest(env.router, http.MethodPut, "/api/v1/purchase-orders/"+poID+"/status", map[string]interface{}{"status": status}, token)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", status, w.Code, w.Body.String())
		}
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/raw-materials/"+wool.ID, nil, token)
	if stock := testutil.Data(w)["current_stock"].(float64); stock != 50 {
		t.Errorf("expected stock 50, got %v", stock)
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/stock-movements?item_id="+wool.ID, nil, token)
	if total := testutil.Data(w)["total"].(float64); total != 1 {
		t.Errorf("expected 1 movement, got %v", total)
	}
}
