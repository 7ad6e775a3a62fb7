package handler

import (
	"net/http"
	"testing"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/middleware"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/service"
	"github.com/ainuod/DeliveryCOMPANY/internal/testutil"
)

func setupInvoiceTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	svc := service.NewInvoiceService(db, repos.Invoice, repos.Shipment, repos.User)
	handler := NewInvoiceHandler(svc)

	backOffice := middleware.RequireRoles(entity.RoleAdmin, entity.RoleAgent)
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/invoices", handler.List)
	api.GET("/invoices/:id", handler.Get)
	api.POST("/invoices", backOffice, handler.Create)
	api.DELETE("/invoices/:id", backOffice, handler.Delete)
	api.POST("/payments", backOffice, handler.RecordPayment)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedBilling(t *testing.T, env *testutil.TestEnv) {
	t.Helper()
	testutil.SeedClient(t, env.DB, "client-0001", "acme")
	testutil.SeedDestination(t, env.DB, "dest-a", "Oran", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedDestination(t, env.DB, "dest-b", "Algiers", "Algeria", "10.00", "2.00", "50.00")
	testutil.SeedShipment(t, env.DB, "ship-0001", "client-0001", "dest-a", "dest-b", "25.00")
	testutil.SeedShipment(t, env.DB, "ship-0002", "client-0001", "dest-a", "dest-b", "40.00")
}

func TestInvoiceCreateReturnsComputedTotals(t *testing.T) {
	env := setupInvoiceTest(t)
	seedBilling(t, env)
	token := testutil.AgentTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/invoices", map[string]interface{}{
		"client_id":    "client-0001",
		"shipment_ids": []string{"ship-0001", "ship-0002"},
		"due_date":     "2026-09-30",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["montant_ht"] != "65" {
		t.Errorf("montant_ht = %v, want 65", data["montant_ht"])
	}
	if data["montant_tva"] != "12.35" {
		t.Errorf("montant_tva = %v, want 12.35", data["montant_tva"])
	}
	if data["montant_ttc"] != "77.35" {
		t.Errorf("montant_ttc = %v, want 77.35", data["montant_ttc"])
	}
	if data["status"] != "UNPAID" {
		t.Errorf("status = %v, want UNPAID", data["status"])
	}
}

func TestInvoiceCreateConflictOnDoubleInvoicing(t *testing.T) {
	env := setupInvoiceTest(t)
	seedBilling(t, env)
	token := testutil.AgentTestToken()

	body := map[string]interface{}{
		"client_id":    "client-0001",
		"shipment_ids": []string{"ship-0001"},
		"due_date":     "2026-09-30",
	}
	if w := testutil.DoRequest(env.Router, "POST", "/api/v1/invoices", body, token); w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/invoices", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40900 {
		t.Errorf("code = %v, want 40900", resp["code"])
	}
}

func TestInvoiceCreateForbiddenForClients(t *testing.T) {
	env := setupInvoiceTest(t)
	seedBilling(t, env)
	token := testutil.GenerateTestToken("client-0001", "acme", entity.RoleClient)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/invoices", map[string]interface{}{
		"client_id":    "client-0001",
		"shipment_ids": []string{"ship-0001"},
		"due_date":     "2026-09-30",
	}, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInvoiceListScopedToClient(t *testing.T) {
	env := setupInvoiceTest(t)
	seedBilling(t, env)
	testutil.SeedClient(t, env.DB, "client-0002", "globex")
	testutil.SeedShipment(t, env.DB, "ship-other", "client-0002", "dest-a", "dest-b", "15.00")
	agent := testutil.AgentTestToken()

	for _, body := range []map[string]interface{}{
		{"client_id": "client-0001", "shipment_ids": []string{"ship-0001"}, "due_date": "2026-09-30"},
		{"client_id": "client-0002", "shipment_ids": []string{"ship-other"}, "due_date": "2026-09-30"},
	} {
		if w := testutil.DoRequest(env.Router, "POST", "/api/v1/invoices", body, agent); w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	// A client only ever sees their own invoices, even with a filter for
	// someone else.
	clientToken := testutil.GenerateTestToken("client-0001", "acme", entity.RoleClient)
	w := testutil.DoRequest(env.Router, "GET", "/api/v1/invoices?client_id=client-0002", nil, clientToken)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	invoice := items[0].(map[string]interface{})
	if invoice["client_id"] != "client-0001" {
		t.Errorf("client_id = %v, want client-0001", invoice["client_id"])
	}
}

func TestInvoiceRequiresAuth(t *testing.T) {
	env := setupInvoiceTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/invoices", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInvoiceCreateConflictWhenAccountBusy(t *testing.T) {
	env := setupInvoiceTest(t)
	seedBilling(t, env)

	// Another transaction holds the client profile row for the whole request.
	holder := env.DB.Begin()
	if holder.Error != nil {
		t.Fatalf("begin lock holder: %v", holder.Error)
	}
	defer holder.Rollback()
	if err := holder.Exec("SELECT user_id FROM client_profiles WHERE user_id = ? FOR UPDATE", "client-0001").Error; err != nil {
		t.Fatalf("hold profile lock: %v", err)
	}

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/invoices", map[string]interface{}{
		"client_id":    "client-0001",
		"shipment_ids": []string{"ship-0001"},
		"due_date":     "2026-09-30",
	}, testutil.AgentTestToken())
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40900 {
		t.Errorf("code = %v, want 40900", resp["code"])
	}
}
