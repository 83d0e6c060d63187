package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"grantdesk/internal/idempotency"
	"grantdesk/internal/models"
	"grantdesk/internal/testutil"
)

func setupIdempotentApp(t *testing.T) *testApp {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return setupApp(t, idempotency.NewRedisStore(client))
}

func TestIdempotencyFlow_AllocationReplay(t *testing.T) {
	app := setupIdempotentApp(t)

	admin := testutil.CreateTestUser(t, app.DB, models.RoleAdmin)
	project := testutil.CreateTestProject(t, app.DB, admin.ID)
	token := tokenFor(t, admin)
	body := fmt.Sprintf(`{"project_id":%q,"category":"MANPOWER","fiscal_year":"2024-25","amount":"2500"}`, project.ID)

	first := app.request("POST", "/api/v1/budget/allocations", body, token, "Idempotency-Key", "alloc-1")
	expectStatus(t, first, http.StatusCreated)

	second := app.request("POST", "/api/v1/budget/allocations", body, token, "Idempotency-Key", "alloc-1")
	expectStatus(t, second, http.StatusCreated)
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replayed response to be marked")
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("expected identical bodies\nfirst:  %s\nsecond: %s", first.Body.String(), second.Body.String())
	}

	entry := testutil.LoadEntry(t, app.DB, project.ID, models.BudgetCategoryManpower, "2024-25")
	testutil.AssertDecimal(t, "allocated", "2500", entry.AllocatedAmount)

	// Same key, different body
	other := fmt.Sprintf(`{"project_id":%q,"category":"MANPOWER","fiscal_year":"2024-25","amount":"9999"}`, project.ID)
	rec := app.request("POST", "/api/v1/budget/allocations", other, token, "Idempotency-Key", "alloc-1")
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	expectErrorCode(t, rec, "IDEMPOTENCY_KEY_REUSED")

	// A fresh key allocates again
	rec = app.request("POST", "/api/v1/budget/allocations", body, token, "Idempotency-Key", "alloc-2")
	expectStatus(t, rec, http.StatusCreated)
	entry = testutil.LoadEntry(t, app.DB, project.ID, models.BudgetCategoryManpower, "2024-25")
	testutil.AssertDecimal(t, "allocated", "5000", entry.AllocatedAmount)
}

func TestIdempotencyFlow_PipelineRetryAfterFailure(t *testing.T) {
	app := setupIdempotentApp(t)

	admin := testutil.CreateTestUser(t, app.DB, models.RoleAdmin)
	project := testutil.CreateTestProject(t, app.DB, admin.ID)
	token := tokenFor(t, admin)
	body := fmt.Sprintf(`{"project_id":%q,"category":"OTHER","fiscal_year":"2024-25","amount":"40","reference":"INV-77"}`, project.ID)

	// No budget line yet: the failure is not stored
	rec := app.pipeline(body, "Idempotency-Key", "inv-77")
	expectStatus(t, rec, http.StatusNotFound)
	expectErrorCode(t, rec, "BUDGET_ENTRY_NOT_FOUND")

	rec = app.request("POST", "/api/v1/budget/allocations",
		fmt.Sprintf(`{"project_id":%q,"category":"OTHER","fiscal_year":"2024-25","amount":"100"}`, project.ID), token)
	expectStatus(t, rec, http.StatusCreated)

	// The retry with the same key now posts
	rec = app.pipeline(body, "Idempotency-Key", "inv-77")
	expectStatus(t, rec, http.StatusCreated)
	if rec.Header().Get("Idempotent-Replayed") != "" {
		t.Error("expected a fresh response, not a replay")
	}

	// And a duplicate delivery is replayed without spending twice
	rec = app.pipeline(body, "Idempotency-Key", "inv-77")
	expectStatus(t, rec, http.StatusCreated)
	if rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected duplicate delivery to be replayed")
	}

	entry := testutil.LoadEntry(t, app.DB, project.ID, models.BudgetCategoryOther, "2024-25")
	testutil.AssertDecimal(t, "utilized", "40", entry.UtilizedAmount)
}
