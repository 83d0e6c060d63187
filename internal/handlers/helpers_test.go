package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"grantdesk/internal/middleware"
	"grantdesk/internal/models"
	"grantdesk/internal/policy"
	"grantdesk/internal/validator"
)

const (
	testUserID    = "0190d7d4-1111-7000-8000-000000000001"
	testProjectID = "0190d7d4-2222-7000-8000-000000000002"
	testOtherID   = "0190d7d4-3333-7000-8000-000000000003"
	testEntryID   = "0190d7d4-4444-7000-8000-000000000004"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectPrincipal(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, policy.Principal{UserID: testUserID, Email: "caller@uni.edu", Role: role})
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func errorFields(t *testing.T, result map[string]interface{}) []string {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	raw, _ := errObj["fields"].([]interface{})
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		fields = append(fields, f.(map[string]interface{})["field"].(string))
	}
	return fields
}
