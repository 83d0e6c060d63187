package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"grantdesk/internal/config"
	"grantdesk/internal/idempotency"
	"grantdesk/internal/logger"
	"grantdesk/internal/mailer"
	"grantdesk/internal/middleware"
	"grantdesk/internal/models"
	"grantdesk/internal/policy"
	"grantdesk/internal/server"
	"grantdesk/internal/testutil"
	"grantdesk/internal/validator"
)

const pipelineKey = "pipeline-test-key"

// fixedNow falls in fiscal year 2024-25.
var fixedNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// recordingMailer captures outgoing mail.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Mail   *recordingMailer
}

// setupApp builds the production router over an isolated in-memory SQLite
// database. store may be nil to run without idempotency.
func setupApp(t *testing.T, store idempotency.Store) *testApp {
	t.Helper()

	cfg := &config.Config{
		Env:              "test",
		JWTSecret:        "integration-test-secret",
		JWTExpirationDur: time.Hour,
		IdempotencyTTL:   time.Hour,
		PipelineAPIKey:   pipelineKey,
		MailFrom:         "budget-office@test.edu",
		PortalURL:        "https://grants.test.edu",
	}
	config.Set(cfg)

	table, err := policy.Default()
	if err != nil {
		t.Fatalf("failed to load default policy: %v", err)
	}

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	mail := &recordingMailer{}
	router := server.New(server.Options{
		DB:          db,
		Config:      cfg,
		Policy:      table,
		Mailer:      mail,
		Idempotency: store,
		Now:         func() time.Time { return fixedNow },
	})
	return &testApp{DB: db, Router: router, Mail: mail}
}

// tokenFor mints an access token for user.
func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := middleware.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// pipeline posts an expense with the pipeline API key.
func (app *testApp) pipeline(body string, headers ...string) *httptest.ResponseRecorder {
	return app.request("POST", "/api/v1/pipeline/expenses", body, "", append([]string{"X-API-Key", pipelineKey}, headers...)...)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// expectStatus fails the test when rec does not carry want.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// expectErrorCode checks the error envelope's code.
func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	body := parseJSON(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if errObj["code"] != want {
		t.Errorf("expected error code %q, got %v", want, errObj["code"])
	}
}

// object returns body[key] as a JSON object.
func object(t *testing.T, body map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	obj, ok := body[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object at %q, got %v", key, body[key])
	}
	return obj
}

// expectAmount compares a JSON decimal string numerically.
func expectAmount(t *testing.T, name, want string, got interface{}) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected %s to be a decimal string, got %T %v", name, got, got)
	}
	testutil.AssertDecimal(t, name, want, decimal.RequireFromString(s))
}
