package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"grindsheet/internal/logger"
	"grindsheet/internal/middleware"
	"grindsheet/internal/models"
	"grindsheet/internal/services"
	"grindsheet/internal/testutil"
	"grindsheet/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// captureMailer records reset links instead of delivering them.
type captureMailer struct {
	mu   sync.Mutex
	urls map[string]string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[to] = resetURL
	return nil
}

func (m *captureMailer) tokenFor(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, err := url.Parse(m.urls[email])
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token, "no reset link captured for %s", email)
	return token
}

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Mailer *captureMailer
}

func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	m := &captureMailer{urls: map[string]string{}}
	r := New(Dependencies{
		UserService: services.NewUserService(db, 6),
		ResetService: services.NewResetTokenService(db, services.ResetTokenOptions{
			TTL:               time.Hour,
			PasswordMinLength: 6,
		}),
		UserDataService: services.NewUserDataService(db),
		AuditService:    services.NewAuditService(db),
		Issuer:          middleware.NewTokenIssuer("router-test-secret", 7*24*time.Hour),
		Mailer:          m,
		BaseURL:         "http://localhost:3000",
		AllowedOrigins:  []string{"http://localhost:3000"},
		Version:         "test",
	})
	return &testApp{DB: db, Router: r, Mailer: m}
}

func (a *testApp) do(t *testing.T, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	var result map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), rec.Body.String())
	}
	return rec.Code, result
}

func (a *testApp) registerAndLogin(t *testing.T, name, email, password string) string {
	t.Helper()
	code, _ := a.do(t, "POST", "/api/register", "",
		`{"name":"`+name+`","email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := a.do(t, "POST", "/api/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func errorCode(body map[string]interface{}) interface{} {
	errObj, _ := body["error"].(map[string]interface{})
	return errObj["code"]
}

func TestRegisterLoginDataFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerAndLogin(t, "A", "a@x.com", "pw123456")

	code, body := app.do(t, "GET", "/api/verify", token, "")
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "A", user["name"])

	code, body = app.do(t, "GET", "/api/data", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["sessions"])
	assert.Equal(t, []interface{}{}, body["goals"])
	assert.Equal(t, []interface{}{}, body["transactions"])

	doc := `{"sessions":[{"date":"2024-01-15","duration":4,"buyIn":100,"cashOut":250,"notes":"good run"}],` +
		`"goals":[{"name":"Monthly","target":500}],"transactions":[{"amount":-50}]}`
	code, _ = app.do(t, "POST", "/api/data", token, doc)
	require.Equal(t, http.StatusOK, code)

	code, body = app.do(t, "GET", "/api/data", token, "")
	require.Equal(t, http.StatusOK, code)
	got, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(got))

	code, body = app.do(t, "GET", "/api/activity", token, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(3), body["total_items"], "register, login and data_saved")
}

func TestAuthErrors(t *testing.T) {
	app := setupApp(t)
	app.registerAndLogin(t, "A", "a@x.com", "pw123456")

	code, body := app.do(t, "POST", "/api/register", "", `{"name":"A","email":"A@X.com","password":"pw123456"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "USER_EXISTS", errorCode(body))

	code, body = app.do(t, "POST", "/api/register", "", `{"name":"B","email":"b@x.com","password":"12345"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "PASSWORD_TOO_SHORT", errorCode(body))

	_, wrong := app.do(t, "POST", "/api/login", "", `{"email":"a@x.com","password":"wrong-pw"}`)
	code, unknown := app.do(t, "POST", "/api/login", "", `{"email":"nobody@x.com","password":"pw123456"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, wrong, unknown)

	code, _ = app.do(t, "GET", "/api/data", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = app.do(t, "GET", "/api/data", "not-a-jwt", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(body))

	code, _ = app.do(t, "POST", "/api/logout", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestPasswordResetFlow(t *testing.T) {
	app := setupApp(t)
	app.registerAndLogin(t, "A", "a@x.com", "pw123456")

	code, body := app.do(t, "POST", "/api/forgot-password", "", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, code)
	generic := body["message"]

	token := app.Mailer.tokenFor(t, "a@x.com")

	code, _ = app.do(t, "GET", "/api/verify-reset-token/"+token, "", "")
	require.Equal(t, http.StatusOK, code)

	code, body = app.do(t, "POST", "/api/reset-password", "", `{"token":"`+token+`","password":"brand-new-pw"}`)
	require.Equal(t, http.StatusOK, code, body)

	code, body = app.do(t, "POST", "/api/reset-password", "", `{"token":"`+token+`","password":"another-pw"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_RESET_TOKEN", errorCode(body))

	code, _ = app.do(t, "POST", "/api/login", "", `{"email":"a@x.com","password":"pw123456"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = app.do(t, "POST", "/api/login", "", `{"email":"a@x.com","password":"brand-new-pw"}`)
	assert.Equal(t, http.StatusOK, code)

	// Unknown emails get the same answer and leave the token store untouched.
	var before int64
	require.NoError(t, app.DB.Model(&models.ResetToken{}).Count(&before).Error)

	code, body = app.do(t, "POST", "/api/forgot-password", "", `{"email":"ghost@x.com"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, generic, body["message"])

	var after int64
	require.NoError(t, app.DB.Model(&models.ResetToken{}).Count(&after).Error)
	assert.Equal(t, before, after)
	assert.Equal(t, int64(0), testutil.CountResetTokens(t, app.DB, "ghost@x.com"))
}

func TestExpiredResetToken(t *testing.T) {
	app := setupApp(t)
	testutil.CreateTestUserWithEmail(t, app.DB, "a@x.com")
	token := testutil.CreateTestResetToken(t, app.DB, "a@x.com", time.Now().Add(-time.Minute))

	code, body := app.do(t, "GET", "/api/verify-reset-token/"+token, "", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "RESET_TOKEN_EXPIRED", errorCode(body))
	assert.Equal(t, int64(0), testutil.CountResetTokens(t, app.DB, "a@x.com"))
}

func TestHealthAndCORS(t *testing.T) {
	app := setupApp(t)

	code, body := app.do(t, "GET", "/api/health", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])

	req := httptest.NewRequest(http.MethodOptions, "/api/login", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
