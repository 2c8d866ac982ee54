package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourhotel/internal/api/middleware"
	"ourhotel/internal/config"
	"ourhotel/internal/models"
	"ourhotel/internal/services"
)

// setupTestDB initializes a test database
func setupTestDB(t *testing.T) *config.Config {
	tmpDir := os.TempDir()
	testDBPath := fmt.Sprintf("%s/ourhotel_routes_test_%d.db", tmpDir, time.Now().UnixNano())

	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: config.DatabaseConfig{
			Type: "sqlite",
			SQLite: config.SQLiteConfig{
				Path: testDBPath,
			},
		},
		Security: config.SecurityConfig{
			BcryptCost: 10,
		},
	}

	err := models.InitDB(cfg)
	require.NoError(t, err)

	return cfg
}

// cleanupTestDB cleans up test database
func cleanupTestDB(t *testing.T, cfg *config.Config) {
	if models.DB != nil {
		sqlDB, err := models.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
		if cfg != nil && cfg.Database.Type == "sqlite" {
			os.Remove(cfg.Database.SQLite.Path)
		}
	}
	models.DB = nil
}

func setupRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, cfg)
	return r
}

// apiClient drives the API the way a browser would: it carries the session
// cookie and the latest CSRF token across requests.
type apiClient struct {
	t          *testing.T
	r          *gin.Engine
	cookie     string
	csrf       string
	remoteAddr string
}

func newClient(t *testing.T, r *gin.Engine) *apiClient {
	return &apiClient{t: t, r: r, remoteAddr: "192.0.2.1:1234"}
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = c.remoteAddr
	req.Header.Set("User-Agent", "test-agent")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: c.cookie})
	}
	if c.csrf != "" {
		req.Header.Set(middleware.CSRFTokenHeader, c.csrf)
	}

	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)

	res := w.Result()
	for _, ck := range res.Cookies() {
		if ck.Name == middleware.SessionCookie && ck.Value != "" {
			c.cookie = ck.Value
		}
	}
	if token := res.Header.Get(middleware.CSRFTokenHeader); token != "" {
		c.csrf = token
	}

	return w
}

// prime makes one harmless request so the client holds a session and token.
func (c *apiClient) prime() {
	c.do("GET", "/api/auth/me", nil)
}

func (c *apiClient) login(username, password string) *httptest.ResponseRecorder {
	return c.do("POST", "/api/auth/login", gin.H{"username": username, "password": password})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	r := setupRouter(cfg)
	client := newClient(t, r)

	w := client.do("GET", "/api/health", nil)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestNoRoute(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	r := setupRouter(cfg)
	client := newClient(t, r)

	w := client.do("GET", "/api/does-not-exist", nil)
	assert.Equal(t, 404, w.Code)
}

func TestLoginFlow(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	authService := services.NewAuthService(cfg)
	_, err := authService.CreateUser("hotel_guest", "guest@example.com", "Password1", models.RoleUser)
	require.NoError(t, err)

	r := setupRouter(cfg)
	client := newClient(t, r)

	t.Run("unauthenticated requests are rejected but receive a session", func(t *testing.T) {
		w := client.do("GET", "/api/auth/me", nil)
		assert.Equal(t, 401, w.Code)
		assert.NotEmpty(t, client.cookie)
		assert.NotEmpty(t, client.csrf)
	})

	t.Run("wrong password fails generically and is recorded", func(t *testing.T) {
		w := client.login("hotel_guest", "WrongPass1")
		assert.Equal(t, 401, w.Code)
		assert.Equal(t, "Invalid username or password", decode(t, w)["error"])

		var count int64
		models.DB.Model(&models.FailedLogin{}).Where("username = ?", "hotel_guest").Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("login succeeds and re-keys the session", func(t *testing.T) {
		before := client.cookie
		w := client.login("hotel_guest", "Password1")
		require.Equal(t, 200, w.Code)
		assert.NotEqual(t, before, client.cookie, "login must regenerate the session ID")

		me := client.do("GET", "/api/auth/me", nil)
		require.Equal(t, 200, me.Code)
		assert.Equal(t, "hotel_guest", decode(t, me)["username"])
	})

	t.Run("audit trail records the login", func(t *testing.T) {
		var count int64
		models.DB.Model(&models.AuditLog{}).Where("action = ?", models.ActionLoginSuccess).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("logout returns to anonymous", func(t *testing.T) {
		w := client.do("POST", "/api/auth/logout", nil)
		require.Equal(t, 200, w.Code)

		me := client.do("GET", "/api/auth/me", nil)
		assert.Equal(t, 401, me.Code)
	})
}

func TestCSRFEnforcement(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	authService := services.NewAuthService(cfg)
	_, err := authService.CreateUser("hotel_guest", "guest@example.com", "Password1", models.RoleUser)
	require.NoError(t, err)

	r := setupRouter(cfg)
	client := newClient(t, r)
	client.prime()

	t.Run("mismatched token is rejected before any side effect", func(t *testing.T) {
		good := client.csrf
		client.csrf = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

		w := client.login("hotel_guest", "Password1")
		assert.Equal(t, 403, w.Code)
		assert.Equal(t, "csrf_mismatch", decode(t, w)["code"])

		var count int64
		models.DB.Model(&models.AuditLog{}).Where("action = ?", models.ActionCSRFFailure).Count(&count)
		assert.Equal(t, int64(1), count)

		client.csrf = good
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		good := client.csrf
		client.csrf = ""

		w := client.login("hotel_guest", "Password1")
		assert.Equal(t, 403, w.Code)

		client.csrf = good
	})

	t.Run("matching token is accepted even after rejections", func(t *testing.T) {
		w := client.login("hotel_guest", "Password1")
		assert.Equal(t, 200, w.Code)
	})
}

func TestCORSOriginPinning(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	r := setupRouter(cfg)

	send := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/health", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("configured origin is allowed", func(t *testing.T) {
		w := send("http://localhost:3000")
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin gets no CORS headers", func(t *testing.T) {
		w := send("https://evil.example.com")
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestSessionTimeoutOverHTTP(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	authService := services.NewAuthService(cfg)
	_, err := authService.CreateUser("hotel_guest", "guest@example.com", "Password1", models.RoleUser)
	require.NoError(t, err)

	r := setupRouter(cfg)
	client := newClient(t, r)
	client.prime()
	require.Equal(t, 200, client.login("hotel_guest", "Password1").Code)

	// age the session past the inactivity timeout
	stale := time.Now().Add(-cfg.Security.SessionTimeoutDuration() - time.Minute)
	require.NoError(t, models.DB.Model(&models.Session{}).
		Where("id = ?", client.cookie).
		Update("last_activity", stale).Error)

	expired := client.cookie
	w := client.do("GET", "/api/auth/me", nil)
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, "session_timeout", decode(t, w)["code"])

	// the 401 ships a replacement anonymous session and token
	assert.NotEqual(t, expired, client.cookie)
	assert.NotEmpty(t, client.csrf)

	var count int64
	models.DB.Model(&models.Session{}).Where("id = ?", expired).Count(&count)
	assert.Equal(t, int64(0), count, "expired session row must be destroyed")
}

func TestSessionHijackOverHTTP(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	authService := services.NewAuthService(cfg)
	_, err := authService.CreateUser("hotel_guest", "guest@example.com", "Password1", models.RoleUser)
	require.NoError(t, err)

	r := setupRouter(cfg)
	client := newClient(t, r)
	client.prime()
	require.Equal(t, 200, client.login("hotel_guest", "Password1").Code)

	// the same cookie presented from a different network identity
	client.remoteAddr = "203.0.113.50:4321"
	w := client.do("GET", "/api/auth/me", nil)
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, "session_hijacked", decode(t, w)["code"])

	// the replacement session is anonymous
	w = client.do("GET", "/api/auth/me", nil)
	assert.Equal(t, 401, w.Code)
}

func TestBookingOverHTTP(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	authService := services.NewAuthService(cfg)
	_, err := authService.CreateUser("hotel_guest", "guest@example.com", "Password1", models.RoleUser)
	require.NoError(t, err)

	bookingService := services.NewBookingService(cfg, services.NewAuditService(cfg))
	require.NoError(t, bookingService.SeedRooms())

	checkIn := time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02")
	checkOut := time.Now().UTC().AddDate(0, 0, 15).Format("2006-01-02")

	r := setupRouter(cfg)
	client := newClient(t, r)
	client.prime()
	require.Equal(t, 200, client.login("hotel_guest", "Password1").Code)

	t.Run("booking succeeds", func(t *testing.T) {
		w := client.do("POST", "/api/bookings", gin.H{
			"room_id":        1,
			"check_in_date":  checkIn,
			"check_out_date": checkOut,
		})
		require.Equal(t, 201, w.Code)
	})

	t.Run("identical resubmission reports the conflicting range", func(t *testing.T) {
		w := client.do("POST", "/api/bookings", gin.H{
			"room_id":        1,
			"check_in_date":  checkIn,
			"check_out_date": checkOut,
		})
		require.Equal(t, 409, w.Code)

		body := decode(t, w)
		conflict, ok := body["conflict"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, checkIn, conflict["start"])
		assert.Equal(t, checkOut, conflict["end"])
	})

	t.Run("booked ranges include the reservation", func(t *testing.T) {
		w := client.do("GET", "/api/bookings/ranges?room_id=1", nil)
		require.Equal(t, 200, w.Code)

		body := decode(t, w)
		booked, ok := body["booked"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, booked, "1")
	})

	t.Run("my bookings computes nights and total", func(t *testing.T) {
		w := client.do("GET", "/api/bookings", nil)
		require.Equal(t, 200, w.Code)

		body := decode(t, w)
		bookings, ok := body["bookings"].([]any)
		require.True(t, ok)
		require.Len(t, bookings, 1)

		first := bookings[0].(map[string]any)
		assert.Equal(t, float64(5), first["nights"])
		assert.Equal(t, 600.0, first["total_price"]) // 5 nights at 120
	})
}

func TestAdminUserManagement(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	authService := services.NewAuthService(cfg)
	admin, err := authService.CreateUser("site_admin", "admin@example.com", "Password1", models.RoleAdmin)
	require.NoError(t, err)

	r := setupRouter(cfg)
	client := newClient(t, r)
	client.prime()
	require.Equal(t, 200, client.login("site_admin", "Password1").Code)

	var createdID float64

	t.Run("create user", func(t *testing.T) {
		w := client.do("POST", "/api/users", gin.H{
			"username": "new_guest",
			"email":    "new@example.com",
			"password": "Password1",
			"role":     "user",
		})
		require.Equal(t, 201, w.Code)
		createdID = decode(t, w)["id"].(float64)
	})

	t.Run("duplicate user conflicts", func(t *testing.T) {
		w := client.do("POST", "/api/users", gin.H{
			"username": "new_guest",
			"email":    "new@example.com",
			"password": "Password1",
			"role":     "user",
		})
		assert.Equal(t, 409, w.Code)
	})

	t.Run("self-deletion is rejected", func(t *testing.T) {
		w := client.do("DELETE", fmt.Sprintf("/api/users/%d", admin.ID), nil)
		assert.Equal(t, 400, w.Code)
	})

	t.Run("delete cascades and is audited", func(t *testing.T) {
		w := client.do("DELETE", fmt.Sprintf("/api/users/%d", int(createdID)), nil)
		require.Equal(t, 200, w.Code)

		var count int64
		models.DB.Model(&models.AuditLog{}).Where("action = ?", models.ActionUserDeleted).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("audit log is readable", func(t *testing.T) {
		w := client.do("GET", "/api/audit", nil)
		require.Equal(t, 200, w.Code)

		entries, ok := decode(t, w)["entries"].([]any)
		require.True(t, ok)
		assert.NotEmpty(t, entries)
	})

	t.Run("non-admins are forbidden", func(t *testing.T) {
		guest := newClient(t, r)
		guest.prime()

		_, err := authService.CreateUser("plain_guest", "plain@example.com", "Password1", models.RoleUser)
		require.NoError(t, err)
		require.Equal(t, 200, guest.login("plain_guest", "Password1").Code)

		w := guest.do("GET", "/api/users", nil)
		assert.Equal(t, 403, w.Code)
	})
}

func TestRegistrationOverHTTP(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	r := setupRouter(cfg)
	client := newClient(t, r)
	client.prime()

	t.Run("register then login", func(t *testing.T) {
		w := client.do("POST", "/api/auth/register", gin.H{
			"username": "fresh_guest",
			"email":    "fresh@example.com",
			"password": "Password1",
		})
		require.Equal(t, 201, w.Code)

		login := client.login("fresh_guest", "Password1")
		assert.Equal(t, 200, login.Code)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		w := client.do("POST", "/api/auth/register", gin.H{
			"username": "weak_guest",
			"email":    "weak@example.com",
			"password": "short",
		})
		assert.Equal(t, 400, w.Code)
	})
}

func TestProfileUpdateOverHTTP(t *testing.T) {
	cfg := setupTestDB(t)
	defer cleanupTestDB(t, cfg)

	authService := services.NewAuthService(cfg)
	_, err := authService.CreateUser("profile_guest", "profile@example.com", "Password1", models.RoleUser)
	require.NoError(t, err)

	r := setupRouter(cfg)
	client := newClient(t, r)
	client.prime()
	require.Equal(t, 200, client.login("profile_guest", "Password1").Code)

	w := client.do("PUT", "/api/profile", gin.H{
		"username": "renamed_guest",
		"email":    "renamed@example.com",
	})
	require.Equal(t, 200, w.Code)

	me := client.do("GET", "/api/profile", nil)
	require.Equal(t, 200, me.Code)
	assert.Equal(t, "renamed_guest", decode(t, me)["username"])
}
