package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chidiebere-dev/homefolio/internal/auth"
	"github.com/chidiebere-dev/homefolio/internal/auth/mfa"
	"github.com/chidiebere-dev/homefolio/internal/database/testutil"
	"github.com/chidiebere-dev/homefolio/internal/handlers"
	"github.com/chidiebere-dev/homefolio/internal/models"
	"github.com/chidiebere-dev/homefolio/internal/notifications"
	"github.com/chidiebere-dev/homefolio/internal/payment"
	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/crypto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	payments map[string]*payment.VerifiedPayment
}

func (v *stubVerifier) VerifyTransaction(_ context.Context, transactionID string) (*payment.VerifiedPayment, error) {
	verified, ok := v.payments[transactionID]
	if !ok {
		return nil, payment.ErrVerificationFailed
	}
	return verified, nil
}

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	verifier *stubVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "homefolio"})
	require.NoError(t, err)

	sessions, err := auth.NewSessionService(db, jwtService, auth.SessionConfig{})
	require.NoError(t, err)

	totp, err := mfa.NewTOTPService(db, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	hub := notifications.NewHub()
	effects, err := services.NewEffectRunner(db, nil, hub)
	require.NoError(t, err)

	authService, err := services.NewAuthService(db, sessions, totp, services.AuthConfig{
		AppBaseURL: "https://homefolio.test",
	})
	require.NoError(t, err)

	userService, err := services.NewUserService(db)
	require.NoError(t, err)

	propertyService, err := services.NewPropertyService(db)
	require.NoError(t, err)

	verifier := &stubVerifier{payments: map[string]*payment.VerifiedPayment{}}
	walletService, err := services.NewWalletService(db, verifier)
	require.NoError(t, err)

	notificationService, err := services.NewNotificationService(db)
	require.NoError(t, err)

	contactService, err := services.NewContactService(db)
	require.NoError(t, err)

	settingsService, err := services.NewSettingsService(db)
	require.NoError(t, err)

	router := NewRouter(jwtService, Handlers{
		Auth:          handlers.NewAuthHandler(authService, sessions, effects),
		Security:      handlers.NewSecurityHandler(authService, userService, totp),
		Properties:    handlers.NewPropertyHandler(propertyService, effects),
		AdminProps:    handlers.NewAdminPropertyHandler(propertyService),
		Users:         handlers.NewUserHandler(userService),
		Profile:       handlers.NewProfileHandler(userService),
		Wallet:        handlers.NewWalletHandler(walletService, effects),
		Transactions:  handlers.NewTransactionHandler(walletService, effects),
		Notifications: handlers.NewNotificationHandler(notificationService, hub),
		Contact:       handlers.NewContactHandler(contactService, effects),
		Newsletter:    handlers.NewNewsletterHandler(contactService, effects),
		Settings:      handlers.NewSettingsHandler(settingsService),
		Health:        handlers.NewHealthHandler(db),
	}, Config{RateLimit: 10_000})

	return &testServer{router: router, db: db, verifier: verifier}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		PerPage    int   `json:"per_page"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var parsed envelope
	if len(rec.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec.Code, parsed
}

func (s *testServer) seedAccount(t *testing.T, email, password, role string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Name:     "Test Account",
		Email:    email,
		Password: hash,
		Role:     role,
		Verified: true,
		IsActive: true,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	status, body := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)

	var data struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.NotEmpty(t, data.Tokens.AccessToken)
	return data.Tokens.AccessToken
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Success)
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "New User",
		"email":    "New.User@Example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, status)
	require.True(t, body.Success)

	token := srv.login(t, "new.user@example.com", "supersecret")

	status, body = srv.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body.Data), "new.user@example.com")

	// Wrong credentials surface the generic unauthorized envelope.
	status, body = srv.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "new.user@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.False(t, body.Success)
	require.NotNil(t, body.Error)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/api/wallet", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, body.Error)

	// Admin routes reject regular users.
	srv.seedAccount(t, "member@example.com", "supersecret", models.RoleUser)
	token := srv.login(t, "member@example.com", "supersecret")

	status, _ = srv.do(t, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestAdminPropertyLifecycleAndPublicSearch(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAccount(t, "admin@example.com", "supersecret", models.RoleAdmin)
	token := srv.login(t, "admin@example.com", "supersecret")

	status, body := srv.do(t, http.MethodPost, "/api/admin/properties", token, gin.H{
		"title":    "Lekki Duplex",
		"price":    45_000_000,
		"location": "Lekki, Lagos",
		"type":     "sale",
		"bedrooms": 4,
		"images":   []string{"https://cdn.homefolio.test/lekki-1.jpg"},
	})
	require.Equal(t, http.StatusCreated, status)

	var created models.Property
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.NotEmpty(t, created.ID)

	status, body = srv.do(t, http.MethodPost, "/api/admin/properties", token, gin.H{
		"title":    "Pending Bungalow",
		"price":    12_000_000,
		"location": "Ibadan",
		"type":     "sale",
		"status":   "pending",
		"images":   []string{"https://cdn.homefolio.test/ibadan-1.jpg"},
	})
	require.Equal(t, http.StatusCreated, status)

	// Public search only surfaces available listings.
	status, body = srv.do(t, http.MethodGet, "/api/properties?seed=42", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Meta)
	require.Equal(t, int64(1), body.Meta.Total)
	require.Contains(t, string(body.Data), "Lekki Duplex")
	require.NotContains(t, string(body.Data), "Pending Bungalow")

	// The admin listing view includes every status.
	status, body = srv.do(t, http.MethodGet, "/api/admin/properties?status=pending", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(1), body.Meta.Total)
	require.Contains(t, string(body.Data), "Pending Bungalow")

	status, _ = srv.do(t, http.MethodDelete, "/api/admin/properties/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = srv.do(t, http.MethodGet, "/api/properties", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(0), body.Meta.Total)
}

func TestWalletDepositFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAccount(t, "funder@example.com", "supersecret", models.RoleUser)
	token := srv.login(t, "funder@example.com", "supersecret")

	srv.verifier.payments["flw-100"] = &payment.VerifiedPayment{
		TransactionID: "flw-100",
		Reference:     "ref-100",
		Amount:        5000,
		Currency:      "NGN",
	}

	status, body := srv.do(t, http.MethodPost, "/api/payments/flutterwave/verify", token, gin.H{
		"transaction_id": "flw-100",
	})
	require.Equal(t, http.StatusOK, status)

	var deposit struct {
		Balance          float64 `json:"balance"`
		AlreadyProcessed bool    `json:"already_processed"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &deposit))
	require.Equal(t, float64(5000), deposit.Balance)
	require.False(t, deposit.AlreadyProcessed)

	// Redelivery of the same provider event succeeds without a second credit.
	status, body = srv.do(t, http.MethodPost, "/api/payments/flutterwave/verify", token, gin.H{
		"transaction_id": "flw-100",
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &deposit))
	require.True(t, deposit.AlreadyProcessed)
	require.Equal(t, float64(5000), deposit.Balance)

	status, body = srv.do(t, http.MethodGet, "/api/wallet", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body.Data), "5000")

	// Unverifiable transactions are rejected.
	status, _ = srv.do(t, http.MethodPost, "/api/payments/flutterwave/verify", token, gin.H{
		"transaction_id": "flw-missing",
	})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestContactAndNewsletterEndpoints(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, http.MethodPost, "/api/contact", "", gin.H{
		"name":    "Visitor",
		"email":   "visitor@example.com",
		"message": "Do you have rentals in Yaba?",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = srv.do(t, http.MethodPost, "/api/newsletter/subscribe", "", gin.H{
		"email": "visitor@example.com",
	})
	require.Equal(t, http.StatusCreated, status)

	// Admins see the resulting notifications.
	srv.seedAccount(t, "admin@example.com", "supersecret", models.RoleAdmin)
	token := srv.login(t, "admin@example.com", "supersecret")

	status, body := srv.do(t, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(2), body.Meta.Total)
}

func TestAdminCreatesUser(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAccount(t, "admin@example.com", "supersecret", models.RoleAdmin)
	token := srv.login(t, "admin@example.com", "supersecret")

	status, body := srv.do(t, http.MethodPost, "/api/admin/users", token, gin.H{
		"name":     "Provisioned User",
		"email":    "Provisioned@Example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, status)
	require.Contains(t, string(body.Data), "provisioned@example.com")

	// The fresh account can log in straight away.
	srv.login(t, "provisioned@example.com", "supersecret")

	// Reusing the email is a conflict.
	status, body = srv.do(t, http.MethodPost, "/api/admin/users", token, gin.H{
		"name":     "Duplicate",
		"email":    "provisioned@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusConflict, status)
	require.NotNil(t, body.Error)
}

func TestAdminSettingsRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAccount(t, "admin@example.com", "supersecret", models.RoleAdmin)
	token := srv.login(t, "admin@example.com", "supersecret")

	status, body := srv.do(t, http.MethodGet, "/api/admin/settings", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body.Data), "Homefolio")

	status, _ = srv.do(t, http.MethodPut, "/api/admin/settings", token, gin.H{
		"site_name": "Homefolio Estates",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = srv.do(t, http.MethodGet, "/api/admin/settings", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(body.Data), "Homefolio Estates")
}

func TestSearchTimeQueryParam(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAccount(t, "admin@example.com", "supersecret", models.RoleAdmin)
	token := srv.login(t, "admin@example.com", "supersecret")

	for _, title := range []string{"Fresh Flat", "Stale Flat"} {
		status, _ := srv.do(t, http.MethodPost, "/api/admin/properties", token, gin.H{
			"title":    title,
			"price":    2_000_000,
			"location": "Enugu",
			"type":     "rent",
			"images":   []string{"https://cdn.homefolio.test/flat.jpg"},
		})
		require.Equal(t, http.StatusCreated, status)
	}

	// Backdate one listing past the window.
	require.NoError(t, srv.db.Model(&models.Property{}).
		Where("title = ?", "Stale Flat").
		UpdateColumn("created_at", time.Now().AddDate(0, 0, -30)).Error)

	status, body := srv.do(t, http.MethodGet, "/api/properties?time=7", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(1), body.Meta.Total)
	require.Contains(t, string(body.Data), "Fresh Flat")

	// The older parameter name keeps working as an alias.
	status, body = srv.do(t, http.MethodGet, "/api/properties?withinDays=7", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(1), body.Meta.Total)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.False(t, body.Success)
	require.NotNil(t, body.Error)

	status, _ = srv.do(t, http.MethodDelete, "/health", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestPaginationMetaOnSearch(t *testing.T) {
	srv := newTestServer(t)
	srv.seedAccount(t, "admin@example.com", "supersecret", models.RoleAdmin)
	token := srv.login(t, "admin@example.com", "supersecret")

	for i := 0; i < 7; i++ {
		status, _ := srv.do(t, http.MethodPost, "/api/admin/properties", token, gin.H{
			"title":    fmt.Sprintf("Listing %d", i),
			"price":    1_000_000 + float64(i),
			"location": "Abuja",
			"type":     "rent",
			"images":   []string{"https://cdn.homefolio.test/listing.jpg"},
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := srv.do(t, http.MethodGet, "/api/properties?limit=3&page=2&seed=7", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, body.Meta.Page)
	require.Equal(t, 3, body.Meta.PerPage)
	require.Equal(t, int64(7), body.Meta.Total)
	require.Equal(t, 3, body.Meta.TotalPages)

	// Pages past the end stay well-formed.
	status, body = srv.do(t, http.MethodGet, "/api/properties?limit=3&page=50", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, int64(7), body.Meta.Total)
	require.Equal(t, "[]", string(body.Data))
}
