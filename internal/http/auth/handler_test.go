package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avdeyev/authsvc/internal/domain/models"
	"github.com/avdeyev/authsvc/internal/http/middleware"
	jwtlib "github.com/avdeyev/authsvc/internal/lib/jwt"
	authsvc "github.com/avdeyev/authsvc/internal/services/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	registerFunc func(ctx context.Context, email, name, phone, pass, confirmPass string) (string, models.Profile, error)
	loginFunc    func(ctx context.Context, email, pass string, remember bool) (string, models.Profile, error)
	forgotFunc   func(ctx context.Context, email string) error
	resetFunc    func(ctx context.Context, token, pass, confirmPass string) error
	profileFunc  func(ctx context.Context, userID int64) (models.Profile, error)
}

func (m *mockService) Register(ctx context.Context, email, name, phone, pass, confirmPass string) (string, models.Profile, error) {
	return m.registerFunc(ctx, email, name, phone, pass, confirmPass)
}

func (m *mockService) Login(ctx context.Context, email, pass string, remember bool) (string, models.Profile, error) {
	return m.loginFunc(ctx, email, pass, remember)
}

func (m *mockService) ForgotPassword(ctx context.Context, email string) error {
	return m.forgotFunc(ctx, email)
}

func (m *mockService) ResetPassword(ctx context.Context, token, pass, confirmPass string) error {
	return m.resetFunc(ctx, token, pass, confirmPass)
}

func (m *mockService) Profile(ctx context.Context, userID int64) (models.Profile, error) {
	return m.profileFunc(ctx, userID)
}

var testIssuer = jwtlib.New("handler-test-secret", 7*24*time.Hour, 30*24*time.Hour)

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r, middleware.Authenticate(testIssuer))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestRegister_Created(t *testing.T) {
	svc := &mockService{
		registerFunc: func(_ context.Context, email, name, _, _, _ string) (string, models.Profile, error) {
			return "signed-token", models.Profile{ID: 1, Email: email, Name: name}, nil
		},
	}
	r := newTestRouter(svc)

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email":           "a@b.com",
		"name":            "Alice",
		"password":        "Abcdef1",
		"confirmPassword": "Abcdef1",
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Registration successful", body["message"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "signed-token", data["token"])

	user := data["user"].(map[string]any)
	assert.Equal(t, "a@b.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "pass_hash")
}

func TestRegister_EmailTaken(t *testing.T) {
	svc := &mockService{
		registerFunc: func(context.Context, string, string, string, string, string) (string, models.Profile, error) {
			return "", models.Profile{}, authsvc.ErrUserExists
		},
	}
	r := newTestRouter(svc)

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email":           "a@b.com",
		"name":            "Alice",
		"password":        "Abcdef1",
		"confirmPassword": "Abcdef1",
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Email is already registered", body["message"])
}

func TestRegister_MissingFields(t *testing.T) {
	r := newTestRouter(&mockService{})

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{"email": "a@b.com"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockService{
		loginFunc: func(context.Context, string, string, bool) (string, models.Profile, error) {
			return "", models.Profile{}, authsvc.ErrInvalidCredentials
		},
	}
	r := newTestRouter(svc)

	// Unknown email and wrong password travel the same path and get the
	// same body.
	for _, email := range []string{"unknown@x.com", "real@x.com"} {
		w, body := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
			"email":    email,
			"password": "anything",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Invalid email or password", body["message"])
	}
}

func TestLogin_ExpiresInByRememberMe(t *testing.T) {
	svc := &mockService{
		loginFunc: func(_ context.Context, email, _ string, _ bool) (string, models.Profile, error) {
			return "tok", models.Profile{ID: 1, Email: email}, nil
		},
	}
	r := newTestRouter(svc)

	_, body := doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "a@b.com", "password": "Abcdef1",
	}, nil)
	assert.Equal(t, "7 days", body["data"].(map[string]any)["expiresIn"])

	_, body = doJSON(t, r, http.MethodPost, "/api/auth/login", gin.H{
		"email": "a@b.com", "password": "Abcdef1", "rememberMe": true,
	}, nil)
	assert.Equal(t, "30 days", body["data"].(map[string]any)["expiresIn"])
}

func TestForgotPassword_AlwaysSameBody(t *testing.T) {
	svc := &mockService{
		forgotFunc: func(context.Context, string) error { return nil },
	}
	r := newTestRouter(svc)

	var bodies []map[string]any
	for _, email := range []string{"unknown@x.com", "real@x.com"} {
		w, body := doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": email}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		bodies = append(bodies, body)
	}

	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, "If your email is registered, you will receive a password reset link", bodies[0]["message"])
}

func TestResetPassword_GenericInvalidOrExpired(t *testing.T) {
	for _, svcErr := range []error{authsvc.ErrResetTokenInvalid, authsvc.ErrResetTokenExpired} {
		svc := &mockService{
			resetFunc: func(context.Context, string, string, string) error { return svcErr },
		}
		r := newTestRouter(svc)

		w, body := doJSON(t, r, http.MethodPost, "/api/auth/reset-password", gin.H{
			"token":           "deadbeef",
			"password":        "Ghijkl2",
			"confirmPassword": "Ghijkl2",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid or expired reset token", body["message"])
	}
}

func TestResetPassword_Success(t *testing.T) {
	svc := &mockService{
		resetFunc: func(context.Context, string, string, string) error { return nil },
	}
	r := newTestRouter(svc)

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/reset-password", gin.H{
		"token":           "deadbeef",
		"password":        "Ghijkl2",
		"confirmPassword": "Ghijkl2",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestMe_RequiresToken(t *testing.T) {
	r := newTestRouter(&mockService{})

	w, body := doJSON(t, r, http.MethodGet, "/api/auth/me", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access denied. No token provided.", body["message"])
}

func TestMe_WithValidToken(t *testing.T) {
	svc := &mockService{
		profileFunc: func(_ context.Context, userID int64) (models.Profile, error) {
			return models.Profile{ID: userID, Email: "a@b.com", Name: "Alice"}, nil
		},
	}
	r := newTestRouter(svc)

	token, err := testIssuer.Issue(models.User{ID: 7, Email: "a@b.com"}, false)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	w, body := doJSON(t, r, http.MethodGet, "/api/auth/me", nil, header)

	assert.Equal(t, http.StatusOK, w.Code)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, float64(7), user["id"])
}

func TestMe_ExpiredToken(t *testing.T) {
	r := newTestRouter(&mockService{})

	expiredIssuer := jwtlib.New("handler-test-secret", -time.Second, -time.Second)
	token, err := expiredIssuer.Issue(models.User{ID: 7, Email: "a@b.com"}, false)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	w, body := doJSON(t, r, http.MethodGet, "/api/auth/me", nil, header)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token expired. Please login again.", body["message"])
}

func TestMe_InvalidToken(t *testing.T) {
	r := newTestRouter(&mockService{})

	otherIssuer := jwtlib.New("another-secret", time.Hour, time.Hour)
	token, err := otherIssuer.Issue(models.User{ID: 7, Email: "a@b.com"}, false)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	w, body := doJSON(t, r, http.MethodGet, "/api/auth/me", nil, header)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token.", body["message"])
}
