package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub-fest/backend/internal/models"
	"github.com/eventhub-fest/backend/pkg/utils"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{users: make(map[string]*models.User)} }

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) List(context.Context) ([]models.UserPublic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserPublic
	for _, u := range m.users {
		out = append(out, u.ToPublic())
	}
	return out, nil
}

func (m *memUsers) Create(_ context.Context, email, hash, name string, role models.Role) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; ok {
		return nil, ErrEmailTaken
	}
	u := &models.User{ID: uuid.New(), Email: email, Password: hash, FullName: name, Role: role, CreatedAt: time.Now()}
	m.users[email] = u
	return u, nil
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 2)
	user := &models.User{ID: uuid.New(), Email: "admin@eventhub.com", Role: models.RoleAdmin}

	token, expires, err := svc.Generate(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expires, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWT_RejectsTamperedExpiredAndForeign(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	user := &models.User{ID: uuid.New(), Email: "admin@eventhub.com", Role: models.RoleAdmin}
	token, _, err := svc.Generate(user)
	require.NoError(t, err)

	_, err = NewJWTService("other-secret", 1).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	later := NewJWTService("test-secret", 1)
	later.now = func() time.Time { return time.Now().Add(3 * time.Hour) }
	_, err = later.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"}})
	signed, err := foreign.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Validate(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func postJSON(t *testing.T, h gin.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/", h)
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	users := newMemUsers()
	require.NoError(t, EnsureAdmin(context.Background(), users, "Admin@EventHub.com", "s3cret-pass", "Admin", nil))
	h := NewHandler(users, NewJWTService("test-secret", 1), nil)

	w := postJSON(t, h.Login, LoginRequest{Email: "admin@eventhub.com", Password: "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, models.RoleAdmin, body.Data.User.Role)

	w = postJSON(t, h.Login, LoginRequest{Email: "admin@eventhub.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, h.Login, LoginRequest{Email: "nobody@eventhub.com", Password: "s3cret-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, h.Login, map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUser(t *testing.T) {
	users := newMemUsers()
	h := NewHandler(users, NewJWTService("test-secret", 1), nil)

	w := postJSON(t, h.CreateUser, CreateUserRequest{Email: "Vol@EventHub.com", Password: "volunteer1", FullName: "Desk Volunteer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	u, err := users.GetByEmail(context.Background(), "vol@eventhub.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleVolunteer, u.Role)
	assert.True(t, utils.CheckPassword("volunteer1", u.Password))

	w = postJSON(t, h.CreateUser, CreateUserRequest{Email: "vol@eventhub.com", Password: "volunteer1", FullName: "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(t, h.CreateUser, CreateUserRequest{Email: "x@eventhub.com", Password: "volunteer1", FullName: "X", Role: "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnsureAdmin(t *testing.T) {
	users := newMemUsers()
	require.NoError(t, EnsureAdmin(context.Background(), users, "", "", "Admin", nil))
	assert.Empty(t, users.users)

	require.NoError(t, EnsureAdmin(context.Background(), users, "admin@eventhub.com", "first-pass", "Admin", nil))
	first := users.users["admin@eventhub.com"]
	require.NotNil(t, first)

	require.NoError(t, EnsureAdmin(context.Background(), users, "admin@eventhub.com", "second-pass", "Admin", nil))
	assert.Same(t, first, users.users["admin@eventhub.com"])
	assert.True(t, utils.CheckPassword("first-pass", first.Password), "existing password untouched")
}
