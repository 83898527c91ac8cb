package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUserService struct {
	user        *domain.User
	registerErr error
	loginErr    error
	refreshErr  error
	registered  int
}

func (s *stubUserService) Register(ctx context.Context, email, password, firstName, lastName string) (*domain.User, error) {
	s.registered++
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &domain.User{ID: uuid.New(), Email: email, FirstName: firstName, LastName: lastName, Role: domain.RoleUser}, nil
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*service.TokenPair, *domain.User, error) {
	if s.loginErr != nil {
		return nil, nil, s.loginErr
	}
	return &service.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, s.user, nil
}

func (s *stubUserService) Logout(ctx context.Context, refreshToken string) error { return nil }

func (s *stubUserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return "fresh", s.refreshErr
}

func (s *stubUserService) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

func (s *stubUserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, repository.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return []*domain.User{s.user}, nil
}

// asUser injects a principal the way AuthMiddleware would
func asUser(id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithPrincipal(r.Context(), middleware.Principal{UserID: id, Role: domain.RoleUser})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newUserRouter(svc service.UserService, authn, admin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	NewUserHandler(svc, zap.NewNop()).RegisterRoutes(r, authn, admin)
	return r
}

func TestProperty_RegistrationRejectsInvalidEmails(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("emails without an @ never reach the service", prop.ForAll(
		func(local string) bool {
			svc := &stubUserService{}
			h := newUserRouter(svc, passthrough, passthrough)

			body := `{"email":"` + local + `","password":"password123","first_name":"A","last_name":"B"}`
			w := do(h, http.MethodPost, "/api/users/register", body)
			return w.Code == http.StatusBadRequest && svc.registered == 0
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRegister(t *testing.T) {
	svc := &stubUserService{}
	h := newUserRouter(svc, passthrough, passthrough)
	body := `{"email":"a@example.com","password":"password123","first_name":"A","last_name":"B"}`

	w := do(h, http.MethodPost, "/api/users/register", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var profile UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "a@example.com", profile.Email)
	assert.NotContains(t, w.Body.String(), "password")

	svc.registerErr = repository.ErrUserAlreadyExists
	w = do(h, http.MethodPost, "/api/users/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@example.com", Role: domain.RoleAdmin}
	svc := &stubUserService{user: user}
	h := newUserRouter(svc, passthrough, passthrough)
	body := `{"email":"a@example.com","password":"password123"}`

	w := do(h, http.MethodPost, "/api/users/login", body)
	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	assert.Equal(t, domain.RoleAdmin, resp.User.Role)

	svc.loginErr = service.ErrInvalidCredentials
	w = do(h, http.MethodPost, "/api/users/login", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh(t *testing.T) {
	svc := &stubUserService{}
	h := newUserRouter(svc, passthrough, passthrough)

	w := do(h, http.MethodPost, "/api/users/refresh", `{"refresh_token":"r"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"access_token":"fresh"}`, w.Body.String())

	svc.refreshErr = service.ErrTokenExpired
	w = do(h, http.MethodPost, "/api/users/refresh", `{"refresh_token":"r"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "refresh token expired", errorMessage(t, w))
}

func TestProfileUsesPrincipal(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "me@example.com", Role: domain.RoleUser}
	svc := &stubUserService{user: user}

	w := do(newUserRouter(svc, asUser(user.ID), passthrough), http.MethodGet, "/api/users/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "me@example.com")

	w = do(newUserRouter(svc, asUser(uuid.New()), passthrough), http.MethodGet, "/api/users/profile", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(newUserRouter(svc, passthrough, passthrough), http.MethodGet, "/api/users/profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	svc := &stubUserService{user: &domain.User{ID: uuid.New()}}

	assert.Equal(t, http.StatusForbidden, do(newUserRouter(svc, passthrough, forbid), http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusOK, do(newUserRouter(svc, passthrough, passthrough), http.MethodGet, "/api/users", "").Code)
}
