package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"collab-app/internal/config"
	"collab-app/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeDB is an in-memory stand-in for the Postgres user directory.
type fakeDB struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		byID:    map[string]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (f *fakeDB) CreateUser(_ context.Context, req *models.RegisterRequest) (*models.User, error) {
	if _, exists := f.byEmail[req.Email]; exists {
		return nil, fmt.Errorf("email already in use")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	copied := *user
	return &copied, nil
}

func (f *fakeDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	copied := *user
	return &copied, nil
}

func (f *fakeDB) GetUsersByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if user, ok := f.byID[id]; ok {
			copied := *user
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeDB) ListUsers(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, user := range f.byID {
		copied := *user
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeDB) ResolveNames(_ context.Context, ids []string) (map[string]string, error) {
	names := map[string]string{}
	for _, id := range ids {
		if user, ok := f.byID[id]; ok {
			names[id] = user.Name
		}
	}
	return names, nil
}

func (f *fakeDB) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:    []byte("test-secret"),
			ExpiresIn: time.Hour,
		},
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newFakeDB(), testConfig())

	resp, err := svc.Register(context.Background(), &models.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.User.ID)

	login, err := svc.Login(context.Background(), &models.LoginRequest{
		Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
	assert.Empty(t, login.User.PasswordHash)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newFakeDB(), testConfig())

	_, err := svc.Register(context.Background(), &models.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &models.LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})
	assert.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeDB(), testConfig())

	cases := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"missing fields", models.RegisterRequest{Name: "Alice"}},
		{"bad email", models.RegisterRequest{Name: "Alice", Email: "not-an-email", Password: "hunter2hunter2"}},
		{"short password", models.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "short"}},
		{"short name", models.RegisterRequest{Name: "A", Email: "alice@example.com", Password: "hunter2hunter2"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tc.req)
			assert.Error(t, err)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	db := newFakeDB()
	svc := NewService(db, testConfig())

	resp, err := svc.Register(context.Background(), &models.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	user, err := svc.GetUserFromToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, "Alice", user.Name)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeDB(), testConfig())

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	db := newFakeDB()
	issuer := NewService(db, testConfig())

	resp, err := issuer.Register(context.Background(), &models.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	verifier := NewService(db, &config.Config{
		JWT: config.JWTConfig{Secret: []byte("other-secret"), ExpiresIn: time.Hour},
	})
	_, err = verifier.ValidateToken(resp.Token)
	assert.Error(t, err)
}
