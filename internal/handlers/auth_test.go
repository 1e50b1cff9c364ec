package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fieldfleet/trip-recorder/internal/auth"
	"github.com/fieldfleet/trip-recorder/internal/models"
)

func newAuthFixture(t *testing.T) (*AuthHandler, *auth.Service) {
	t.Helper()
	service, err := auth.NewService()
	require.NoError(t, err)

	hash, err := service.HashPassword("password123")
	require.NoError(t, err)

	users := &fakeUserStore{users: map[string]*models.User{
		"alice@example.com": {
			ID:           primitive.NewObjectID(),
			Email:        "alice@example.com",
			PasswordHash: hash,
			Name:         "Alice",
			IsActive:     true,
		},
		"inactive@example.com": {
			ID:           primitive.NewObjectID(),
			Email:        "inactive@example.com",
			PasswordHash: hash,
			IsActive:     false,
		},
	}}
	return NewAuthHandler(service, users), service
}

func TestLoginIssuesOperatorToken(t *testing.T) {
	h, service := newAuthFixture(t)

	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"password123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// the token's email claim is the lease holder identity
	claims, err := service.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h, _ := newAuthFixture(t)

	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"alice@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	h, _ := newAuthFixture(t)

	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"who@example.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	h, _ := newAuthFixture(t)

	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"inactive@example.com","password":"password123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	h, _ := newAuthFixture(t)

	rec := doJSON(h.Login, http.MethodPost, "/api/auth/login", `{"email":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(h.Login, http.MethodPost, "/api/auth/login", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(h.Login, http.MethodGet, "/api/auth/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
