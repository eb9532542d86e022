package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mb-events/server/internal/auth"
	"github.com/mb-events/server/internal/domain/users"
)

type stubUserRepo struct {
	byEmail map[string]*users.User
	byID    map[string]*users.User
	created *users.CreateParams
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: make(map[string]*users.User),
		byID:    make(map[string]*users.User),
	}
}

func (s *stubUserRepo) add(user *users.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (s *stubUserRepo) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	s.created = &params
	user := &users.User{
		ID:           params.ID,
		FullName:     params.FullName,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
	}
	s.add(user)
	return user, nil
}

func (s *stubUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	user, ok := s.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (s *stubUserRepo) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	user, ok := s.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.ResetToken = token
	user.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (s *stubUserRepo) UpdatePasswordAndClearResetToken(ctx context.Context, id, passwordHash string) error {
	user, ok := s.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.ResetToken = ""
	user.ResetTokenExpiresAt = nil
	return nil
}

type noopNotifier struct{}

func (noopNotifier) SendWelcome(ctx context.Context, to, fullName, loginURL string) error {
	return nil
}

func (noopNotifier) SendPasswordReset(ctx context.Context, to, fullName, resetURL string) error {
	return nil
}

func newUsersHandler(t *testing.T, repo users.Repository) *UsersHandler {
	t.Helper()
	manager := auth.NewManager("handler-test-secret", time.Hour, 15*time.Minute, "mb-events")
	service := users.NewService(repo, manager, noopNotifier{}, "http://localhost:5173", zerolog.Nop())
	return NewUsersHandler(service)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterCreatesAccount(t *testing.T) {
	repo := newStubUserRepo()
	handler := newUsersHandler(t, repo)

	rec := postJSON(t, handler.Register, "/api/v1/register", map[string]string{
		"fullName": "Ada Obi",
		"email":    "Ada@Example.com",
		"password": "Secret#123",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.created)
	// email is normalized on the way in
	require.Equal(t, "ada@example.com", repo.created.Email)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	user := body["user"].(map[string]any)
	require.Equal(t, "Ada Obi", user["fullName"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(&users.User{ID: "usr_1", Email: "ada@example.com"})
	handler := newUsersHandler(t, repo)

	rec := postJSON(t, handler.Register, "/api/v1/register", map[string]string{
		"fullName": "Ada Obi",
		"email":    "ada@example.com",
		"password": "Secret#123",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	handler := newUsersHandler(t, newStubUserRepo())

	rec := postJSON(t, handler.Register, "/api/v1/register", map[string]string{
		"fullName": "Ada Obi",
		"email":    "not-an-email",
		"password": "Secret#123",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSuccessAndFailure(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret#123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newStubUserRepo()
	repo.add(&users.User{
		ID:           "usr_1",
		FullName:     "Ada Obi",
		Email:        "ada@example.com",
		PasswordHash: string(hash),
	})
	handler := newUsersHandler(t, repo)

	rec := postJSON(t, handler.Login, "/api/v1/login", map[string]string{
		"email":    "ada@example.com",
		"password": "Secret#123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["token"])

	rec = postJSON(t, handler.Login, "/api/v1/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, handler.Login, "/api/v1/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "Secret#123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePasswordRejectsWeakPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret#123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newStubUserRepo()
	repo.add(&users.User{ID: "usr_1", Email: "ada@example.com", PasswordHash: string(hash)})
	handler := newUsersHandler(t, repo)

	rec := postJSON(t, handler.ChangePassword, "/api/v1/change-password", map[string]string{
		"email":       "ada@example.com",
		"oldPassword": "Secret#123",
		"newPassword": "alllowercase",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret#123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newStubUserRepo()
	repo.add(&users.User{ID: "usr_1", Email: "ada@example.com", PasswordHash: string(hash)})
	handler := newUsersHandler(t, repo)

	rec := postJSON(t, handler.ChangePassword, "/api/v1/change-password", map[string]string{
		"email":       "ada@example.com",
		"oldPassword": "Secret#123",
		"newPassword": "NewSecret#456",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(repo.byID["usr_1"].PasswordHash), []byte("NewSecret#456")))
}

func TestForgotAndResetPasswordFlow(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(&users.User{ID: "usr_1", FullName: "Ada Obi", Email: "ada@example.com"})
	handler := newUsersHandler(t, repo)

	rec := postJSON(t, handler.ForgotPassword, "/api/v1/forgot-password", map[string]string{
		"email": "ada@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, repo.byID["usr_1"].ResetToken)

	rec = postJSON(t, handler.ResetPassword, "/api/v1/reset-password", map[string]string{
		"token":       repo.byID["usr_1"].ResetToken,
		"newPassword": "NewSecret#456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, repo.byID["usr_1"].ResetToken)
}

func TestResetPasswordGarbageToken(t *testing.T) {
	handler := newUsersHandler(t, newStubUserRepo())

	rec := postJSON(t, handler.ResetPassword, "/api/v1/reset-password", map[string]string{
		"token":       "not.a.jwt",
		"newPassword": "NewSecret#456",
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	handler := newUsersHandler(t, newStubUserRepo())

	rec := postJSON(t, handler.ForgotPassword, "/api/v1/forgot-password", map[string]string{
		"email": "nobody@example.com",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
}
