package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/thirstee-app/thirstee/internal/models"
	"github.com/thirstee-app/thirstee/internal/services"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	userID := uuid.New()
	userService := &mockUserService{
		CreateFunc: func(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
			if params.Email != "new@example.com" {
				t.Fatalf("expected normalized email, got %q", params.Email)
			}
			return &models.User{ID: userID, Email: params.Email, DisplayName: params.DisplayName}, nil
		},
	}
	handler := NewAuthHandler(userService, &mockAuthService{}, false)

	payload := `{"email":"  NEW@example.com ","password":"password1","display_name":"Sam"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var response AuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.User == nil || response.User.ID != userID {
		t.Fatalf("unexpected user in response: %+v", response.User)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("expected HttpOnly session cookie")
	}
}

func TestAuthHandler_Register_InvalidEmail(t *testing.T) {
	handler := NewAuthHandler(&mockUserService{}, &mockAuthService{}, false)

	payload := `{"email":"not-an-email","password":"password1","display_name":"Sam"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Register(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid email address")
}

func TestAuthHandler_Register_ShortPassword(t *testing.T) {
	handler := NewAuthHandler(&mockUserService{}, &mockAuthService{}, false)

	payload := `{"email":"new@example.com","password":"short","display_name":"Sam"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Register(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Password must be at least 8 characters")
}

func TestAuthHandler_Register_EmailExists(t *testing.T) {
	userService := &mockUserService{
		CreateFunc: func(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
			return nil, services.ErrEmailAlreadyExists
		},
	}
	handler := NewAuthHandler(userService, &mockAuthService{}, false)

	payload := `{"email":"taken@example.com","password":"password1","display_name":"Sam"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Register(rr, req)
	assertErrorResponse(t, rr, http.StatusConflict, "Email already registered")
}

func TestAuthHandler_Login_Success(t *testing.T) {
	userID := uuid.New()
	userService := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: userID, Email: email, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(userService, &mockAuthService{}, false)

	payload := `{"email":"sam@example.com","password":"password1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Login_UnknownEmail(t *testing.T) {
	userService := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, services.ErrUserNotFound
		},
	}
	handler := NewAuthHandler(userService, &mockAuthService{}, false)

	payload := `{"email":"nobody@example.com","password":"password1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Login(rr, req)
	assertErrorResponse(t, rr, http.StatusUnauthorized, "Invalid email or password")
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	userService := &mockUserService{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: uuid.New(), Email: email, PasswordHash: "hash"}, nil
		},
	}
	authService := &mockAuthService{
		VerifyPasswordFunc: func(hash, password string) bool { return false },
	}
	handler := NewAuthHandler(userService, authService, false)

	payload := `{"email":"sam@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Login(rr, req)
	assertErrorResponse(t, rr, http.StatusUnauthorized, "Invalid email or password")
}

func TestAuthHandler_Logout_DeletesSessionAndClearsCookie(t *testing.T) {
	deleted := ""
	authService := &mockAuthService{
		DeleteSessionFunc: func(ctx context.Context, token string) error {
			deleted = token
			return nil
		},
	}
	handler := NewAuthHandler(&mockUserService{}, authService, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "tok-123"})
	rr := httptest.NewRecorder()

	handler.Logout(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if deleted != "tok-123" {
		t.Fatalf("expected session tok-123 deleted, got %q", deleted)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected cleared session cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Me_RequiresAuth(t *testing.T) {
	handler := NewAuthHandler(&mockUserService{}, &mockAuthService{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rr := httptest.NewRecorder()

	handler.Me(rr, req)
	assertErrorResponse(t, rr, http.StatusUnauthorized, "Not authenticated")
}

func TestAuthHandler_Me_ReturnsUser(t *testing.T) {
	userID := uuid.New()
	handler := NewAuthHandler(&mockUserService{}, &mockAuthService{}, false)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), &models.User{ID: userID})
	rr := httptest.NewRecorder()

	handler.Me(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var response AuthResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.User == nil || response.User.ID != userID {
		t.Fatalf("unexpected user: %+v", response.User)
	}
}
