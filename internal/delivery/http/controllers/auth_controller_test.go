package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"
)

type mockAuthService struct {
	user      *domain.User
	token     string
	signUpErr error
	loginErr  error
	getErr    error
}

func (m *mockAuthService) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	if m.signUpErr != nil {
		return nil, m.signUpErr
	}
	return m.user, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if m.loginErr != nil {
		return "", nil, m.loginErr
	}
	return m.token, m.user, nil
}

func (m *mockAuthService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func TestAuthController_SignUp(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		signUpErr  error
		wantStatus int
	}{
		{
			name:       "valid",
			body:       `{"email":"taro@example.com","password":"secret-password","name":"Taro"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing password",
			body:       `{"email":"taro@example.com"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "duplicate email",
			body:       `{"email":"taro@example.com","password":"secret-password"}`,
			signUpErr:  domain.ErrDuplicateEmail,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid email rejected by service",
			body:       `{"email":"bad","password":"secret-password"}`,
			signUpErr:  domain.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				user:      &domain.User{ID: "u1", Email: "taro@example.com", Name: "Taro"},
				signUpErr: tt.signUpErr,
			}
			ctrl := NewAuthController(discardLogger, svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			ctrl.SignUp(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthController_SignUp_InternalErrorIsGeneric(t *testing.T) {
	ctrl := NewAuthController(discardLogger, &mockAuthService{signUpErr: errors.New("pq: connection refused")})

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"taro@example.com","password":"secret-password"}`))
	w := httptest.NewRecorder()
	ctrl.SignUp(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Message != "internal server error" {
		t.Fatalf("expected generic message, got %+v", resp.Error)
	}
}

func TestAuthController_SignUp_NeverLeaksHash(t *testing.T) {
	svc := &mockAuthService{
		user: &domain.User{ID: "u1", Email: "taro@example.com", PasswordHash: "hash", Salt: "salt"},
	}
	ctrl := NewAuthController(discardLogger, svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"taro@example.com","password":"secret-password"}`))
	w := httptest.NewRecorder()
	ctrl.SignUp(w, req)

	body := w.Body.String()
	if strings.Contains(body, "hash") || strings.Contains(body, "salt") {
		t.Fatalf("credentials leaked in response: %s", body)
	}
}

func TestAuthController_Login(t *testing.T) {
	t.Run("success returns token and user", func(t *testing.T) {
		svc := &mockAuthService{
			user:  &domain.User{ID: "u1", Email: "taro@example.com"},
			token: "jwt-token",
		}
		ctrl := NewAuthController(discardLogger, svc)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"taro@example.com","password":"secret-password"}`))
		w := httptest.NewRecorder()
		ctrl.Login(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		var resp LoginSuccessResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Data.Token != "jwt-token" || resp.Data.User.ID != "u1" {
			t.Fatalf("unexpected payload: %+v", resp.Data)
		}
	})

	t.Run("failure is always 401", func(t *testing.T) {
		ctrl := NewAuthController(discardLogger, &mockAuthService{loginErr: errors.New("invalid credentials")})

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"taro@example.com","password":"wrong-password"}`))
		w := httptest.NewRecorder()
		ctrl.Login(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
		var resp helpers.APIResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Error == nil || resp.Error.Code != helpers.ErrCodeUnauthorized {
			t.Fatalf("expected unauthorized code, got %+v", resp.Error)
		}
	})
}

func TestAuthController_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		svc := &mockAuthService{user: &domain.User{ID: "u1", Email: "taro@example.com"}}
		ctrl := NewAuthController(discardLogger, svc)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "u1"}))
		w := httptest.NewRecorder()
		ctrl.Me(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("missing context", func(t *testing.T) {
		ctrl := NewAuthController(discardLogger, &mockAuthService{})

		w := httptest.NewRecorder()
		ctrl.Me(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("deleted account", func(t *testing.T) {
		ctrl := NewAuthController(discardLogger, &mockAuthService{getErr: domain.ErrNotFound})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req = req.WithContext(middleware.SetAuthClaims(req.Context(), &domain.AuthClaims{UserID: "gone"}))
		w := httptest.NewRecorder()
		ctrl.Me(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})
}
