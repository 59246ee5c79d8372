package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/models"
)

type mockResetTokenService struct {
	createFn        func(ctx context.Context, email string) (string, error)
	verifyFn        func(ctx context.Context, token string) (string, error)
	consumeFn       func(ctx context.Context, token string) error
	resetPasswordFn func(ctx context.Context, token, newPassword string) (string, error)
	created         []string
}

func (m *mockResetTokenService) Create(ctx context.Context, email string) (string, error) {
	m.created = append(m.created, email)
	if m.createFn != nil {
		return m.createFn(ctx, email)
	}
	return "tok", nil
}

func (m *mockResetTokenService) Verify(ctx context.Context, token string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, token)
	}
	return "a@x.com", nil
}

func (m *mockResetTokenService) Consume(ctx context.Context, token string) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, token)
	}
	return nil
}

func (m *mockResetTokenService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, token, newPassword)
	}
	return "a@x.com", nil
}

func (m *mockResetTokenService) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}

type mockMailer struct {
	err  error
	sent []string
}

func (m *mockMailer) SendPasswordReset(_ context.Context, to, _, resetURL string) error {
	m.sent = append(m.sent, to+" "+resetURL)
	return m.err
}

func setupPasswordRouter(handler *PasswordHandler) *gin.Engine {
	r := gin.New()
	r.POST("/forgot-password", handler.ForgotPassword)
	r.POST("/reset-password", handler.ResetPassword)
	r.GET("/verify-reset-token/:token", handler.VerifyResetToken)
	return r
}

func TestPasswordHandler_ForgotPassword(t *testing.T) {
	t.Run("known email creates token and mails link", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(_ context.Context, email string) (*models.User, error) {
				return &models.User{Name: "Alice", Email: email}, nil
			},
		}
		resets := &mockResetTokenService{}
		mail := &mockMailer{}
		audit := &mockAuditService{}
		r := setupPasswordRouter(NewPasswordHandler(userSvc, resets, mail, "http://localhost:3000", audit))

		rec := doRequest(r, "POST", "/forgot-password", `{"email":"a@x.com"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if msg := parseJSON(t, rec)["message"]; msg != forgotPasswordMessage {
			t.Errorf("unexpected message %v", msg)
		}
		if len(resets.created) != 1 {
			t.Fatalf("expected one token, got %d", len(resets.created))
		}
		if len(mail.sent) != 1 || mail.sent[0] != "a@x.com http://localhost:3000/reset-password.html?token=tok" {
			t.Errorf("unexpected mail %v", mail.sent)
		}
		if got := audit.logged(); len(got) != 1 || got[0] != models.AuditActionPasswordResetRequested {
			t.Errorf("expected reset request audit entry, got %v", got)
		}
	})

	t.Run("unknown email answers the same without a token", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByEmailFn: func(context.Context, string) (*models.User, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		resets := &mockResetTokenService{}
		mail := &mockMailer{}
		r := setupPasswordRouter(NewPasswordHandler(userSvc, resets, mail, "http://x", &mockAuditService{}))

		rec := doRequest(r, "POST", "/forgot-password", `{"email":"ghost@x.com"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if msg := parseJSON(t, rec)["message"]; msg != forgotPasswordMessage {
			t.Errorf("unexpected message %v", msg)
		}
		if len(resets.created) != 0 || len(mail.sent) != 0 {
			t.Error("expected no token and no mail for an unknown email")
		}
	})

	t.Run("mail failure still answers generically", func(t *testing.T) {
		mail := &mockMailer{err: errors.New("relay down")}
		r := setupPasswordRouter(NewPasswordHandler(&mockUserService{}, &mockResetTokenService{}, mail, "http://x", &mockAuditService{}))

		rec := doRequest(r, "POST", "/forgot-password", `{"email":"a@x.com"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		r := setupPasswordRouter(NewPasswordHandler(&mockUserService{}, &mockResetTokenService{}, &mockMailer{}, "http://x", &mockAuditService{}))

		rec := doRequest(r, "POST", "/forgot-password", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestPasswordHandler_ResetPassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotToken, gotPassword string
		resets := &mockResetTokenService{
			resetPasswordFn: func(_ context.Context, token, pw string) (string, error) {
				gotToken, gotPassword = token, pw
				return "a@x.com", nil
			},
		}
		audit := &mockAuditService{}
		r := setupPasswordRouter(NewPasswordHandler(&mockUserService{}, resets, &mockMailer{}, "http://x", audit))

		rec := doRequest(r, "POST", "/reset-password", `{"token":"t1","password":"fresh-pw"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotToken != "t1" || gotPassword != "fresh-pw" {
			t.Errorf("service got token=%q password=%q", gotToken, gotPassword)
		}
		if got := audit.logged(); len(got) != 1 || got[0] != models.AuditActionPasswordReset {
			t.Errorf("expected password_reset audit entry, got %v", got)
		}
	})

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"invalid token", apperrors.ErrInvalidResetToken, "INVALID_RESET_TOKEN"},
		{"expired token", apperrors.ErrResetTokenExpired, "RESET_TOKEN_EXPIRED"},
		{"short password", apperrors.ErrPasswordTooShort, "PASSWORD_TOO_SHORT"},
		{"user gone", apperrors.ErrUserNotFound, "USER_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resets := &mockResetTokenService{
				resetPasswordFn: func(context.Context, string, string) (string, error) { return "", tt.err },
			}
			r := setupPasswordRouter(NewPasswordHandler(&mockUserService{}, resets, &mockMailer{}, "http://x", &mockAuditService{}))

			rec := doRequest(r, "POST", "/reset-password", `{"token":"t1","password":"fresh-pw"}`)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
		})
	}
}

func TestPasswordHandler_VerifyResetToken(t *testing.T) {
	resets := &mockResetTokenService{
		verifyFn: func(_ context.Context, token string) (string, error) {
			switch {
			case token == "good":
				return "a@x.com", nil
			case strings.HasPrefix(token, "old"):
				return "", apperrors.ErrResetTokenExpired
			default:
				return "", apperrors.ErrInvalidResetToken
			}
		},
	}
	r := setupPasswordRouter(NewPasswordHandler(&mockUserService{}, resets, &mockMailer{}, "http://x", &mockAuditService{}))

	rec := doRequest(r, "GET", "/verify-reset-token/good", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if msg := parseJSON(t, rec)["message"]; msg != "Valid reset token" {
		t.Errorf("unexpected message %v", msg)
	}

	rec = doRequest(r, "GET", "/verify-reset-token/old-token", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "RESET_TOKEN_EXPIRED")

	rec = doRequest(r, "GET", "/verify-reset-token/nope", "")
	assertErrorCode(t, parseJSON(t, rec), "INVALID_RESET_TOKEN")
}
