package service

import (
	"context"
	"errors"
	"testing"

	"friendhub/internal/api/dto"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Success", func(t *testing.T) {
		user, err := env.auth.Register(&dto.RegisterRequest{Username: "alice", Password: "pw123"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if user.Username != "alice" || user.ID == 0 || user.CreatedAt.IsZero() {
			t.Fatalf("unexpected user: %+v", user)
		}
		stored, err := env.userRepo.GetByUsername("alice")
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if stored.PasswordHash == "pw123" {
			t.Fatal("password stored in plain text")
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		_, err := env.auth.Register(&dto.RegisterRequest{Username: "alice", Password: "other"})
		if !errors.Is(err, ErrUsernameExists) {
			t.Fatalf("expected ErrUsernameExists, got %v", err)
		}
	})

	t.Run("EmptyFields", func(t *testing.T) {
		for _, req := range []dto.RegisterRequest{
			{Username: "", Password: "pw"},
			{Username: "   ", Password: "pw"},
			{Username: "bob", Password: ""},
		} {
			if _, err := env.auth.Register(&req); !IsValidationError(err) {
				t.Errorf("register %+v: expected validation error, got %v", req, err)
			}
		}
	})
}

func TestLoginAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	ctx := context.Background()

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := env.auth.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "nope"})
		if !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential, got %v", err)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := env.auth.Login(ctx, &dto.LoginRequest{Username: "mallory", Password: "pw123"})
		if !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("expected ErrInvalidCredential, got %v", err)
		}
	})

	t.Run("SessionIdentityIsUsername", func(t *testing.T) {
		data, err := env.auth.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "pw123"})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		sess, err := env.auth.Authenticate(ctx, data.Token)
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if sess.Username != "alice" {
			t.Fatalf("session username = %q, want alice", sess.Username)
		}

		// 注销后令牌虽未过期，但会话已不存在
		if err := env.auth.Logout(ctx, sess.ID); err != nil {
			t.Fatalf("logout: %v", err)
		}
		if _, err := env.auth.Authenticate(ctx, data.Token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
		}
		if err := env.auth.Logout(ctx, sess.ID); err != nil {
			t.Fatalf("second logout should be a no-op, got %v", err)
		}
	})

	t.Run("BadToken", func(t *testing.T) {
		for _, token := range []string{"", "garbage"} {
			if _, err := env.auth.Authenticate(ctx, token); !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("token %q: expected ErrUnauthenticated, got %v", token, err)
			}
		}
	})
}
