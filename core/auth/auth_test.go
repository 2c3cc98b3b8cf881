package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"moodtune/repository"
	"moodtune/testutil"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the password")
	}
	other, _ := HashPassword("secret1")
	if other == hash {
		t.Error("expected salted hashes to differ")
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{"match", "secret1", hash, true, false},
		{"mismatch", "wrong", hash, false, false},
		{"malformed hash", "secret1", "not-a-hash", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.password, tt.hash)
			if ok != tt.want || (err != nil) != tt.wantErr {
				t.Errorf("VerifyPassword = %v, %v", ok, err)
			}
		})
	}

	if _, err := HashPassword(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestTokenLifetime(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	issuedAt := clock.t
	tm := NewTokenManager("s3cret", clock.Now)

	token, err := tm.Issue("u1", true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name   string
		at     time.Time
		wantOK bool
	}{
		{"at issuance", issuedAt, true},
		{"one hour later", issuedAt.Add(time.Hour), true},
		{"one second before expiry", issuedAt.Add(TokenTTL - time.Second), true},
		{"exactly at expiry", issuedAt.Add(TokenTTL), false},
		{"after expiry", issuedAt.Add(TokenTTL + time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = tt.at
			id, err := tm.Parse(token)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("expected valid token, got %v", err)
				}
				if id.UserID != "u1" || !id.IsAdmin {
					t.Errorf("unexpected identity %+v", id)
				}
				return
			}
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenLifetimeSubSecondIssue(t *testing.T) {
	issued := time.Date(2024, 5, 1, 8, 0, 0, 900_000_000, time.UTC)
	clock := &fakeClock{t: issued}
	tm := NewTokenManager("s3cret", clock.Now)
	token, err := tm.Issue("u1", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	base := issued.Truncate(time.Second)

	tests := []struct {
		name   string
		at     time.Time
		wantOK bool
	}{
		{"issuance second", base, true},
		{"half a second before expiry", base.Add(TokenTTL - 500*time.Millisecond), true},
		{"last nanosecond", base.Add(TokenTTL - time.Nanosecond), true},
		{"expiry", base.Add(TokenTTL), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = tt.at
			_, err := tm.Parse(token)
			if tt.wantOK && err != nil {
				t.Errorf("expected valid token, got %v", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenRejectsTampering(t *testing.T) {
	tm := NewTokenManager("s3cret", nil)
	token, _ := tm.Issue("u1", false)

	t.Run("Other Secret", func(t *testing.T) {
		if _, err := NewTokenManager("other", nil).Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := tm.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Spliced Payload", func(t *testing.T) {
		forged, _ := tm.Issue("u2", true)
		parts := strings.Split(token, ".")
		parts[1] = strings.Split(forged, ".")[1]
		if _, err := tm.Parse(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Error("empty context should carry no identity")
	}
	ctx := WithIdentity(context.Background(), Identity{UserID: "u9", IsAdmin: true})
	id, ok := IdentityFrom(ctx)
	if !ok || id.UserID != "u9" || !id.IsAdmin {
		t.Errorf("unexpected identity %+v %v", id, ok)
	}
}

func newService(t *testing.T) (*Service, repository.UserRepository) {
	t.Helper()
	users := repository.NewGormUserRepository(testutil.OpenDB(t))
	return NewService(users, NewTokenManager("s3cret", nil), "admin-key"), users
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	t.Run("Regular Signup", func(t *testing.T) {
		u, err := svc.Signup(ctx, "Al", "al@x.com", "secret1", "")
		if err != nil {
			t.Fatalf("signup: %v", err)
		}
		if u.IsAdmin {
			t.Error("expected non-admin")
		}
		if u.PasswordHash == "secret1" {
			t.Error("password stored in clear")
		}
	})

	t.Run("Admin Signup", func(t *testing.T) {
		u, err := svc.Signup(ctx, "Root", "root@x.com", "pw", "admin-key")
		if err != nil {
			t.Fatalf("signup: %v", err)
		}
		if !u.IsAdmin {
			t.Error("expected admin with matching key")
		}
	})

	t.Run("Wrong Admin Key", func(t *testing.T) {
		u, err := svc.Signup(ctx, "Eve", "eve@x.com", "pw", "admin-key ")
		if err != nil {
			t.Fatalf("signup: %v", err)
		}
		if u.IsAdmin {
			t.Error("near-miss key must not grant admin")
		}
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		if _, err := svc.Signup(ctx, "Al2", "al@x.com", "x", ""); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})

	t.Run("Missing Fields", func(t *testing.T) {
		if _, err := svc.Signup(ctx, "", "n@x.com", "x", ""); !errors.Is(err, ErrMissingFields) {
			t.Errorf("expected ErrMissingFields, got %v", err)
		}
	})

	t.Run("Login", func(t *testing.T) {
		token, u, err := svc.Login(ctx, "al@x.com", "secret1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		id, err := svc.Authenticate(token)
		if err != nil || id.UserID != u.ID || id.IsAdmin {
			t.Errorf("unexpected identity %+v (%v)", id, err)
		}
	})

	t.Run("Login Failures Look Alike", func(t *testing.T) {
		_, _, wrongPw := svc.Login(ctx, "al@x.com", "wrong")
		_, _, unknown := svc.Login(ctx, "nobody@x.com", "secret1")
		if !errors.Is(wrongPw, ErrInvalidCredentials) || !errors.Is(unknown, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v / %v", wrongPw, unknown)
		}
		if wrongPw.Error() != unknown.Error() {
			t.Errorf("messages differ: %q vs %q", wrongPw, unknown)
		}
	})
}

func TestIsAdminReadsStore(t *testing.T) {
	ctx := context.Background()
	users := repository.NewGormUserRepository(testutil.OpenDB(t))
	svc := NewService(users, NewTokenManager("s", nil), "")

	u, err := svc.Signup(ctx, "Al", "al@x.com", "pw", "anything")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.IsAdmin {
		t.Error("empty configured key must never grant admin")
	}
	ok, err := svc.IsAdmin(ctx, u.ID)
	if err != nil || ok {
		t.Errorf("expected false, got %v (%v)", ok, err)
	}
	ok, err = svc.IsAdmin(ctx, "ghost")
	if err != nil || ok {
		t.Errorf("expected false for unknown user, got %v (%v)", ok, err)
	}
}
