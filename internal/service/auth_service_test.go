package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"boiler_collector/internal/models"
	"boiler_collector/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey struct{}

// fakeAuthRepo stores users in memory and remembers the request id carried by
// the last context it saw.
type fakeAuthRepo struct {
	users  map[string]*models.User
	nextID int
	err    error
	seenID any
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*models.User{}, nextID: 1}
}

func (r *fakeAuthRepo) Create(ctx context.Context, username, hash string) (int, error) {
	r.seenID = ctx.Value(ctxKey{})
	if r.err != nil {
		return 0, r.err
	}
	if _, ok := r.users[username]; ok {
		return 0, fmt.Errorf("%w: %q", repository.ErrUsernameTaken, username)
	}
	u := &models.User{ID: r.nextID, Username: username, PasswordHash: hash}
	r.users[username] = u
	r.nextID++
	return u.ID, nil
}

func (r *fakeAuthRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.seenID = ctx.Value(ctxKey{})
	if r.err != nil {
		return nil, r.err
	}
	return r.users[username], nil
}

func signWith(t *testing.T, key string, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func noneToken(t *testing.T, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuthService_SignUp(t *testing.T) {
	t.Parallel()
	dbDown := errors.New("db down")
	cases := []struct {
		name     string
		existing string
		repoErr  error
		username string
		password string
		wantErr  error
		wantAny  bool
	}{
		{name: "created", username: "operator", password: "s3cr3t"},
		{name: "taken", existing: "operator", username: "operator", password: "s3cr3t", wantErr: ErrUsernameTaken},
		{name: "repo failure", repoErr: dbDown, username: "operator", password: "s3cr3t", wantErr: dbDown},
		{name: "blank username", username: "  ", password: "pw", wantAny: true},
		{name: "blank password", username: "operator", password: "   ", wantAny: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := newFakeAuthRepo()
			if tc.existing != "" {
				repo.users[tc.existing] = &models.User{ID: 9, Username: tc.existing}
				repo.nextID = 10
			}
			repo.err = tc.repoErr
			svc := NewAuthService(repo, AuthConfig{SigningKey: "k"})

			id, err := svc.SignUp(context.Background(), tc.username, tc.password)
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			case tc.wantAny:
				if err == nil {
					t.Fatal("expected an error")
				}
				if len(repo.users) != 0 {
					t.Fatalf("repo touched: %v", repo.users)
				}
				return
			case err != nil:
				t.Fatalf("SignUp: %v", err)
			}
			stored := repo.users[tc.username]
			if stored == nil || stored.ID != id {
				t.Fatalf("stored %+v, id %d", stored, id)
			}
			if stored.PasswordHash == tc.password || verifyPassword(stored.PasswordHash, tc.password) != nil {
				t.Fatalf("stored hash %q does not verify", stored.PasswordHash)
			}
		})
	}
}

func TestAuthService_PassesContextToRepository(t *testing.T) {
	t.Parallel()
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, AuthConfig{SigningKey: "k"})
	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")

	if _, err := svc.SignUp(ctx, "operator", "pw"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if repo.seenID != "req-1" {
		t.Fatalf("Create saw ctx value %v", repo.seenID)
	}
	repo.seenID = nil
	ctx = context.WithValue(context.Background(), ctxKey{}, "req-2")
	if _, err := svc.GenerateToken(ctx, "operator", "pw"); err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if repo.seenID != "req-2" {
		t.Fatalf("GetByUsername saw ctx value %v", repo.seenID)
	}
}

func TestAuthService_GenerateToken(t *testing.T) {
	t.Parallel()
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, AuthConfig{SigningKey: "k"})
	if _, err := svc.SignUp(context.Background(), "operator", "letmein"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	cases := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "operator", password: "letmein"},
		{name: "unknown user", username: "ghost", password: "letmein", wantErr: ErrUserNotFound},
		{name: "wrong password", username: "operator", password: "nope", wantErr: ErrInvalidPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := svc.GenerateToken(context.Background(), tc.username, tc.password)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}
			uid, err := svc.ParseToken(tok)
			if err != nil || uid != repo.users["operator"].ID {
				t.Fatalf("ParseToken = %d, %v", uid, err)
			}
		})
	}
}

func TestAuthService_TokenLifetimeFollowsConfig(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{name: "configured", ttl: 15 * time.Minute, want: 15 * time.Minute},
		{name: "unset", ttl: 0, want: DefaultTokenTTL},
		{name: "negative", ttl: -time.Minute, want: DefaultTokenTTL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewAuthService(newFakeAuthRepo(), AuthConfig{SigningKey: "k", TokenTTL: tc.ttl})
			tok, err := svc.issueToken(3)
			if err != nil {
				t.Fatalf("issueToken: %v", err)
			}
			var claims Claims
			if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
				t.Fatalf("ParseUnverified: %v", err)
			}
			got := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
			if got != tc.want {
				t.Fatalf("lifetime = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAuthService_ParseTokenRejects(t *testing.T) {
	t.Parallel()
	const key = "collector-key"
	svc := NewAuthService(newFakeAuthRepo(), AuthConfig{SigningKey: key})
	now := time.Now()
	live := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	cases := []struct {
		name  string
		token string
	}{
		{name: "malformed", token: "not-a-jwt"},
		{name: "other key", token: signWith(t, "another-key", &Claims{RegisteredClaims: live, UserID: 5})},
		{name: "expired", token: signWith(t, key, &Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
		}, UserID: 5})},
		{name: "tampered signature", token: signWith(t, key, &Claims{RegisteredClaims: live, UserID: 5}) + "x"},
		{name: "alg none", token: noneToken(t, &Claims{RegisteredClaims: live, UserID: 5})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if uid, err := svc.ParseToken(tc.token); err == nil {
				t.Fatalf("accepted token for user %d", uid)
			}
		})
	}

	if uid, err := svc.ParseToken(signWith(t, key, &Claims{RegisteredClaims: live, UserID: 5})); err != nil || uid != 5 {
		t.Fatalf("own token: %d, %v", uid, err)
	}
}
