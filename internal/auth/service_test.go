// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/crm-backend/internal/config"
	"github.com/carterperez-dev/crm-backend/internal/core"
)

type memTokens struct {
	mu     sync.Mutex
	byHash map[string]*RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{byHash: map[string]*RefreshToken{}}
}

func (m *memTokens) Save(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = time.Now()
	cp := *t
	m.byHash[t.TokenHash] = &cp
	return nil
}

func (m *memTokens) ByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) each(fn func(t *RefreshToken)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byHash {
		fn(t)
	}
}

func (m *memTokens) Rotate(_ context.Context, id, successor string) error {
	found := false
	m.each(func(t *RefreshToken) {
		if t.ID == id && !t.IsUsed {
			t.IsUsed = true
			t.ReplacedByID = &successor
			found = true
		}
	})
	if !found {
		return core.ErrNotFound
	}
	return nil
}

func (m *memTokens) Revoke(_ context.Context, rv Revocation) (int64, error) {
	now := time.Now()
	var n int64
	m.each(func(t *RefreshToken) {
		hit := (rv.TokenID != "" && t.ID == rv.TokenID) ||
			(rv.FamilyID != "" && t.FamilyID == rv.FamilyID) ||
			(rv.UserID > 0 && t.UserID == rv.UserID)
		if hit && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	})
	return n, nil
}

func (m *memTokens) Active(_ context.Context, userID int64, now time.Time) ([]RefreshToken, error) {
	var out []RefreshToken
	m.each(func(t *RefreshToken) {
		if t.UserID == userID && t.Usable(now) {
			out = append(out, *t)
		}
	})
	return out, nil
}

func (m *memTokens) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memUsers struct {
	byID map[int64]*UserInfo
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	for _, u := range m.byID {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*UserInfo, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, email, hash, name string) (*UserInfo, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return nil, core.ErrDuplicateKey
		}
	}
	u := &UserInfo{
		ID:           int64(len(m.byID) + 1),
		Email:        email,
		FullName:     name,
		PasswordHash: hash,
		Role:         "sales_rep",
		IsActive:     true,
	}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, id int64) error {
	m.byID[id].TokenVersion++
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.byID[id].PasswordHash = hash
	return nil
}

type memRevocations struct {
	revoked map[string]time.Time
}

func (m *memRevocations) RevokeToken(_ context.Context, jti string, exp time.Time) error {
	m.revoked[jti] = exp
	return nil
}

func (m *memRevocations) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

func newTestSigner(t *testing.T) *Signer {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	m, err := NewSigner(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: time.Hour,
		Issuer:             "crm-backend",
		Audience:           "crm-api",
	})
	require.NoError(t, err)
	return m
}

type authFixture struct {
	svc     *Service
	tokens  *memTokens
	users   *memUsers
	revoked *memRevocations
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := core.HashPassword("correct-horse")
	require.NoError(t, err)

	users := &memUsers{byID: map[int64]*UserInfo{
		1: {ID: 1, Email: "ana@example.com", FullName: "Ana", PasswordHash: hash, Role: "manager", IsActive: true},
		2: {ID: 2, Email: "off@example.com", FullName: "Off", PasswordHash: hash, Role: "sales_rep", IsActive: false},
	}}
	tokens := newMemTokens()
	revoked := &memRevocations{revoked: map[string]time.Time{}}

	return &authFixture{
		svc:     NewService(tokens, newTestSigner(t), users, revoked),
		tokens:  tokens,
		users:   users,
		revoked: revoked,
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"}, "ua", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, "Manager", resp.User.RoleLabel)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-horse"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct-horse"}, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "off@example.com", Password: "correct-horse"}, "", "")
	assert.ErrorIs(t, err, core.ErrInactiveUser)
}

func TestRegisterCreatesSalesRep(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "new@example.com",
		Password: "long-enough",
		FullName: "New Rep",
	}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "sales_rep", resp.User.Role)

	_, err = f.svc.Register(context.Background(), RegisterRequest{
		Email:    "new@example.com",
		Password: "long-enough",
		FullName: "Again",
	}, "", "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRefreshRotationAndReuse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"}, "", "")
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	_, err = f.svc.Refresh(ctx, first.Tokens.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrTokenReuse)

	_, err = f.svc.Refresh(ctx, second.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestVerifyAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"}, "", "")
	require.NoError(t, err)
	token := resp.Tokens.AccessToken

	claims, err := f.svc.VerifyAccessToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.NotEmpty(t, claims.TokenID)

	t.Run("role comes from the current record", func(t *testing.T) {
		f.users.byID[1].Role = "admin"
		t.Cleanup(func() { f.users.byID[1].Role = "manager" })

		claims, err := f.svc.VerifyAccessToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Role)
	})

	t.Run("deactivated user is rejected", func(t *testing.T) {
		f.users.byID[1].IsActive = false
		t.Cleanup(func() { f.users.byID[1].IsActive = true })

		_, err := f.svc.VerifyAccessToken(ctx, token)
		assert.ErrorIs(t, err, core.ErrInactiveUser)
	})

	t.Run("garbage is invalid", func(t *testing.T) {
		_, err := f.svc.VerifyAccessToken(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("logout revokes the access token", func(t *testing.T) {
		require.NoError(t, f.svc.Logout(ctx, resp.Tokens.RefreshToken, claims))

		_, err := f.svc.VerifyAccessToken(ctx, token)
		assert.ErrorIs(t, err, core.ErrTokenRevoked)

		_, err = f.svc.Refresh(ctx, resp.Tokens.RefreshToken, "", "")
		assert.ErrorIs(t, err, core.ErrTokenRevoked)
	})
}

func TestLogoutAllBumpsTokenVersion(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"}, "", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.LogoutAll(ctx, 1))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestSessionsListAndRevoke(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login := LoginRequest{Email: "ana@example.com", Password: "correct-horse"}
	laptop, err := f.svc.Login(ctx, login, "laptop", "10.0.0.1")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, login, "phone", "10.0.0.2")
	require.NoError(t, err)

	sessions, err := f.svc.Sessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	var laptopID string
	for _, s := range sessions {
		if s.UserAgent == "laptop" {
			laptopID = s.ID
		}
	}
	require.NotEmpty(t, laptopID)

	err = f.svc.RevokeSession(ctx, 2, laptopID)
	assert.ErrorIs(t, err, core.ErrNotFound, "other users cannot see the session")

	require.NoError(t, f.svc.RevokeSession(ctx, 1, laptopID))

	sessions, err = f.svc.Sessions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "phone", sessions[0].UserAgent)

	_, err = f.svc.Refresh(ctx, laptop.Tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestSignerKeyIDIsStable(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	cfg := config.JWTConfig{PrivateKeyPath: priv, AccessTokenExpire: time.Minute}
	a, err := NewSigner(cfg)
	require.NoError(t, err)
	b, err := NewSigner(cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, a.KeyID())
	assert.Equal(t, a.KeyID(), b.KeyID())
}
