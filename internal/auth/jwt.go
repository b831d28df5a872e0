// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/crm-backend/internal/config"
	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/middleware"
)

const (
	claimRole    = "role"
	claimVersion = "ver"
	claimType    = "typ"
	typeAccess   = "access"

	clockSkew = 30 * time.Second
)

// Signer issues ES256 access tokens and the opaque refresh tokens that
// back a session. The key id is the RFC 7638 thumbprint of the public
// key, so it survives restarts and JWKS caches stay valid.
type Signer struct {
	private jwk.Key
	public  jwk.Key
	jwks    jwk.Set
	cfg     config.JWTConfig
}

func NewSigner(cfg config.JWTConfig) (*Signer, error) {
	raw, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	private, err := jwk.ParseKey(raw, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	kid, err := thumbprint(public)
	if err != nil {
		return nil, err
	}

	for _, k := range []jwk.Key{private, public} {
		if err := k.Set(jwk.KeyIDKey, kid); err != nil {
			return nil, fmt.Errorf("set key id: %w", err)
		}
		if err := k.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
			return nil, fmt.Errorf("set algorithm: %w", err)
		}
	}
	if err := public.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		return nil, fmt.Errorf("build jwks: %w", err)
	}

	return &Signer{private: private, public: public, jwks: set, cfg: cfg}, nil
}

func thumbprint(key jwk.Key) (string, error) {
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM. The private key is
// owner-readable only.
func GenerateKeyPair(privatePath, publicPath string) error {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(ecKey)
	if err != nil {
		return fmt.Errorf("import key: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	files := []struct {
		path string
		key  jwk.Key
		mode os.FileMode
	}{
		{privatePath, private, 0o600},
		{publicPath, public, 0o644},
	}

	for _, f := range files {
		pem, err := jwk.Pem(f.key)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.path, err)
		}
		if err := os.WriteFile(f.path, pem, f.mode); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
	}

	return nil
}

type AccessTokenClaims struct {
	UserID       int64
	Role         string
	TokenVersion int
}

// IssuedToken is a signed access token and the identifiers needed to
// revoke it later.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

func (s *Signer) CreateAccessToken(claims AccessTokenClaims) (*IssuedToken, error) {
	now := time.Now()
	issued := &IssuedToken{
		ID:        uuid.New().String(),
		ExpiresAt: now.Add(s.cfg.AccessTokenExpire),
	}

	token, err := jwt.NewBuilder().
		JwtID(issued.ID).
		Issuer(s.cfg.Issuer).
		Audience([]string{s.cfg.Audience}).
		Subject(strconv.FormatInt(claims.UserID, 10)).
		IssuedAt(now).
		NotBefore(now).
		Expiration(issued.ExpiresAt).
		Claim(claimRole, claims.Role).
		Claim(claimVersion, claims.TokenVersion).
		Claim(claimType, typeAccess).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build access token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), s.private))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	issued.Token = string(signed)

	return issued, nil
}

// ParseAccessToken checks signature, issuer, audience and lifetime. It
// does not consult revocation state; Service.VerifyAccessToken does.
func (s *Signer) ParseAccessToken(raw string) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.ES256(), s.public),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithAcceptableSkew(clockSkew),
	)
	if err != nil {
		if isExpired(err) {
			return nil, fmt.Errorf("parse token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("parse token: %w", core.ErrTokenInvalid)
	}

	invalid := func(what string) error {
		return fmt.Errorf("parse token: %s: %w", what, core.ErrTokenInvalid)
	}

	var typ string
	if err := token.Get(claimType, &typ); err != nil || typ != typeAccess {
		return nil, invalid("not an access token")
	}

	subject, _ := token.Subject()
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, invalid("bad subject")
	}

	var role string
	if err := token.Get(claimRole, &role); err != nil {
		return nil, invalid("missing role")
	}

	// numeric claims decode as float64
	var version float64
	if err := token.Get(claimVersion, &version); err != nil {
		return nil, invalid("missing token version")
	}

	out := &middleware.AccessTokenClaims{
		UserID:       userID,
		Role:         role,
		TokenVersion: int(version),
	}
	out.TokenID, _ = token.JwtID()
	out.ExpiresAt, _ = token.Expiration()

	return out, nil
}

func isExpired(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied")
}

// JWKSHandler serves the public verification key.
func (s *Signer) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(s.jwks); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

func (s *Signer) KeyID() string {
	var kid string
	_ = s.public.Get(jwk.KeyIDKey, &kid) //nolint:errcheck // set in NewSigner
	return kid
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

// CreateRefreshToken mints an opaque token. Only its hash is persisted.
// An empty familyID starts a new session.
func (s *Signer) CreateRefreshToken(familyID string) (*RefreshTokenData, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if familyID == "" {
		familyID = uuid.New().String()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}

func (s *Signer) AccessTokenTTL() time.Duration {
	return s.cfg.AccessTokenExpire
}
