package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

const (
	issuer = "blog-service"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

// UserClaims étend les claims standards JWT
type UserClaims struct {
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type JWTProvider struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewJWTProvider charge les clés RSA depuis des PEM
func NewJWTProvider(privateKeyPEM, publicKeyPEM []byte) (*JWTProvider, error) {
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &JWTProvider{
		privateKey:    privKey,
		publicKey:     pubKey,
		accessExpiry:  15 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour,
		now:           time.Now,
	}, nil
}

// NewJWTProviderFromFiles lit les clés sur disque (chemins de la config)
func NewJWTProviderFromFiles(privatePath, publicPath string) (*JWTProvider, error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return NewJWTProvider(priv, pub)
}

func (j *JWTProvider) AccessExpiry() time.Duration { return j.accessExpiry }

// GenerateTokens crée la paire Access + Refresh, signée RS256
func (j *JWTProvider) GenerateTokens(user *domain.User) (string, string, error) {
	now := j.now()

	access, err := j.sign(UserClaims{
		Email:            user.Email,
		Username:         user.Username,
		TokenType:        tokenTypeAccess,
		RegisteredClaims: j.registered(user.ID, now, j.accessExpiry),
	})
	if err != nil {
		return "", "", err
	}

	// Le refresh ne sert qu'à identifier l'user
	refresh, err := j.sign(UserClaims{
		TokenType:        tokenTypeRefresh,
		RegisteredClaims: j.registered(user.ID, now, j.refreshExpiry),
	})
	if err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func (j *JWTProvider) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   subject,
	}
}

func (j *JWTProvider) sign(claims UserClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(j.privateKey)
}

// Validate vérifie signature + expiration et retourne l'UserID (Subject).
// Seul un access token est accepté.
func (j *JWTProvider) Validate(tokenString string) (string, error) {
	claims := &UserClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return j.publicKey, nil },
		// Refuse "none" / HS256 forgés avec la clé publique
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return "", err
	}

	if claims.TokenType != tokenTypeAccess {
		return "", ErrWrongTokenType
	}
	if claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}
