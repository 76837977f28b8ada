package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
)

var fastParams = &Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestArgon2HashAndCompare(t *testing.T) {
	h := NewArgon2Hasher(fastParams)

	hash, err := h.Hash("correct-horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=1024,t=1,p=1$")

	assert.NoError(t, h.Compare(hash, "correct-horse"))
	assert.ErrorIs(t, h.Compare(hash, "battery-staple"), ErrPasswordMismatch)

	other, err := h.Hash("correct-horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ")
}

func TestArgon2CompareUsesStoredParams(t *testing.T) {
	hash, err := NewArgon2Hasher(fastParams).Hash("pw-12345")
	require.NoError(t, err)

	// Un hasher configuré autrement doit encore valider les anciens hash
	assert.NoError(t, NewArgon2Hasher(&Argon2Params{Memory: 2048, Iterations: 2, Parallelism: 1, SaltLength: 8, KeyLength: 16}).Compare(hash, "pw-12345"))
}

func TestArgon2RejectsGarbage(t *testing.T) {
	h := NewArgon2Hasher(fastParams)
	assert.ErrorIs(t, h.Compare("plain", "x"), ErrInvalidHash)
	assert.ErrorIs(t, h.Compare("$bcrypt$v=19$m=1,t=1,p=1$AAAA$AAAA", "x"), ErrInvalidHash)
}

func rsaPEM(t *testing.T) ([]byte, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	priv := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return priv, pub
}

func TestJWTRoundTrip(t *testing.T) {
	priv, pub := rsaPEM(t)
	p, err := NewJWTProvider(priv, pub)
	require.NoError(t, err)

	user := &domain.User{ID: "u-1", Email: "a@example.com", Username: "alice"}
	access, refresh, err := p.GenerateTokens(user)
	require.NoError(t, err)

	id, err := p.Validate(access)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	_, err = p.Validate(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	assert.Equal(t, 15*time.Minute, p.AccessExpiry())
}

func TestJWTExpired(t *testing.T) {
	priv, pub := rsaPEM(t)
	p, err := NewJWTProvider(priv, pub)
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	p.now = func() time.Time { return issued }
	access, _, err := p.GenerateTokens(&domain.User{ID: "u-1"})
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.Validate(access)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTRejectsOtherKeysAndHMAC(t *testing.T) {
	priv, pub := rsaPEM(t)
	p, err := NewJWTProvider(priv, pub)
	require.NoError(t, err)

	otherPriv, otherPub := rsaPEM(t)
	other, err := NewJWTProvider(otherPriv, otherPub)
	require.NoError(t, err)
	forged, _, err := other.GenerateTokens(&domain.User{ID: "u-1"})
	require.NoError(t, err)
	_, err = p.Validate(forged)
	assert.Error(t, err)

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, UserClaims{
		TokenType:        tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: issuer},
	}).SignedString(pub)
	require.NoError(t, err)
	_, err = p.Validate(hmac)
	assert.Error(t, err)
}

func TestNewJWTProviderFromFiles(t *testing.T) {
	priv, pub := rsaPEM(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private.pem"), priv, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.pem"), pub, 0o644))

	_, err := NewJWTProviderFromFiles(filepath.Join(dir, "private.pem"), filepath.Join(dir, "public.pem"))
	assert.NoError(t, err)

	_, err = NewJWTProviderFromFiles(filepath.Join(dir, "missing.pem"), filepath.Join(dir, "public.pem"))
	assert.Error(t, err)
}
