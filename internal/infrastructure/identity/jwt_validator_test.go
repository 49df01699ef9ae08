package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/eventboard/internal/config"
	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/infrastructure/identity"
)

const (
	testKeyID    = "test-key-id"
	testIssuer   = "https://accounts.example.com"
	testAudience = "eventboard-client"
)

func jwksServer(t *testing.T, key *rsa.PublicKey) *httptest.Server {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"sub":   "1234",
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func TestJWTValidator_JWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	server := jwksServer(t, &key.PublicKey)

	v, err := identity.NewJWTValidator(config.AuthConfig{
		Issuer:   testIssuer,
		JWKSURL:  server.URL,
		Audience: testAudience,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	claims, err := v.Validate(context.Background(), signRS256(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "1234", claims.Subject)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.False(t, claims.ExpiresAt.IsZero())

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.Validate(context.Background(), signRS256(t, other, validClaims()))
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestNewJWTValidator_RequiresURL(t *testing.T) {
	_, err := identity.NewJWTValidator(config.AuthConfig{}, nil)
	require.ErrorIs(t, err, identity.ErrJWKSFetchFailed)
}

func TestJWTValidator_Rejections(t *testing.T) {
	secret := []byte("test-secret")
	kf := func(*jwt.Token) (any, error) { return secret, nil }
	v := identity.NewJWTValidatorWithKeyfunc(config.AuthConfig{Issuer: testIssuer, Audience: testAudience}, kf, nil)

	sign := func(claims jwt.MapClaims) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		return signed
	}

	tests := []struct {
		name    string
		token   func() string
		wantErr error
	}{
		{name: "empty token", token: func() string { return "" }, wantErr: identity.ErrInvalidToken},
		{name: "garbage", token: func() string { return "not.a.jwt" }, wantErr: identity.ErrInvalidToken},
		{
			name: "expired",
			token: func() string {
				c := validClaims()
				c["iat"] = time.Now().Add(-2 * time.Hour).Unix()
				c["exp"] = time.Now().Add(-time.Hour).Unix()
				return sign(c)
			},
			wantErr: identity.ErrTokenExpired,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := validClaims()
				c["iss"] = "https://evil.example"
				return sign(c)
			},
			wantErr: identity.ErrInvalidToken,
		},
		{
			name: "wrong audience",
			token: func() string {
				c := validClaims()
				c["aud"] = "someone-else"
				return sign(c)
			},
			wantErr: identity.ErrInvalidToken,
		},
		{
			name: "no subject",
			token: func() string {
				c := validClaims()
				delete(c, "sub")
				return sign(c)
			},
			wantErr: identity.ErrMissingSubject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.token())
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}
