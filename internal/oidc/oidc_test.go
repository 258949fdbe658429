package oidc

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
	"github.com/stretchr/testify/require"
)

// fakeIssuer serves discovery and JWKS documents for a single RSA key.
func fakeIssuer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                srv.URL,
			"jwks_uri":                              srv.URL + "/keys",
			"authorization_endpoint":                srv.URL + "/auth",
			"token_endpoint":                        srv.URL + "/token",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "k1",
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "k1"
	raw, err := tok.SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := fakeIssuer(t, key)

	ctx := context.Background()
	v, err := NewVerifier(ctx, srv.URL, "tutor-frontend")
	require.NoError(t, err)

	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":   srv.URL,
			"aud":   "tutor-frontend",
			"sub":   "kc-1",
			"email": "a@x.io",
			"iat":   time.Now().Unix(),
			"exp":   time.Now().Add(time.Minute).Unix(),
		}
	}

	tok, err := v.Verify(ctx, sign(t, key, base()))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "a@x.io", claims["email"])

	wrongAud := base()
	wrongAud["aud"] = "someone-else"
	_, err = v.Verify(ctx, sign(t, key, wrongAud))
	require.Error(t, err)

	expired := base()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	_, err = v.Verify(ctx, sign(t, key, expired))
	require.Error(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.Verify(ctx, sign(t, other, base()))
	require.Error(t, err)
}

func TestNewVerifier_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := NewVerifier(context.Background(), srv.URL, "c")
	require.Error(t, err)
}
