package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTokenAuthenticator(t *testing.T) {
	Convey("Given a token authenticator", t, func() {
		a := NewTokenAuthenticator("s3cret")
		ctx := context.Background()

		Convey("When the exact secret is presented", func() {
			grant, ok := a.Authenticate(ctx, "s3cret")

			Convey("Then a wildcard grant without expiry is issued", func() {
				So(ok, ShouldBeTrue)
				So(grant.Subject, ShouldEqual, ClientID)
				So(grant.Scopes, ShouldResemble, []string{"*"})
				So(grant.ExpiresAt, ShouldBeNil)
				So(grant.HasScope("job_finder"), ShouldBeTrue)
			})
		})

		Convey("When anything else is presented", func() {
			for _, candidate := range []string{
				"", "s3cre", "s3cret ", " s3cret", "S3CRET", "s3cret\n", "s3crets",
			} {
				grant, ok := a.Authenticate(ctx, candidate)
				So(ok, ShouldBeFalse)
				So(grant, ShouldBeNil)
			}
		})
	})

	Convey("Given an empty secret", t, func() {
		a := NewTokenAuthenticator("")

		Convey("Then nothing authenticates, not even the empty string", func() {
			_, ok := a.Authenticate(context.Background(), "")
			So(ok, ShouldBeFalse)
		})
	})
}

func signToken(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	return signed
}

func TestJWTAuthenticator(t *testing.T) {
	Convey("Given a JWT authenticator", t, func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		So(err, ShouldBeNil)

		a := NewJWTAuthenticator(&key.PublicKey, "jobfinder", "")
		ctx := context.Background()
		expires := time.Now().Add(time.Hour).Truncate(time.Second)

		Convey("When a valid token is presented", func() {
			token := signToken(t, key, jwt.SigningMethodRS256, scopedClaims{
				Scope: "job_finder validate",
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "user-1",
					Issuer:    "jobfinder",
					ExpiresAt: jwt.NewNumericDate(expires),
				},
			})

			grant, ok := a.Authenticate(ctx, token)

			Convey("Then the grant mirrors the claims", func() {
				So(ok, ShouldBeTrue)
				So(grant.Subject, ShouldEqual, "user-1")
				So(grant.Scopes, ShouldResemble, []string{"job_finder", "validate"})
				So(grant.ExpiresAt.Equal(expires), ShouldBeTrue)
				So(grant.HasScope("make_img_black_and_white"), ShouldBeFalse)
			})
		})

		Convey("When the token has expired", func() {
			token := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
				Issuer:    "jobfinder",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			})

			_, ok := a.Authenticate(ctx, token)
			So(ok, ShouldBeFalse)
		})

		Convey("When the issuer is wrong", func() {
			token := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(expires),
			})

			_, ok := a.Authenticate(ctx, token)
			So(ok, ShouldBeFalse)
		})

		Convey("When the token is signed by another key", func() {
			other, err := rsa.GenerateKey(rand.Reader, 2048)
			So(err, ShouldBeNil)

			token := signToken(t, other, jwt.SigningMethodRS256, jwt.RegisteredClaims{
				Issuer:    "jobfinder",
				ExpiresAt: jwt.NewNumericDate(expires),
			})

			_, ok := a.Authenticate(ctx, token)
			So(ok, ShouldBeFalse)
		})

		Convey("When the token is garbage", func() {
			_, ok := a.Authenticate(ctx, "not-a-jwt")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestLoadPublicKey(t *testing.T) {
	Convey("Given a PEM encoded public key on disk", t, func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		So(err, ShouldBeNil)

		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		So(err, ShouldBeNil)

		path := filepath.Join(t.TempDir(), "key.pem")
		So(os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600), ShouldBeNil)

		Convey("Then it loads", func() {
			loaded, err := LoadPublicKey(path)
			So(err, ShouldBeNil)
			So(loaded.Equal(&key.PublicKey), ShouldBeTrue)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := LoadPublicKey(filepath.Join(t.TempDir(), "missing.pem"))
		So(err, ShouldNotBeNil)
	})
}
