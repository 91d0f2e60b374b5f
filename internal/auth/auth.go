// Package auth issues and verifies the session tokens handed out on login.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// RoleEmployee is the single access role carried by session tokens. The
// directory has no admin tier, every authenticated employee holds this role.
const RoleEmployee = "employee"

var (
	ErrForbidden    = errors.New("attempted action is not allowed")
	ErrKIDMissing   = errors.New("kid missing from token header")
	ErrKIDMalformed = errors.New("kid in token header is malformed")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

type keyLoader interface {
	PrivateKey(kid string) (*rsa.PrivateKey, error)
	PublicKey(kid string) (*rsa.PublicKey, error)
}

type Auth struct {
	keyLoader     keyLoader
	signingMethod jwt.SigningMethod
	parser        *jwt.Parser
	issuer        string
}

func New(loader keyLoader, issuer string) *Auth {
	return &Auth{
		keyLoader:     loader,
		signingMethod: jwt.GetSigningMethod(jwt.SigningMethodRS256.Name),
		parser:        jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name})),
		issuer:        issuer,
	}
}

func (a *Auth) GenerateToken(kid string, c Claims) (string, error) {
	t := jwt.NewWithClaims(a.signingMethod, c)

	t.Header["kid"] = kid

	privateKey, err := a.keyLoader.PrivateKey(kid)
	if err != nil {
		return "", fmt.Errorf("privateKey: %w", err)
	}

	token, err := t.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("signedString: %w", err)
	}

	return token, nil
}

func (a *Auth) VerifyToken(ctx context.Context, bearer string) (Claims, error) {
	//expected format "Bearer <TOKEN>"
	if !strings.HasPrefix(bearer, "Bearer ") {
		return Claims{}, errors.New("expected authorization header format: Bearer <token>")
	}

	token := bearer[7:]

	var claims Claims
	verifiedToken, err := a.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		k, ok := t.Header["kid"]
		if !ok {
			return nil, ErrKIDMissing
		}

		kid, ok := k.(string)
		if !ok {
			return nil, ErrKIDMalformed
		}

		pub, err := a.keyLoader.PublicKey(kid)
		if err != nil {
			return nil, fmt.Errorf("fetching public key for kid[%s]: %w", kid, err)
		}

		return pub, nil
	})

	if err != nil {
		return Claims{}, fmt.Errorf("parseWithClaims: %w", err)
	}

	if !verifiedToken.Valid {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (a *Auth) Authorized(c Claims, roleSet map[string]struct{}) error {
	for _, role := range c.Roles {
		_, ok := roleSet[role]
		if ok {
			return nil
		}
	}

	return ErrForbidden
}
