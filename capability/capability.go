/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package capability issues and verifies admin tokens.
//
// A token is an HS256 JWT naming the group and the admin. The group record
// stores only the token id, so a token minted for one group, or one whose
// id was never recorded, does not grant anything.
package capability

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "secretsanta"

var ErrInvalidToken = errors.New("invalid capability token")

// Claims carried by an admin token.
type Claims struct {
	Group string `json:"grp"`
	jwt.RegisteredClaims
}

type Authority struct {
	secret []byte
	now    func() time.Time
}

// New returns an Authority signing with secret. The secret must be at
// least 32 bytes.
func New(secret []byte) (*Authority, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("capability secret must be at least 32 bytes, got %d", len(secret))
	}

	return &Authority{secret: secret, now: time.Now}, nil
}

// Issue mints an admin token for admin of group code. The returned id must
// be stored with the group.
func (a *Authority) Issue(code, admin string) (token, id string, err error) {
	id = uuid.NewString()

	claims := Claims{
		Group: code,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  admin,
			ID:       id,
			IssuedAt: jwt.NewNumericDate(a.now()),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, id, nil
}

// Verify checks the signature and that the token was issued for code.
func (a *Authority) Verify(token, code string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Group != code {
		return nil, fmt.Errorf("%w: issued for another group", ErrInvalidToken)
	}

	return claims, nil
}

// Grants reports whether token is the recorded admin token of a group.
func (a *Authority) Grants(token, code, admin, tokenID string) bool {
	claims, err := a.Verify(token, code)
	if err != nil {
		return false
	}

	return tokenID != "" &&
		claims.ID == tokenID &&
		strings.EqualFold(claims.Subject, admin)
}
