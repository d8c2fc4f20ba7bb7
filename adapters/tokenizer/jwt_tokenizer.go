package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// AudienceHandle is the audience of every wallet-handle token
const AudienceHandle = "w3o:wallet-handle"

// JWTTokenizer implements the HandleTokenizer interface using ES256 JWTs
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	issuer  string
}

var _ ports.HandleTokenizer = (*JWTTokenizer)(nil)

// NewJWTTokenizer creates a new JWT tokenizer signing as issuer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, issuer string) *JWTTokenizer {
	return &JWTTokenizer{signKey: signKey, issuer: issuer}
}

// HandleToToken converts a WalletHandle to a JWT token
func (j *JWTTokenizer) HandleToToken(handle *core.WalletHandle) (string, error) {
	if handle == nil || handle.ID == "" || handle.Address == "" {
		return "", core.ErrInvalidHandle
	}

	claims := HandleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   j.issuer,
			Subject:  string(handle.Address),
			ID:       handle.ID,
			IssuedAt: jwt.NewNumericDate(handle.IssuedAt),
			Audience: jwt.ClaimStrings{AudienceHandle},
		},
		Authenticator: handle.Authenticator,
		Network:       handle.Network,
	}
	if !handle.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(handle.ExpiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign handle token: %w", err)
	}

	return signedToken, nil
}

// TokenToHandle converts a JWT token back to a WalletHandle
func (j *JWTTokenizer) TokenToHandle(tokenStr string) (*core.WalletHandle, error) {
	opts := []jwt.ParserOption{jwt.WithAudience(AudienceHandle), jwt.WithIssuedAt()}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &HandleClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, opts...)

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, core.ErrHandleExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidHandle, err)
	}

	// Validate token
	if !token.Valid {
		return nil, core.ErrInvalidHandle
	}

	// Extract claims
	claims, ok := token.Claims.(*HandleClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", core.ErrInvalidHandle)
	}

	handle := &core.WalletHandle{
		ID:            claims.ID,
		Address:       core.Address(claims.Subject),
		Authenticator: claims.Authenticator,
		Network:       claims.Network,
	}
	if claims.IssuedAt != nil {
		handle.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		handle.ExpiresAt = claims.ExpiresAt.Time
	}

	return handle, nil
}
