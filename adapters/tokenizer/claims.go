package tokenizer

import "github.com/golang-jwt/jwt/v5"

// HandleClaims combines standard claims with wallet-handle ones
type HandleClaims struct {
	jwt.RegisteredClaims
	Authenticator string `json:"auth"` // Name of the issuing auth support
	Network       string `json:"net"`  // Network the account logged in to
}
