package ports

import (
	"context"

	"github.com/layer-3/w3o/core"
)

// TokenSource fetches the token list published at url
type TokenSource interface {
	FetchTokens(ctx context.Context, url string) ([]core.Token, error)
}
