package ports

import "github.com/layer-3/w3o/core"

// HandleTokenizer converts between wallet handles and opaque tokens
type HandleTokenizer interface {
	HandleToToken(handle *core.WalletHandle) (string, error)
	TokenToHandle(token string) (*core.WalletHandle, error)
}
