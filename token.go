package w3o

import (
	"context"
	"fmt"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// TokenList is the token list of one network, fetched from a remote url.
type TokenList struct {
	source ports.TokenSource
	url    string
	tokens *State[[]core.Token]
}

// NewTokenList returns an empty list loading from url through source.
// A nil source leaves the list empty on Load.
func NewTokenList(source ports.TokenSource, url string) *TokenList {
	return &TokenList{source: source, url: url, tokens: NewState[[]core.Token](nil)}
}

// Load fetches the list and replaces the held tokens.
func (l *TokenList) Load(ctx context.Context) ([]core.Token, error) {
	if l.source == nil || l.url == "" {
		return l.List(), nil
	}
	tokens, err := l.source.FetchTokens(ctx, l.url)
	if err != nil {
		return nil, fmt.Errorf("fetch tokens from %s: %w", l.url, err)
	}
	l.tokens.Set(tokens)
	return tokens, nil
}

// Set replaces the held tokens.
func (l *TokenList) Set(tokens []core.Token) {
	l.tokens.Set(append([]core.Token(nil), tokens...))
}

// List returns a copy of the held tokens.
func (l *TokenList) List() []core.Token {
	return append([]core.Token(nil), l.tokens.Get()...)
}

// BySymbol returns every token with symbol.
func (l *TokenList) BySymbol(symbol string) []core.Token {
	var out []core.Token
	for _, t := range l.tokens.Get() {
		if t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// ByAddress returns every token deployed at address.
func (l *TokenList) ByAddress(address string) []core.Token {
	var out []core.Token
	for _, t := range l.tokens.Get() {
		if t.Address == address {
			out = append(out, t)
		}
	}
	return out
}

// Get looks a token up by symbol first, then by address.
func (l *TokenList) Get(symbolOrAddress string) (core.Token, bool) {
	if bySymbol := l.BySymbol(symbolOrAddress); len(bySymbol) > 0 {
		return bySymbol[0], true
	}
	if byAddress := l.ByAddress(symbolOrAddress); len(byAddress) > 0 {
		return byAddress[0], true
	}
	return core.Token{}, false
}

// System returns the system token of the network, if the list marks one.
func (l *TokenList) System() (core.Token, bool) {
	for _, t := range l.tokens.Get() {
		if t.System {
			return t, true
		}
	}
	return core.Token{}, false
}

// Subscribe streams the token list, starting with the current one.
func (l *TokenList) Subscribe(ctx context.Context) <-chan []core.Token {
	return l.tokens.Subscribe(ctx)
}

// Snapshot implements Snapshotter.
func (l *TokenList) Snapshot() any {
	return map[string]any{"url": l.url, "tokens": l.List()}
}
