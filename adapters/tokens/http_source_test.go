package tokens

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/w3o/core"
)

func TestHTTPSourceFetchTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"symbol":"TLOS","name":"Telos","address":"eosio.token","decimals":4,"system":true},
			{"symbol":"USDT","name":"Tether","address":"tokens.swaps","decimals":6}
		]`))
	}))
	defer srv.Close()

	tokens, err := NewHTTPSource(nil).FetchTokens(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, core.Token{Symbol: "TLOS", Name: "Telos", Address: "eosio.token", Decimals: 4, System: true}, tokens[0])
	assert.Equal(t, int32(6), tokens[1].Decimals)
}

func TestHTTPSourceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			_, _ = w.Write([]byte(`{"not":"a list"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client())
	_, err := src.FetchTokens(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "unexpected status")

	_, err = src.FetchTokens(context.Background(), srv.URL+"/bad")
	assert.ErrorContains(t, err, "decode")
}

func TestStaticSource(t *testing.T) {
	src := StaticSource{{Symbol: "ETH", Decimals: 18}}
	tokens, err := src.FetchTokens(context.Background(), "ignored")
	require.NoError(t, err)
	tokens[0].Symbol = "changed"
	assert.Equal(t, "ETH", src[0].Symbol)
}
