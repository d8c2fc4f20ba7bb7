package ports

import (
	"context"

	"github.com/layer-3/w3o/core"
)

// ContractFetcher loads contract metadata from a chain. It returns a nil
// contract and no error when nothing is deployed at address.
type ContractFetcher interface {
	FetchContract(ctx context.Context, address string) (*core.Contract, error)
}
