package walletclient

import "fmt"

// Chain describes the EVM chain a client is bound to.
type Chain struct {
	ID   int64
	Name string
	RPC  string
}

// Well-known chains.
//
//nolint:gochecknoglobals // read-only chain descriptors
var (
	Mainnet = Chain{ID: 1, Name: "mainnet", RPC: "https://ethereum-rpc.publicnode.com"}
	Base    = Chain{ID: 8453, Name: "base", RPC: "https://mainnet.base.org"}
)

// HexID returns the chain id in eth_chainId form.
func (c Chain) HexID() string {
	return fmt.Sprintf("0x%x", c.ID)
}

func (c Chain) String() string {
	if c.Name == "" {
		return fmt.Sprintf("chain %d", c.ID)
	}
	return fmt.Sprintf("%s (%d)", c.Name, c.ID)
}
