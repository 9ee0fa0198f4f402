// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

// Package chain looks up live chain data over JSON-RPC.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/nigdaemon/truffle/configuration"
	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/genealogy/effect"
)

// Client resolves block lookups against a chain node.
type Client struct {
	cfg configuration.Chain
	rpc *ethclient.Client
}

// NewClient creates an undialed client. Init dials.
func NewClient(cfg configuration.Chain) *Client {
	return &Client{cfg: cfg}
}

// Init implements component.Initer, dialing the configured RPC endpoint.
func (c *Client) Init(ctx context.Context) error {
	rpc, err := ethclient.DialContext(ctx, c.cfg.RPCURL)
	if err != nil {
		return errors.Wrapf(err, "failed to dial %s", c.cfg.RPCURL)
	}
	c.rpc = rpc
	return nil
}

// LookupBlock returns the block at the requested height, or nil when the
// height is unknown to the chain. Genealogy resolution never needs
// transaction bodies, so only the header is fetched.
func (c *Client) LookupBlock(ctx context.Context, lookup effect.BlockLookup) (*genealogy.HistoricBlock, error) {
	height := new(big.Int).SetUint64(lookup.Height)
	header, err := c.rpc.HeaderByNumber(ctx, height)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch header at height %d", lookup.Height)
	}
	return &genealogy.HistoricBlock{
		Hash:   genealogy.BlockHash(header.Hash().Hex()),
		Height: header.Number.Uint64(),
	}, nil
}

// Stop implements component.Stopper, releasing the RPC connection.
func (c *Client) Stop(ctx context.Context) error {
	c.rpc.Close()
	return nil
}
