// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package resolution

import (
	"context"

	"github.com/nigdaemon/truffle/chain"
	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/genealogy/effect"
	"github.com/nigdaemon/truffle/storage"
)

// Driver executes resolution effects against the live store and chain.
// Effects arrive strictly one at a time; nothing here runs concurrently.
type Driver struct {
	Store *storage.Store
	Chain *chain.Client
}

var _ effect.Driver = Driver{}

func (d Driver) QueryRelation(ctx context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
	return d.Store.QueryRelation(ctx, query)
}

func (d Driver) Persist(ctx context.Context, request effect.PersistRequest) ([]effect.LinkID, error) {
	return d.Store.PersistLinks(ctx, request)
}

func (d Driver) LookupBlock(ctx context.Context, lookup effect.BlockLookup) (*genealogy.HistoricBlock, error) {
	return d.Chain.LookupBlock(ctx, lookup)
}
