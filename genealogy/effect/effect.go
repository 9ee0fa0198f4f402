// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package effect

import (
	"context"

	"github.com/nigdaemon/truffle/genealogy"
)

// Direction selects which way along chain history a relation search walks.
type Direction uint8

const (
	DirectionAncestor Direction = iota
	DirectionDescendant
)

func (d Direction) String() string {
	switch d {
	case DirectionAncestor:
		return "ancestor"
	case DirectionDescendant:
		return "descendant"
	default:
		return "unknown"
	}
}

// LinkID identifies one persisted genealogy link.
type LinkID string

// RelationQuery asks the store for networks possibly related to the anchor,
// walking in the given direction. Networks listed in Exclude were offered
// before and must not be offered again.
type RelationQuery struct {
	Direction Direction
	Anchor    genealogy.Network
	Exclude   []genealogy.NetworkID
}

// CandidateBatch is the store's reply to a RelationQuery. Networks are ordered
// by the store; callers must consume them in that order. AlreadyTried is the
// grown exclusion set to be threaded verbatim into the next query.
type CandidateBatch struct {
	Networks     []genealogy.Network
	AlreadyTried []genealogy.NetworkID
}

// PersistRequest submits resolved links for durable storage.
type PersistRequest struct {
	Links []genealogy.Link
}

// BlockLookup asks the chain for the block at the given height.
// FullTransactions is always false for genealogy resolution; it is carried
// because the chain protocol has it.
type BlockLookup struct {
	Height           uint64
	FullTransactions bool
}

// Driver executes effects on behalf of a suspended routine. Implementations
// are handed one effect at a time and never see two in flight from one run.
type Driver interface {
	// QueryRelation returns candidate networks possibly related to the anchor.
	QueryRelation(ctx context.Context, query RelationQuery) (CandidateBatch, error)
	// Persist stores the links and returns one assigned id per link, in order.
	Persist(ctx context.Context, request PersistRequest) ([]LinkID, error)
	// LookupBlock returns the chain's block at the requested height, or nil
	// when the height is unknown to the chain.
	LookupBlock(ctx context.Context, lookup BlockLookup) (*genealogy.HistoricBlock, error)
}
