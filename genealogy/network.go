// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package genealogy

// NetworkID identifies one recorded network in the durable store.
type NetworkID string

func (id NetworkID) IsEmpty() bool {
	return id == ""
}

// ChainID is the chain identifier shared by every network recorded on one chain.
type ChainID string

// BlockHash is an opaque block digest, carried in its canonical 0x-hex form.
// Hashes are compared for exact equality and never interpreted.
type BlockHash string

func (h BlockHash) IsEmpty() bool {
	return h == ""
}

// HistoricBlock is one recorded point on a chain's history.
type HistoricBlock struct {
	Hash   BlockHash
	Height uint64
}

// Network is a recorded observation of a chain's state, anchored at a historic block.
type Network struct {
	ID      NetworkID
	Name    string
	ChainID ChainID
	Block   HistoricBlock
}

// Link is a directed ancestor->descendant relationship between two networks.
// A link never relates a network to itself.
type Link struct {
	Ancestor   NetworkID
	Descendant NetworkID
}

// ArtifactObservation is the per-artifact record of a deployment onto one chain.
// Observations missing the block or the network reference are invalid and
// get dropped by the collector.
type ArtifactObservation struct {
	Block   *HistoricBlock
	Network *Network
}

func (o ArtifactObservation) isValid() bool {
	return o.Block != nil && o.Network != nil && !o.Network.ID.IsEmpty()
}

// ObservationSet holds one artifact's observations, keyed by the chain the
// deployment was observed on. An artifact carries at most one observation per
// chain.
type ObservationSet map[ChainID]ArtifactObservation

// Chain is the linear ancestry resolved from one batch of observations.
// Ancestor and Descendant are equal when exactly one network was observed.
type Chain struct {
	Ancestor   Network
	Descendant Network
	Links      []Link
}
