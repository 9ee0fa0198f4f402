// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package gen

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	fuzz "github.com/google/gofuzz"

	"github.com/nigdaemon/truffle/genealogy"
)

var uniqueSeq uint32

func getUnique() uint32 {
	return atomic.AddUint32(&uniqueSeq, 1)
}

// BlockHash generates a random block hash in canonical 0x-hex form.
func BlockHash() genealogy.BlockHash {
	var digest [32]byte
	f := fuzz.New().NilChance(0)
	f.Fuzz(&digest)
	return genealogy.BlockHash("0x" + hex.EncodeToString(digest[:]))
}

// Network generates a network with a unique id, anchored on the given chain
// at the given height with a random block hash.
func Network(chainID genealogy.ChainID, height uint64) genealogy.Network {
	seq := getUnique()
	return genealogy.Network{
		ID:      genealogy.NetworkID(fmt.Sprintf("network-%d", seq)),
		Name:    fmt.Sprintf("net%d", seq),
		ChainID: chainID,
		Block: genealogy.HistoricBlock{
			Hash:   BlockHash(),
			Height: height,
		},
	}
}

// Observation generates a valid observation of a fresh network at the given
// height.
func Observation(chainID genealogy.ChainID, height uint64) genealogy.ArtifactObservation {
	network := Network(chainID, height)
	block := network.Block
	return genealogy.ArtifactObservation{
		Block:   &block,
		Network: &network,
	}
}
