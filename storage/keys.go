// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package storage

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/nigdaemon/truffle/genealogy"
)

// Key layout: one scope byte, then the scope-specific id. The height index
// orders networks of one chain by block height so relation queries are a
// single directional scan.
const (
	scopeNetwork     = 0x01
	scopeHeightIndex = 0x02
	scopeLink        = 0x03
)

func networkKey(id genealogy.NetworkID) []byte {
	return append([]byte{scopeNetwork}, id...)
}

// heightIndexPrefix is the shared prefix of every index entry of one chain.
// The chain id is length-prefixed to keep chains with common id prefixes
// apart.
func heightIndexPrefix(chainID genealogy.ChainID) []byte {
	key := make([]byte, 0, 2+len(chainID))
	key = append(key, scopeHeightIndex, byte(len(chainID)))
	return append(key, chainID...)
}

// heightIndexBoundary sorts strictly below every index entry at the given
// height and strictly above every entry below it.
func heightIndexBoundary(chainID genealogy.ChainID, height uint64) []byte {
	key := heightIndexPrefix(chainID)
	var h [8]byte
	binary.BigEndian.PutUint64(h[:], height)
	return append(key, h[:]...)
}

func heightIndexKey(chainID genealogy.ChainID, height uint64, id genealogy.NetworkID) []byte {
	return append(heightIndexBoundary(chainID, height), id...)
}

func linkKey(id uuid.UUID) []byte {
	return append([]byte{scopeLink}, id[:]...)
}
