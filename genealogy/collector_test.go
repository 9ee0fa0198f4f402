// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package genealogy_test

import (
	"math/rand"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/testutils/gen"
)

const testChain = genealogy.ChainID("1")

func TestCollectChain_OrdersByHeight(t *testing.T) {
	a := gen.Observation(testChain, 10)
	b := gen.Observation(testChain, 20)
	c := gen.Observation(testChain, 15)

	chain, ok := genealogy.CollectChain([]genealogy.ArtifactObservation{a, b, c})
	require.True(t, ok)

	assert.Equal(t, a.Network.ID, chain.Ancestor.ID)
	assert.Equal(t, b.Network.ID, chain.Descendant.ID)
	require.Equal(t, []genealogy.Link{
		{Ancestor: a.Network.ID, Descendant: c.Network.ID},
		{Ancestor: c.Network.ID, Descendant: b.Network.ID},
	}, chain.Links)
}

func TestCollectChain_Singleton(t *testing.T) {
	only := gen.Observation(testChain, 42)

	chain, ok := genealogy.CollectChain([]genealogy.ArtifactObservation{only})
	require.True(t, ok)

	assert.Equal(t, chain.Ancestor, chain.Descendant)
	assert.Empty(t, chain.Links)
}

func TestCollectChain_NoValidObservations(t *testing.T) {
	network := gen.Network(testChain, 7)
	block := network.Block

	for _, tc := range []struct {
		name         string
		observations []genealogy.ArtifactObservation
	}{
		{name: "empty", observations: nil},
		{name: "missing block", observations: []genealogy.ArtifactObservation{
			{Network: &network},
		}},
		{name: "missing network", observations: []genealogy.ArtifactObservation{
			{Block: &block},
		}},
		{name: "empty network id", observations: []genealogy.ArtifactObservation{
			{Block: &block, Network: &genealogy.Network{}},
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := genealogy.CollectChain(tc.observations)
			assert.False(t, ok)
		})
	}
}

func TestCollectChain_InvalidObservationsDropped(t *testing.T) {
	a := gen.Observation(testChain, 5)
	b := gen.Observation(testChain, 9)
	invalid := genealogy.ArtifactObservation{Block: a.Block}

	chain, ok := genealogy.CollectChain([]genealogy.ArtifactObservation{invalid, b, a})
	require.True(t, ok)
	assert.Equal(t, a.Network.ID, chain.Ancestor.ID)
	assert.Equal(t, b.Network.ID, chain.Descendant.ID)
	assert.Len(t, chain.Links, 1)
}

func TestCollectChain_StableOnEqualHeights(t *testing.T) {
	first := gen.Observation(testChain, 10)
	second := gen.Observation(testChain, 10)
	third := gen.Observation(testChain, 10)

	chain, ok := genealogy.CollectChain([]genealogy.ArtifactObservation{first, second, third})
	require.True(t, ok)

	assert.Equal(t, first.Network.ID, chain.Ancestor.ID)
	assert.Equal(t, third.Network.ID, chain.Descendant.ID)
	require.Equal(t, []genealogy.Link{
		{Ancestor: first.Network.ID, Descendant: second.Network.ID},
		{Ancestor: second.Network.ID, Descendant: third.Network.ID},
	}, chain.Links)
}

func TestCollectChain_RepeatedNetworkNeverSelfLinks(t *testing.T) {
	a := gen.Observation(testChain, 3)
	b := gen.Observation(testChain, 8)
	aAgain := genealogy.ArtifactObservation{Block: a.Block, Network: a.Network}

	chain, ok := genealogy.CollectChain([]genealogy.ArtifactObservation{b, a, aAgain})
	require.True(t, ok)
	require.Equal(t, []genealogy.Link{
		{Ancestor: a.Network.ID, Descendant: b.Network.ID},
	}, chain.Links)
}

func TestCollectChain_AdjacentPairsOnly(t *testing.T) {
	f := fuzz.New().NilChance(0)

	for round := 0; round < 32; round++ {
		var size uint8
		f.Fuzz(&size)
		count := int(size%16) + 2

		heightOf := make(map[genealogy.NetworkID]uint64, count)
		observations := make([]genealogy.ArtifactObservation, 0, count)
		for i := 0; i < count; i++ {
			var height uint64
			f.Fuzz(&height)
			height %= 1 << 40
			o := gen.Observation(testChain, height)
			heightOf[o.Network.ID] = height
			observations = append(observations, o)
		}
		rand.Shuffle(len(observations), func(i, j int) {
			observations[i], observations[j] = observations[j], observations[i]
		})

		chain, ok := genealogy.CollectChain(observations)
		require.True(t, ok)
		require.Len(t, chain.Links, count-1)

		for _, link := range chain.Links {
			assert.NotEqual(t, link.Ancestor, link.Descendant)
			assert.LessOrEqual(t, heightOf[link.Ancestor], heightOf[link.Descendant])
		}
	}
}
