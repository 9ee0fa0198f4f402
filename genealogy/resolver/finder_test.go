// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package resolver_test

import (
	"context"
	"testing"

	"github.com/gojuno/minimock/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/genealogy/effect"
	"github.com/nigdaemon/truffle/genealogy/resolver"
	"github.com/nigdaemon/truffle/testutils/gen"
)

const testChain = genealogy.ChainID("1")

// findRelation runs the search against the scripted driver.
func findRelation(t *testing.T, driver *effect.DriverMock, anchor genealogy.Network, dir effect.Direction) (*genealogy.Network, error) {
	var found *genealogy.Network
	err := effect.Run(context.Background(), func(e *effect.Effector) error {
		var err error
		found, err = resolver.FindRelation(e, anchor, dir)
		return err
	}, driver)
	return found, err
}

// confirming is a chain script confirming exactly the given networks.
func confirming(confirmed ...genealogy.Network) func(context.Context, effect.BlockLookup) (*genealogy.HistoricBlock, error) {
	return func(_ context.Context, lookup effect.BlockLookup) (*genealogy.HistoricBlock, error) {
		for _, network := range confirmed {
			if network.Block.Height == lookup.Height {
				block := network.Block
				return &block, nil
			}
		}
		return nil, nil
	}
}

func TestFindRelation_FirstConfirmedCandidateWins(t *testing.T) {
	anchor := gen.Network(testChain, 10)
	atFive := gen.Network(testChain, 5)
	atThree := gen.Network(testChain, 3)

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		require.Empty(t, query.Exclude)
		return effect.CandidateBatch{
			Networks:     []genealogy.Network{atFive, atThree},
			AlreadyTried: []genealogy.NetworkID{atFive.ID, atThree.ID},
		}, nil
	}
	driver.LookupBlockFunc = confirming(atThree)

	found, err := findRelation(t, driver, anchor, effect.DirectionAncestor)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, atThree.ID, found.ID)

	// the unconfirmed first candidate was still looked up, in store order
	assert.Equal(t, []uint64{5, 3}, driver.Lookups())
}

func TestFindRelation_StopsAtFirstConfirmed(t *testing.T) {
	anchor := gen.Network(testChain, 100)
	first := gen.Network(testChain, 90)
	second := gen.Network(testChain, 80)
	third := gen.Network(testChain, 70)

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		return effect.CandidateBatch{
			Networks:     []genealogy.Network{first, second, third},
			AlreadyTried: []genealogy.NetworkID{first.ID, second.ID, third.ID},
		}, nil
	}
	driver.LookupBlockFunc = confirming(second)

	found, err := findRelation(t, driver, anchor, effect.DirectionAncestor)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, second.ID, found.ID)

	// the third candidate is never checked
	assert.Equal(t, []uint64{90, 80}, driver.Lookups())
}

func TestFindRelation_EmptyBatchEndsSearchWithoutLookups(t *testing.T) {
	anchor := gen.Network(testChain, 10)

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		return effect.CandidateBatch{AlreadyTried: query.Exclude}, nil
	}

	found, err := findRelation(t, driver, anchor, effect.DirectionDescendant)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.Empty(t, driver.Lookups())
}

func TestFindRelation_ThreadsAlreadyTriedAcrossBatches(t *testing.T) {
	anchor := gen.Network(testChain, 50)
	stale := gen.Network(testChain, 40)
	older := gen.Network(testChain, 30)

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		switch len(query.Exclude) {
		case 0:
			return effect.CandidateBatch{
				Networks:     []genealogy.Network{stale},
				AlreadyTried: []genealogy.NetworkID{stale.ID},
			}, nil
		case 1:
			require.Equal(t, []genealogy.NetworkID{stale.ID}, query.Exclude)
			return effect.CandidateBatch{
				Networks:     []genealogy.Network{older},
				AlreadyTried: []genealogy.NetworkID{stale.ID, older.ID},
			}, nil
		default:
			return effect.CandidateBatch{AlreadyTried: query.Exclude}, nil
		}
	}
	driver.LookupBlockFunc = confirming(older)

	found, err := findRelation(t, driver, anchor, effect.DirectionAncestor)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, older.ID, found.ID)

	queries := driver.Queries()
	require.Len(t, queries, 2)

	// the exclusion set never shrinks
	assert.Empty(t, queries[0].Exclude)
	assert.Equal(t, []genealogy.NetworkID{stale.ID}, queries[1].Exclude)
}

func TestFindRelation_TerminatesWhenAllCandidatesExhausted(t *testing.T) {
	anchor := gen.Network(testChain, 50)
	stale := gen.Network(testChain, 40)

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		if len(query.Exclude) == 0 {
			return effect.CandidateBatch{
				Networks:     []genealogy.Network{stale},
				AlreadyTried: []genealogy.NetworkID{stale.ID},
			}, nil
		}
		return effect.CandidateBatch{AlreadyTried: query.Exclude}, nil
	}
	driver.LookupBlockFunc = confirming()

	found, err := findRelation(t, driver, anchor, effect.DirectionAncestor)
	require.NoError(t, err)
	assert.Nil(t, found)
	require.Len(t, driver.Queries(), 2)
}

func TestFindRelation_StoreFailureIsFatal(t *testing.T) {
	anchor := gen.Network(testChain, 10)

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		return effect.CandidateBatch{}, errors.New("store query failed")
	}

	found, err := findRelation(t, driver, anchor, effect.DirectionAncestor)
	require.Error(t, err)
	assert.Nil(t, found)
	assert.Contains(t, err.Error(), "store query failed")
	assert.Empty(t, driver.Lookups())
}

func TestFindRelation_LookupFailureSkipsCandidate(t *testing.T) {
	anchor := gen.Network(testChain, 20)
	flaky := gen.Network(testChain, 15)
	solid := gen.Network(testChain, 10)

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		return effect.CandidateBatch{
			Networks:     []genealogy.Network{flaky, solid},
			AlreadyTried: []genealogy.NetworkID{flaky.ID, solid.ID},
		}, nil
	}
	driver.LookupBlockFunc = func(ctx context.Context, lookup effect.BlockLookup) (*genealogy.HistoricBlock, error) {
		if lookup.Height == flaky.Block.Height {
			return nil, errors.New("rpc timeout")
		}
		return confirming(solid)(ctx, lookup)
	}

	found, err := findRelation(t, driver, anchor, effect.DirectionAncestor)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, solid.ID, found.ID)
	assert.Equal(t, []uint64{15, 10}, driver.Lookups())
}

func TestFindRelation_HashMismatchIsNotAMatch(t *testing.T) {
	anchor := gen.Network(testChain, 20)
	candidate := gen.Network(testChain, 10)
	forked := candidate.Block
	forked.Hash = gen.BlockHash()

	driver := effect.NewDriverMock(minimock.NewController(t))
	driver.QueryRelationFunc = func(_ context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
		if len(query.Exclude) > 0 {
			return effect.CandidateBatch{AlreadyTried: query.Exclude}, nil
		}
		return effect.CandidateBatch{
			Networks:     []genealogy.Network{candidate},
			AlreadyTried: []genealogy.NetworkID{candidate.ID},
		}, nil
	}
	driver.LookupBlockFunc = func(_ context.Context, lookup effect.BlockLookup) (*genealogy.HistoricBlock, error) {
		return &forked, nil
	}

	found, err := findRelation(t, driver, anchor, effect.DirectionAncestor)
	require.NoError(t, err)
	assert.Nil(t, found)
}
