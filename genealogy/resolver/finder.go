// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package resolver

import (
	"github.com/pkg/errors"

	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/genealogy/effect"
	"github.com/nigdaemon/truffle/instrumentation/inslogger"
)

// FindRelation searches for the closest previously-recorded network related to
// the anchor in the given direction, confirmed against live chain data.
//
// Each store batch is verified strictly in the order the store returned it:
// the block at a candidate's recorded height is looked up and the candidate is
// confirmed only on an exact hash match. The first confirmed candidate wins
// and later candidates in the batch are never checked. An unconfirmed
// non-empty batch grows the exclusion set and queries again; an empty batch
// ends the search with no relation found, which is not an error.
//
// A failed store query terminates the whole search with an error.
func FindRelation(e *effect.Effector, anchor genealogy.Network, dir effect.Direction) (*genealogy.Network, error) {
	logger := inslogger.FromContext(e.Context())

	var alreadyTried []genealogy.NetworkID
	for {
		batch, err := e.QueryRelation(effect.RelationQuery{
			Direction: dir,
			Anchor:    anchor,
			Exclude:   alreadyTried,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to query possible %s networks", dir)
		}
		if len(batch.Networks) == 0 {
			logger.Debug().
				Str("anchor", string(anchor.ID)).
				Str("direction", dir.String()).
				Msg("no relation found")
			return nil, nil
		}

		for i := range batch.Networks {
			candidate := batch.Networks[i]
			confirmed, err := confirmCandidate(e, candidate)
			if err != nil {
				return nil, err
			}
			if confirmed {
				return &candidate, nil
			}
		}

		alreadyTried = batch.AlreadyTried
	}
}

// confirmCandidate checks the candidate's recorded block against the chain.
// A lookup failure or an unknown height counts as "not a match", never as a
// failure of the search.
func confirmCandidate(e *effect.Effector, candidate genealogy.Network) (bool, error) {
	block, err := e.LookupBlock(effect.BlockLookup{
		Height:           candidate.Block.Height,
		FullTransactions: false,
	})
	switch {
	case err != nil && errors.Cause(err) == effect.ErrAborted:
		return false, err
	case err != nil:
		inslogger.FromContext(e.Context()).Warn().
			Err(err).
			Str("candidate", string(candidate.ID)).
			Uint64("height", candidate.Block.Height).
			Msg("chain lookup failed, skipping candidate")
		return false, nil
	case block == nil:
		return false, nil
	default:
		return block.Hash == candidate.Block.Hash, nil
	}
}
