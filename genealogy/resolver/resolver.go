// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

// Package resolver turns deployment observations into persisted genealogy
// links. Resolution is a suspending routine: every store query, chain lookup
// and persist goes through the effect contract and is executed by an external
// driver, strictly one at a time.
package resolver

import (
	"github.com/pkg/errors"

	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/genealogy/effect"
	"github.com/nigdaemon/truffle/instrumentation/inslogger"
)

// Resolve builds the genealogy for one chain out of the artifact observations
// and submits it for persistence.
//
// The collected chain is extended on both ends: once towards an earlier
// previously-known network and once towards a later one, each confirmed
// against live chain data. When nothing valid was observed the whole run is a
// no-op and no persist effect is issued. The returned ids are the store's,
// one per submitted link; callers may discard them.
//
// All observations for the chain are assumed to share one consistent history;
// the caller owns that precondition and a violation yields an incorrect but
// undetected genealogy.
func Resolve(e *effect.Effector, chainID genealogy.ChainID, observed []genealogy.ObservationSet) ([]effect.LinkID, error) {
	logger := inslogger.FromContext(e.Context())

	observations := make([]genealogy.ArtifactObservation, 0, len(observed))
	for _, set := range observed {
		if o, ok := set[chainID]; ok {
			observations = append(observations, o)
		}
	}

	chain, ok := genealogy.CollectChain(observations)
	if !ok {
		logger.Debug().Str("chain", string(chainID)).Msg("no networks observed")
		return nil, nil
	}

	links := chain.Links

	ancestor, err := FindRelation(e, chain.Ancestor, effect.DirectionAncestor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve ancestor relation")
	}
	if ancestor != nil {
		links = append(links, genealogy.Link{
			Ancestor:   ancestor.ID,
			Descendant: chain.Ancestor.ID,
		})
	}

	descendant, err := FindRelation(e, chain.Descendant, effect.DirectionDescendant)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve descendant relation")
	}
	if descendant != nil {
		links = append(links, genealogy.Link{
			Ancestor:   chain.Descendant.ID,
			Descendant: descendant.ID,
		})
	}

	ids, err := e.Persist(effect.PersistRequest{Links: links})
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist genealogy links")
	}
	logger.Info().
		Str("chain", string(chainID)).
		Int("links", len(ids)).
		Msg("genealogy resolved")
	return ids, nil
}
