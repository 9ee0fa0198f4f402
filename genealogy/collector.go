// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package genealogy

import (
	"sort"
)

// CollectChain turns an unordered batch of observations for one chain into a
// linear ancestor->descendant chain. All observations are assumed to belong to
// a single consistent chain history; the caller owns that precondition.
//
// Invalid observations are dropped. The rest are stable-sorted by the observed
// block height, so observations at equal heights keep their input order. The
// returned links are strictly the adjacent pairs of the sorted sequence, never
// the pairwise closure. Returns ok=false when nothing valid was observed.
func CollectChain(observations []ArtifactObservation) (Chain, bool) {
	valid := make([]ArtifactObservation, 0, len(observations))
	for _, o := range observations {
		if o.isValid() {
			valid = append(valid, o)
		}
	}
	if len(valid) == 0 {
		return Chain{}, false
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Block.Height < valid[j].Block.Height
	})

	chain := Chain{
		Ancestor:   *valid[0].Network,
		Descendant: *valid[len(valid)-1].Network,
	}
	for i := 1; i < len(valid); i++ {
		ancestor := valid[i-1].Network
		descendant := valid[i].Network
		if ancestor.ID == descendant.ID {
			// same network observed twice, not a link
			continue
		}
		chain.Links = append(chain.Links, Link{
			Ancestor:   ancestor.ID,
			Descendant: descendant.ID,
		})
	}
	return chain, true
}
