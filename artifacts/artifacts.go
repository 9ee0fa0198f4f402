// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

// Package artifacts reads deployment artifacts from disk and projects the
// per-chain network observations the resolver consumes.
package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/instrumentation/inslogger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Artifact is one compiled-contract artifact file. Only the deployment
// records matter here; the rest of the file is ignored.
type Artifact struct {
	ContractName string                           `json:"contractName"`
	Networks     map[genealogy.ChainID]Deployment `json:"networks"`

	Path string `json:"-"`
}

// Deployment is one recorded deployment of an artifact onto one chain.
type Deployment struct {
	Address         string         `json:"address"`
	TransactionHash string         `json:"transactionHash"`
	Block           *BlockRecord   `json:"block"`
	Network         *NetworkRecord `json:"network"`
}

// BlockRecord is the block the deployment was observed at.
type BlockRecord struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

// NetworkRecord references the network the deployment belongs to.
type NetworkRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Observations projects the artifact's deployments into per-chain
// observations. Deployments without a block or network record are kept as
// invalid observations; the collector drops them.
func (a Artifact) Observations() genealogy.ObservationSet {
	set := make(genealogy.ObservationSet, len(a.Networks))
	for chainID, d := range a.Networks {
		observation := genealogy.ArtifactObservation{}
		if d.Block != nil {
			observation.Block = &genealogy.HistoricBlock{
				Hash:   genealogy.BlockHash(d.Block.Hash),
				Height: d.Block.Height,
			}
		}
		if d.Network != nil {
			observation.Network = &genealogy.Network{
				ID:      genealogy.NetworkID(d.Network.ID),
				Name:    d.Network.Name,
				ChainID: chainID,
			}
			if observation.Block != nil {
				observation.Network.Block = *observation.Block
			}
		}
		set[chainID] = observation
	}
	return set
}

// LoadDirectory reads every *.json artifact in dir, non-recursively.
// Malformed files are skipped with a warning instead of failing the batch.
func LoadDirectory(ctx context.Context, dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read artifact directory %s", dir)
	}

	logger := inslogger.FromContext(ctx)
	var loaded []Artifact
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		artifact, err := LoadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("skipping malformed artifact")
			continue
		}
		loaded = append(loaded, artifact)
	}

	logger.Debug().Int("artifacts", len(loaded)).Str("dir", dir).Msg("artifacts loaded")
	return loaded, nil
}

// LoadFile reads one artifact file.
func LoadFile(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, errors.Wrapf(err, "failed to read artifact %s", path)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return Artifact{}, errors.Wrapf(err, "failed to decode artifact %s", path)
	}
	artifact.Path = path
	return artifact, nil
}

// ObservationSets projects a batch of artifacts for the resolver.
func ObservationSets(loaded []Artifact) []genealogy.ObservationSet {
	sets := make([]genealogy.ObservationSet, 0, len(loaded))
	for _, a := range loaded {
		sets = append(sets, a.Observations())
	}
	return sets
}
