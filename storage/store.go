// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

// Package storage is the durable genealogy store. It keeps known networks,
// a per-chain height index for relation queries, and persisted links.
package storage

import (
	"context"

	"github.com/dgraph-io/badger"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/nigdaemon/truffle/configuration"
	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/genealogy/effect"
	"github.com/nigdaemon/truffle/instrumentation/inslogger"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is a badger-backed store implementation. It owns all consistency
// concerns for concurrent writers; the resolution core never sees them.
type Store struct {
	cfg configuration.Storage

	db             *badger.DB
	candidateLimit int
}

// NewStore creates an unopened store. Init opens it.
func NewStore(cfg configuration.Storage) *Store {
	return &Store{cfg: cfg}
}

// Init implements component.Initer, opening badger in the configured data
// directory.
func (s *Store) Init(ctx context.Context) error {
	opts := badger.DefaultOptions(s.cfg.DataDirectory)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return errors.Wrapf(err, "failed to open badger in %s", s.cfg.DataDirectory)
	}
	s.db = db
	s.candidateLimit = s.cfg.CandidateLimit
	if s.candidateLimit <= 0 {
		s.candidateLimit = configuration.NewStorage().CandidateLimit
	}
	inslogger.FromContext(ctx).Debug().Str("dir", s.cfg.DataDirectory).Msg("genealogy store opened")
	return nil
}

// Stop implements component.Stopper, releasing the underlying badger instance.
func (s *Store) Stop(ctx context.Context) error {
	return s.db.Close()
}

// AddNetwork registers a known network and indexes it for relation queries.
// Re-adding an existing id overwrites the record.
func (s *Store) AddNetwork(ctx context.Context, network genealogy.Network) error {
	if network.ID.IsEmpty() {
		return errors.New("network id must not be empty")
	}
	if len(network.ChainID) > 255 {
		return errors.Errorf("chain id is too long: %d", len(network.ChainID))
	}
	encoded, err := json.Marshal(network)
	if err != nil {
		return errors.Wrap(err, "failed to encode network")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(networkKey(network.ID), encoded); err != nil {
			return err
		}
		return txn.Set(heightIndexKey(network.ChainID, network.Block.Height, network.ID), encoded)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to store network %s", network.ID)
	}

	inslogger.FromContext(ctx).Debug().
		Str("network", string(network.ID)).
		Uint64("height", network.Block.Height).
		Msg("network registered")
	return nil
}

// Network returns a known network by id.
func (s *Store) Network(ctx context.Context, id genealogy.NetworkID) (genealogy.Network, error) {
	var network genealogy.Network
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(networkKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &network)
		})
	})
	if err != nil {
		return genealogy.Network{}, errors.Wrapf(err, "failed to read network %s", id)
	}
	return network, nil
}

// QueryRelation returns known networks possibly related to the anchor,
// nearest first: strictly below the anchor's height in descending order for
// the ancestor direction, strictly above in ascending order for the
// descendant direction. Networks in the query's exclusion set and the anchor
// itself are never offered. The returned AlreadyTried is the exclusion set
// grown by everything offered in this batch.
func (s *Store) QueryRelation(ctx context.Context, query effect.RelationQuery) (effect.CandidateBatch, error) {
	excluded := make(map[genealogy.NetworkID]struct{}, len(query.Exclude)+1)
	for _, id := range query.Exclude {
		excluded[id] = struct{}{}
	}
	excluded[query.Anchor.ID] = struct{}{}

	var candidates []genealogy.Network
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := heightIndexPrefix(query.Anchor.ChainID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = query.Direction == effect.DirectionAncestor
		it := txn.NewIterator(opts)
		defer it.Close()

		var seek []byte
		if query.Direction == effect.DirectionAncestor {
			// reverse seek lands on the largest key strictly below the
			// anchor's height boundary
			seek = heightIndexBoundary(query.Anchor.ChainID, query.Anchor.Block.Height)
		} else {
			seek = heightIndexBoundary(query.Anchor.ChainID, query.Anchor.Block.Height+1)
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if len(candidates) >= s.candidateLimit {
				break
			}
			var network genealogy.Network
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &network)
			})
			if err != nil {
				return err
			}
			if _, ok := excluded[network.ID]; ok {
				continue
			}
			candidates = append(candidates, network)
		}
		return nil
	})
	if err != nil {
		return effect.CandidateBatch{}, errors.Wrapf(err, "failed to query %s candidates for %s",
			query.Direction, query.Anchor.ID)
	}

	alreadyTried := make([]genealogy.NetworkID, 0, len(query.Exclude)+len(candidates))
	alreadyTried = append(alreadyTried, query.Exclude...)
	for _, c := range candidates {
		alreadyTried = append(alreadyTried, c.ID)
	}

	inslogger.FromContext(ctx).Debug().
		Str("anchor", string(query.Anchor.ID)).
		Str("direction", query.Direction.String()).
		Int("candidates", len(candidates)).
		Msg("relation query served")
	return effect.CandidateBatch{Networks: candidates, AlreadyTried: alreadyTried}, nil
}

// PersistLinks stores the links and returns one assigned id per link, in the
// order they were submitted. Links are never deduplicated here.
func (s *Store) PersistLinks(ctx context.Context, request effect.PersistRequest) ([]effect.LinkID, error) {
	ids := make([]effect.LinkID, 0, len(request.Links))
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, link := range request.Links {
			if link.Ancestor == link.Descendant {
				return errors.Errorf("refusing self link for network %s", link.Ancestor)
			}
			id := uuid.New()
			encoded, err := json.Marshal(link)
			if err != nil {
				return errors.Wrap(err, "failed to encode link")
			}
			if err := txn.Set(linkKey(id), encoded); err != nil {
				return err
			}
			ids = append(ids, effect.LinkID(id.String()))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist genealogy links")
	}

	inslogger.FromContext(ctx).Debug().Int("links", len(ids)).Msg("links persisted")
	return ids, nil
}

// Link returns a persisted link by id.
func (s *Store) Link(ctx context.Context, id effect.LinkID) (genealogy.Link, error) {
	parsed, err := uuid.Parse(string(id))
	if err != nil {
		return genealogy.Link{}, errors.Wrapf(err, "malformed link id %s", id)
	}
	var link genealogy.Link
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(linkKey(parsed))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &link)
		})
	})
	if err != nil {
		return genealogy.Link{}, errors.Wrapf(err, "failed to read link %s", id)
	}
	return link, nil
}
