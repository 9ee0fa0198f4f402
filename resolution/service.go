// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

// Package resolution wires the genealogy core to its live collaborators: the
// badger store, the chain RPC client and the resolution event bus.
package resolution

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/insolar/component-manager"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/nigdaemon/truffle/artifacts"
	"github.com/nigdaemon/truffle/chain"
	"github.com/nigdaemon/truffle/configuration"
	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/genealogy/effect"
	"github.com/nigdaemon/truffle/genealogy/resolver"
	"github.com/nigdaemon/truffle/instrumentation/inslogger"
	"github.com/nigdaemon/truffle/instrumentation/inslogger/logwatermill"
	"github.com/nigdaemon/truffle/storage"
)

// TopicResolved receives one message per successfully-persisted resolution run.
const TopicResolved = "genealogy.resolved"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ResolvedEvent is the payload published to TopicResolved.
type ResolvedEvent struct {
	ChainID genealogy.ChainID `json:"chainId"`
	LinkIDs []effect.LinkID   `json:"linkIds"`
}

// Service owns the lifecycle of the resolution collaborators and runs
// resolutions against them.
type Service struct {
	cfg configuration.Configuration
	cm  *component.Manager

	store  *storage.Store
	client *chain.Client
	pubsub *gochannel.GoChannel
}

// NewService assembles an uninitialized service; Init brings it up.
func NewService(ctx context.Context, cfg configuration.Configuration) *Service {
	s := &Service{
		cfg:    cfg,
		cm:     component.NewManager(nil),
		store:  storage.NewStore(cfg.Storage),
		client: chain.NewClient(cfg.Chain),
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{},
			logwatermill.NewWatermillLogAdapter(inslogger.FromContext(ctx)),
		),
	}
	s.cm.Inject(s.store, s.client)
	return s
}

// Init implements component.Initer.
func (s *Service) Init(ctx context.Context) error {
	return errors.Wrap(s.cm.Init(ctx), "failed to init resolution components")
}

// Stop implements component.Stopper.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.pubsub.Close(); err != nil {
		inslogger.FromContext(ctx).Warn().Err(err).Msg("failed to close event bus")
	}
	return errors.Wrap(s.cm.Stop(ctx), "failed to stop resolution components")
}

// Store exposes the durable store for bootstrap commands.
func (s *Service) Store() *storage.Store {
	return s.store
}

// Subscribe returns the stream of resolution events.
func (s *Service) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return s.pubsub.Subscribe(ctx, TopicResolved)
}

// ResolveChain loads the configured artifacts, registers the networks they
// observe, resolves the genealogy of the given chain and persists it. The
// resulting link ids are returned and also published to TopicResolved.
func (s *Service) ResolveChain(ctx context.Context, chainID genealogy.ChainID) ([]effect.LinkID, error) {
	loaded, err := artifacts.LoadDirectory(ctx, s.cfg.Artifacts.Directory)
	if err != nil {
		return nil, err
	}
	sets := artifacts.ObservationSets(loaded)

	if err := s.registerObserved(ctx, chainID, sets); err != nil {
		return nil, err
	}

	var ids []effect.LinkID
	err = effect.Run(ctx, func(e *effect.Effector) error {
		var err error
		ids, err = resolver.Resolve(e, chainID, sets)
		return err
	}, Driver{Store: s.store, Chain: s.client})
	if err != nil {
		return nil, err
	}

	if err := s.publishResolved(ctx, chainID, ids); err != nil {
		inslogger.FromContext(ctx).Warn().Err(err).Msg("failed to publish resolution event")
	}
	return ids, nil
}

// registerObserved makes the networks seen in this batch known to the store,
// so later runs can offer them as relation candidates. Observations without a
// block hash are skipped; they could never be confirmed against the chain.
func (s *Service) registerObserved(ctx context.Context, chainID genealogy.ChainID, sets []genealogy.ObservationSet) error {
	for _, set := range sets {
		o, ok := set[chainID]
		if !ok || o.Network == nil || o.Network.ID.IsEmpty() {
			continue
		}
		if o.Block == nil || o.Block.Hash.IsEmpty() {
			continue
		}
		if err := s.store.AddNetwork(ctx, *o.Network); err != nil {
			return errors.Wrapf(err, "failed to register network %s", o.Network.ID)
		}
	}
	return nil
}

func (s *Service) publishResolved(ctx context.Context, chainID genealogy.ChainID, ids []effect.LinkID) error {
	payload, err := json.Marshal(ResolvedEvent{ChainID: chainID, LinkIDs: ids})
	if err != nil {
		return errors.Wrap(err, "failed to encode resolution event")
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.pubsub.Publish(TopicResolved, msg)
}
