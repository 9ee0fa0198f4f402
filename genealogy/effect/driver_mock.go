// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package effect

import (
	"context"

	"github.com/gojuno/minimock/v3"

	"github.com/nigdaemon/truffle/genealogy"
)

// DriverMock is a scriptable Driver for tests. Every executed effect payload
// is recorded in Effects in execution order, so ordering contracts can be
// asserted. Calling an effect without a script set fails the test.
type DriverMock struct {
	t minimock.Tester

	QueryRelationFunc func(ctx context.Context, query RelationQuery) (CandidateBatch, error)
	PersistFunc       func(ctx context.Context, request PersistRequest) ([]LinkID, error)
	LookupBlockFunc   func(ctx context.Context, lookup BlockLookup) (*genealogy.HistoricBlock, error)

	Effects []interface{}
}

func NewDriverMock(t minimock.Tester) *DriverMock {
	return &DriverMock{t: t}
}

func (m *DriverMock) QueryRelation(ctx context.Context, query RelationQuery) (CandidateBatch, error) {
	m.Effects = append(m.Effects, query)
	if m.QueryRelationFunc == nil {
		m.t.Fatalf("unexpected QueryRelation effect: %v", query)
		return CandidateBatch{}, nil
	}
	return m.QueryRelationFunc(ctx, query)
}

func (m *DriverMock) Persist(ctx context.Context, request PersistRequest) ([]LinkID, error) {
	m.Effects = append(m.Effects, request)
	if m.PersistFunc == nil {
		m.t.Fatalf("unexpected Persist effect: %v", request)
		return nil, nil
	}
	return m.PersistFunc(ctx, request)
}

func (m *DriverMock) LookupBlock(ctx context.Context, lookup BlockLookup) (*genealogy.HistoricBlock, error) {
	m.Effects = append(m.Effects, lookup)
	if m.LookupBlockFunc == nil {
		m.t.Fatalf("unexpected BlockLookup effect: %v", lookup)
		return nil, nil
	}
	return m.LookupBlockFunc(ctx, lookup)
}

// Lookups returns the heights of all executed block lookups, in order.
func (m *DriverMock) Lookups() []uint64 {
	var heights []uint64
	for _, e := range m.Effects {
		if lookup, ok := e.(BlockLookup); ok {
			heights = append(heights, lookup.Height)
		}
	}
	return heights
}

// Queries returns all executed relation queries, in order.
func (m *DriverMock) Queries() []RelationQuery {
	var queries []RelationQuery
	for _, e := range m.Effects {
		if q, ok := e.(RelationQuery); ok {
			queries = append(queries, q)
		}
	}
	return queries
}

// Persists returns all executed persist requests, in order.
func (m *DriverMock) Persists() []PersistRequest {
	var persists []PersistRequest
	for _, e := range m.Effects {
		if p, ok := e.(PersistRequest); ok {
			persists = append(persists, p)
		}
	}
	return persists
}
