// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package effect

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/nigdaemon/truffle/genealogy"
)

// ErrAborted is returned inside a routine when the driver declines to resume
// a suspended effect. Resolution has no recovery path from it; the whole run
// unwinds.
var ErrAborted = errors.New("effect routine aborted")

// Routine is a cooperatively-suspending resolution computation. It performs no
// I/O itself; every external interaction goes through the Effector, which
// suspends the routine until the driver supplies a result.
type Routine func(e *Effector) error

type response struct {
	result interface{}
	err    error
}

// Request is one pending effect emitted by a suspended routine. Payload is one
// of RelationQuery, PersistRequest or BlockLookup.
type Request struct {
	Payload interface{}
	resume  chan response
}

// Effector is the routine's side of the effect contract. At most one effect is
// in flight at any time; nesting one routine inside another linearizes their
// suspension points in call order because they share the Effector.
type Effector struct {
	ctx      context.Context
	requests chan<- *Request
	aborted  <-chan struct{}
}

// Context returns the context the coroutine was started with.
func (e *Effector) Context() context.Context {
	return e.ctx
}

func (e *Effector) suspend(payload interface{}) (interface{}, error) {
	req := &Request{Payload: payload, resume: make(chan response, 1)}
	select {
	case e.requests <- req:
	case <-e.aborted:
		return nil, ErrAborted
	case <-e.ctx.Done():
		return nil, errors.Wrap(ErrAborted, e.ctx.Err().Error())
	}
	select {
	case res := <-req.resume:
		return res.result, res.err
	case <-e.aborted:
		return nil, ErrAborted
	case <-e.ctx.Done():
		return nil, errors.Wrap(ErrAborted, e.ctx.Err().Error())
	}
}

// QueryRelation suspends on a store relation query.
func (e *Effector) QueryRelation(query RelationQuery) (CandidateBatch, error) {
	res, err := e.suspend(query)
	if err != nil {
		return CandidateBatch{}, err
	}
	return res.(CandidateBatch), nil
}

// Persist suspends on a store persist of the given links.
func (e *Effector) Persist(request PersistRequest) ([]LinkID, error) {
	res, err := e.suspend(request)
	if err != nil {
		return nil, err
	}
	return res.([]LinkID), nil
}

// LookupBlock suspends on a chain lookup for the block at the given height.
// A nil block means the height is unknown to the chain.
func (e *Effector) LookupBlock(lookup BlockLookup) (*genealogy.HistoricBlock, error) {
	res, err := e.suspend(lookup)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.(*genealogy.HistoricBlock), nil
}

// Coroutine runs a Routine on its own goroutine and exposes its suspension
// points one at a time. Drivers consume it either directly (tests step effect
// by effect) or through Run.
type Coroutine struct {
	requests  chan *Request
	aborted   chan struct{}
	finished  chan struct{}
	abortOnce sync.Once

	result error
}

// Start launches the routine. The routine suspends on its first effect
// immediately; nothing is executed until Next is called.
func Start(ctx context.Context, routine Routine) *Coroutine {
	c := &Coroutine{
		requests: make(chan *Request),
		aborted:  make(chan struct{}),
		finished: make(chan struct{}),
	}
	e := &Effector{ctx: ctx, requests: c.requests, aborted: c.aborted}
	go func() {
		defer close(c.finished)
		c.result = routine(e)
	}()
	return c
}

// Next blocks until the routine suspends on its next effect or completes.
// Returns (nil, false) on completion; the routine's result is then available
// through Wait.
func (c *Coroutine) Next() (*Request, bool) {
	select {
	case req := <-c.requests:
		return req, true
	case <-c.finished:
		return nil, false
	}
}

// Resume supplies the result of a pending effect and lets the routine proceed
// to its next suspension point.
func (c *Coroutine) Resume(req *Request, result interface{}, err error) {
	req.resume <- response{result: result, err: err}
}

// Abort declines to resume the routine. Any pending or future suspension fails
// with ErrAborted. Safe to call more than once and after completion.
func (c *Coroutine) Abort() {
	c.abortOnce.Do(func() {
		close(c.aborted)
	})
}

// Wait blocks until the routine completes and returns its result.
func (c *Coroutine) Wait() error {
	<-c.finished
	return c.result
}

// Run drives the routine to completion against the driver, executing effects
// strictly one at a time in the order the routine emits them. Context
// cancellation is observed at suspension points only and aborts the run.
func Run(ctx context.Context, routine Routine, driver Driver) error {
	c := Start(ctx, routine)
	defer c.Abort()

	for {
		req, ok := c.Next()
		if !ok {
			return c.Wait()
		}
		if err := ctx.Err(); err != nil {
			c.Abort()
			return errors.Wrap(err, "resolution aborted")
		}
		result, err := execute(ctx, driver, req.Payload)
		c.Resume(req, result, err)
	}
}

func execute(ctx context.Context, driver Driver, payload interface{}) (interface{}, error) {
	switch p := payload.(type) {
	case RelationQuery:
		return driver.QueryRelation(ctx, p)
	case PersistRequest:
		return driver.Persist(ctx, p)
	case BlockLookup:
		block, err := driver.LookupBlock(ctx, p)
		if block == nil {
			return nil, err
		}
		return block, err
	default:
		return nil, errors.Errorf("unknown effect payload %T", payload)
	}
}
