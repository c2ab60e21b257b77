// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package confirmer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/messagebus"
)

// message broadcast when a key has drained
const (
	SettledCommand = "settled"
)

// Configuration - confirmer settings
type Configuration struct {
	DefaultTimeout time.Duration // zero: calls without a timeout wait forever
}

// Confirmer - the set of confirmation channels
type Confirmer struct {
	sync.Mutex
	log            *logger.L
	ctx            context.Context
	cancel         context.CancelFunc
	defaultTimeout time.Duration
	bus            *messagebus.BroadcastQueue
	channels       map[string]*channel
	closed         bool
	active         sync.WaitGroup
}

// New - create a confirmer
func New(configuration Configuration) (*Confirmer, error) {
	if configuration.DefaultTimeout < 0 {
		return nil, fault.ErrInvalidDuration
	}

	log := logger.New("confirmer")
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Confirmer{
		log:            log,
		ctx:            ctx,
		cancel:         cancel,
		defaultTimeout: configuration.DefaultTimeout,
		channels:       make(map[string]*channel),
	}, nil
}

// SetBus - broadcast settled keys on this queue
func (c *Confirmer) SetBus(bus *messagebus.BroadcastQueue) {
	c.Lock()
	c.bus = bus
	c.Unlock()
}

// RequestConfirmation - queue a confirmation call for key
//
// selector and timeout are optional (nil and zero)
func (c *Confirmer) RequestConfirmation(key string, confirm ConfirmFunc, onSuccess SuccessFunc, onFailure FailureFunc, selector SelectorFunc, timeout time.Duration) error {
	return c.Request(Request{
		Key:            key,
		Confirm:        confirm,
		OnSuccess:      onSuccess,
		OnFailure:      onFailure,
		ResultSelector: selector,
		Timeout:        timeout,
	})
}

// Request - queue a confirmation call
func (c *Confirmer) Request(r Request) error {
	if "" == r.Key {
		return fault.ErrMissingKey
	}
	if nil == r.Confirm {
		return fault.ErrMissingConfirm
	}
	if r.Timeout < 0 {
		return fault.ErrInvalidDuration
	}

	c.Lock()
	defer c.Unlock()

	if c.closed {
		return fault.ErrConfirmerClosed
	}

	ch, ok := c.channels[r.Key]
	if !ok {
		ch = newChannel(r.Key)
		c.channels[r.Key] = ch
		c.active.Add(1)
		go c.run(ch)
		c.log.Debugf("key: %s  new channel", r.Key)
	}

	if n := ch.push(&r); n > 0 {
		c.log.Debugf("key: %s  operation: %q  squashed: %d", r.Key, r.Options.OperationId, n)
	}
	return nil
}

// IsConfirming - true while key has queued or running calls
func (c *Confirmer) IsConfirming(key string) bool {
	c.Lock()
	_, ok := c.channels[key]
	c.Unlock()
	return ok
}

// Pending - number of waiting and running calls for key
func (c *Confirmer) Pending(key string) int {
	c.Lock()
	ch, ok := c.channels[key]
	c.Unlock()
	if !ok {
		return 0
	}
	return ch.pending()
}

// Keys - the keys currently confirming
func (c *Confirmer) Keys() []string {
	c.Lock()
	keys := make([]string, 0, len(c.channels))
	for k := range c.channels {
		keys = append(keys, k)
	}
	c.Unlock()

	sort.Strings(keys)
	return keys
}

// Done - closed once key has no more calls
//
// a key that is not confirming returns an already closed channel
func (c *Confirmer) Done(key string) <-chan struct{} {
	c.Lock()
	defer c.Unlock()

	if ch, ok := c.channels[key]; ok {
		return ch.done
	}
	done := make(chan struct{})
	close(done)
	return done
}

// Close - refuse new calls and wait for every key to drain
//
// if ctx expires first the context passed to running confirm functions is
// cancelled and fault.ErrShutdownTimeout returned
func (c *Confirmer) Close(ctx context.Context) error {
	c.Lock()
	c.closed = true
	c.Unlock()

	finished := make(chan struct{})
	go func() {
		c.active.Wait()
		close(finished)
	}()

	defer c.cancel()

	select {
	case <-finished:
		c.log.Info("closed")
		return nil
	case <-ctx.Done():
		c.log.Warnf("close: keys still confirming: %v", c.Keys())
		return fault.ErrShutdownTimeout
	}
}

// the actor of one key
func (c *Confirmer) run(ch *channel) {
	defer c.active.Done()

	for {
		batch, last := ch.next()
		if nil == batch {
			if held := ch.release(); nil != held {
				for _, h := range held {
					c.succeed(ch.key, h.callback, h.value)
				}
				continue
			}
			if c.deregister(ch) {
				return
			}
			continue
		}

		c.runBatch(ch, batch, last)
	}
}

// remove an empty channel, false if a call arrived meanwhile
func (c *Confirmer) deregister(ch *channel) bool {
	c.Lock()
	ch.Lock()
	empty := 0 == len(ch.queue) && 0 == len(ch.held)
	if empty {
		delete(c.channels, ch.key)
	}
	ch.Unlock()
	bus := c.bus
	c.Unlock()

	if !empty {
		return false
	}

	close(ch.done)
	bus.Send(SettledCommand, ch.key, ch.lastResult)
	c.log.Debugf("key: %s  settled", ch.key)
	return true
}

// run a batch, callbacks fire in submission order
func (c *Confirmer) runBatch(ch *channel, batch []*Request, last interface{}) {
	outcomes := make([]outcome, len(batch))

	if 1 == len(batch) {
		outcomes[0] = c.execute(batch[0], last)
	} else {
		c.log.Debugf("key: %s  operation: %q  parallel: %d", ch.key, batch[0].Options.OperationId, len(batch))
		var wg sync.WaitGroup
		for i, r := range batch {
			wg.Add(1)
			go func(i int, r *Request) {
				defer wg.Done()
				outcomes[i] = c.execute(r, last)
			}(i, r)
		}
		wg.Wait()
	}

	ch.finish(outcomes[len(outcomes)-1].last())

	for i, r := range batch {
		o := outcomes[i]
		if nil != o.failure {
			c.log.Warnf("key: %s  confirmation failed: %s", ch.key, o.failure)
			c.fail(ch.key, r.OnFailure, *o.failure)
			continue
		}
		if r.Options.UseOnlyLastSuccessCall {
			ch.hold(r.Options.OperationId, r.OnSuccess, o.value)
			continue
		}
		c.succeed(ch.key, r.OnSuccess, o.value)
	}
}

// run one confirm function against its timeout
func (c *Confirmer) execute(r *Request, last interface{}) outcome {
	prev := last
	if nil != r.ResultSelector {
		var failure *Failure
		prev, failure = c.selectResult(r.ResultSelector, last)
		if nil != failure {
			return outcome{failure: failure}
		}
	}

	// buffered so a result arriving after the timeout never blocks
	results := make(chan outcome, 1)

	go func() {
		defer func() {
			if e := recover(); nil != e {
				results <- outcome{
					failure: &Failure{
						Error:   true,
						Message: fmt.Sprintf("%s: %v", fault.ErrPanicInConfirm, e),
					},
				}
			}
		}()

		value, err := r.Confirm(c.ctx, prev)
		if nil != err {
			results <- outcome{
				failure: &Failure{
					Error:   true,
					Message: err.Error(),
				},
			}
			return
		}
		results <- outcome{value: value}
	}()

	timeout := r.Timeout
	if 0 == timeout {
		timeout = c.defaultTimeout
	}
	if timeout <= 0 {
		return <-results
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-results:
		return o
	case <-timer.C:
		c.log.Warnf("key: %s  timed out after: %s", r.Key, timeout)
		return outcome{
			failure: &Failure{
				Error:   true,
				Timeout: true,
			},
		}
	}
}

func (c *Confirmer) selectResult(selector SelectorFunc, last interface{}) (prev interface{}, failure *Failure) {
	defer func() {
		if e := recover(); nil != e {
			failure = &Failure{
				Error:   true,
				Message: fmt.Sprintf("%s: %v", fault.ErrPanicInConfirm, e),
			}
		}
	}()
	return selector(last), nil
}

func (c *Confirmer) succeed(key string, callback SuccessFunc, value interface{}) {
	if nil == callback {
		return
	}
	defer c.recoverCallback(key)
	callback(value)
}

func (c *Confirmer) fail(key string, callback FailureFunc, failure Failure) {
	if nil == callback {
		return
	}
	defer c.recoverCallback(key)
	callback(failure)
}

func (c *Confirmer) recoverCallback(key string) {
	if e := recover(); nil != e {
		c.log.Errorf("key: %s  callback panic: %v", key, e)
	}
}
