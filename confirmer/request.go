// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package confirmer

import (
	"context"
	"fmt"
	"time"
)

// ConfirmFunc - the asynchronous operation, prev is the (selected) result
// of the previous call on the same key
type ConfirmFunc func(ctx context.Context, prev interface{}) (interface{}, error)

// SuccessFunc - called with the confirmed value
type SuccessFunc func(result interface{})

// FailureFunc - called when confirm failed or timed out
type FailureFunc func(failure Failure)

// SelectorFunc - pick the part of the last result passed to the next call
type SelectorFunc func(lastResult interface{}) interface{}

// Failure - the result recorded for a failed call
type Failure struct {
	Error   bool   `json:"error"`
	Message string `json:"message,omitempty"`
	Timeout bool   `json:"timeout"`
}

// String - printable failure
func (f Failure) String() string {
	if f.Timeout {
		return "timeout"
	}
	return fmt.Sprintf("error: %s", f.Message)
}

// Options - optional queueing behaviour of a call
type Options struct {
	// groups calls for the other options
	OperationId string

	// a later call with the same operation id replaces this one while it
	// is still waiting
	Squashable bool

	// adjacent calls with the same operation id run at the same time
	Parallelizable bool

	// only the last successful call with the same operation id gets its
	// success callback, once the key has drained
	UseOnlyLastSuccessCall bool
}

// Request - one confirmation call
type Request struct {
	Key            string
	Confirm        ConfirmFunc
	OnSuccess      SuccessFunc
	OnFailure      FailureFunc
	ResultSelector SelectorFunc
	Timeout        time.Duration // zero uses the configured default
	Options        Options
}

// result of running one request
type outcome struct {
	value   interface{}
	failure *Failure
}

// the value stored as lastResult
func (o outcome) last() interface{} {
	if nil != o.failure {
		return *o.failure
	}
	return o.value
}

func (r *Request) squashes(other *Request) bool {
	return r.Options.Squashable && other.Options.Squashable &&
		r.Options.OperationId == other.Options.OperationId
}

func (r *Request) runsWith(other *Request) bool {
	return r.Options.Parallelizable && other.Options.Parallelizable &&
		r.Options.OperationId == other.Options.OperationId
}
