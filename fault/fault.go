// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type TimeoutError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised   = ExistsError("already initialised")
	ErrConfirmationTimeout  = TimeoutError("confirmation timed out")
	ErrConfirmerClosed      = ProcessError("confirmer is closed")
	ErrDatabaseIsClosed     = ProcessError("database is closed")
	ErrEmptyResult          = NotFoundError("source returned no entries")
	ErrInvalidConfiguration = InvalidError("invalid configuration")
	ErrInvalidDuration      = InvalidError("invalid duration")
	ErrInvalidKind          = InvalidError("invalid kind")
	ErrInvalidLoggerChannel = InvalidError("invalid logger channel")
	ErrInvalidUid           = InvalidError("invalid uid")
	ErrMissingConfirm       = InvalidError("missing confirm function")
	ErrMissingFetcher       = InvalidError("missing fetcher")
	ErrMissingKey           = InvalidError("missing confirmation key")
	ErrMissingStore         = InvalidError("missing cache store")
	ErrNotInitialised       = NotFoundError("not initialised")
	ErrPanicInConfirm       = ProcessError("panic in confirm function")
	ErrShutdownTimeout      = TimeoutError("shutdown timed out")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e TimeoutError) Error() string  { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrTimeout(e error) bool  { _, ok := e.(TimeoutError); return ok }
