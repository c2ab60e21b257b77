// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:generate mockgen -destination=fetcher.go -package=mocks github.com/bitmark-inc/entitycache/cache Fetcher
//go:generate mockgen -destination=guard.go -package=mocks github.com/bitmark-inc/entitycache/cache ConfirmationGuard
//go:generate mockgen -destination=persister.go -package=mocks github.com/bitmark-inc/entitycache/cache Persister

// Package mocks - gomock mocks of the cache collaborators
package mocks
