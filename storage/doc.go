// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk copy of cached entities
//
// This maintains a LevelDB database split into a series of pools.
// Each pool is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available pools.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++   = concatenation of byte data
// 3. kind = entity kind as UTF-8 bytes, must not contain a zero byte
// 4. id   = entity id as UTF-8 bytes
//
// Entries:
//
//   E ++ kind ++ 0x00 ++ id    - one cached entity
//                                data: JSON {"timestamp": RFC3339, "metadata": {...}}
//
// Kinds:
//
//   K ++ kind                  - every kind that was ever saved
//                                data: nothing
//
// Version:
//
//   0x00 ++ "VERSION"          - database version as big endian uint32
//
// JSON decoding turns every number in the metadata into a float64
package storage
