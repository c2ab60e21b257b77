// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/store"
)

// field holding the id when neither schema nor options name one
const (
	DefaultIdField = "id"
)

// Schema - the shape the cache relies on for one kind
type Schema struct {
	Kind           string
	IdField        string
	RequiredFields []string
}

// IsMissingFields - true if any required field is absent
func (s Schema) IsMissingFields(metadata store.Metadata) bool {
	return isMissingFields(metadata, s.RequiredFields)
}

func isMissingFields(metadata store.Metadata, required []string) bool {
	for _, f := range required {
		if _, ok := metadata[f]; !ok {
			return true
		}
	}
	return false
}

// Register - set the schema of a kind
func (c *Cache) Register(schema Schema) error {
	if "" == schema.Kind {
		return fault.ErrInvalidKind
	}
	if "" == schema.IdField {
		schema.IdField = DefaultIdField
	}

	c.Lock()
	c.schemas[schema.Kind] = schema
	c.Unlock()

	c.log.Debugf("kind: %s  id field: %s  required: %v", schema.Kind, schema.IdField, schema.RequiredFields)
	return nil
}

// Schema - the registered schema of a kind
func (c *Cache) Schema(kind string) (Schema, bool) {
	c.RLock()
	defer c.RUnlock()
	s, ok := c.schemas[kind]
	return s, ok
}

// id field and required fields for a retrieve, options win over the schema
func (c *Cache) fields(kind string, idField string, required []string) (string, []string) {
	schema, ok := c.Schema(kind)
	if "" == idField {
		idField = DefaultIdField
		if ok {
			idField = schema.IdField
		}
	}
	if nil == required && ok {
		required = schema.RequiredFields
	}
	return idField, required
}
