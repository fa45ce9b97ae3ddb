////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package versioned wraps an ekv.KeyValue with key prefixing and per-object
// versioning so stored formats can evolve without clobbering older data.
package versioned

import (
	"fmt"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ekv"
)

const PrefixSeparator = "/"

type root struct {
	data ekv.KeyValue
}

// KV stores versioned data under a hierarchy of prefixes.
type KV struct {
	r      *root
	prefix string
}

// NewKV creates a versioned key/value store backed by anything implementing
// ekv.KeyValue.
func NewKV(data ekv.KeyValue) *KV {
	k := KV{}
	r := root{data: data}
	k.r = &r
	return &k
}

// Get returns the object stored at the versioned key.
func (v *KV) Get(key string, version uint64) (*Object, error) {
	key = v.makeKey(key, version)
	jww.TRACE.Printf("get %p with key %v", v.r.data, key)

	result := Object{}
	err := v.r.data.Get(key, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Set upserts new data into storage. The object carries its own version; the
// caller is responsible for prefixing the key appropriately via Prefix.
func (v *KV) Set(key string, object *Object) error {
	key = v.makeKey(key, object.Version)
	jww.TRACE.Printf("set %p with key %v", v.r.data, key)
	return v.r.data.Set(key, object)
}

// Delete removes a given versioned key from the data store.
func (v *KV) Delete(key string, version uint64) error {
	key = v.makeKey(key, version)
	jww.TRACE.Printf("delete %p with key %v", v.r.data, key)
	return v.r.data.Delete(key)
}

// GetPrefix returns the accumulated prefix of the KV.
func (v *KV) GetPrefix() string {
	return v.prefix
}

// Prefix returns a new KV with the new prefix appended.
func (v *KV) Prefix(prefix string) *KV {
	return &KV{
		r:      v.r,
		prefix: v.prefix + prefix + PrefixSeparator,
	}
}

// GetFullKey returns the key with all prefixes and the version appended.
func (v *KV) GetFullKey(key string, version uint64) string {
	return v.makeKey(key, version)
}

func (v *KV) makeKey(key string, version uint64) string {
	return fmt.Sprintf("%s%s_%d", v.prefix, key, version)
}

// Exists returns false if the error indicates the element doesn't exist.
func (v *KV) Exists(err error) bool {
	return ekv.Exists(err)
}
