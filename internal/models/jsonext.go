package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Records coming out of the platform carry far more fields than the
// reconciler touches. Types that embed an Extra map round-trip the fields
// they do not declare so that re-serialising a record never drops data.

var knownFieldCache sync.Map // reflect.Type → map[string]bool

// knownFields returns the JSON names declared on struct type t.
func knownFields(t reflect.Type) map[string]bool {
	if cached, ok := knownFieldCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	fields := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" || !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		fields[name] = true
	}
	knownFieldCache.Store(t, fields)
	return fields
}

// decodeWithExtra unmarshals data into v (a pointer to a struct without
// custom JSON methods) and returns the object fields v does not declare.
func decodeWithExtra(data []byte, v any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	known := knownFields(reflect.TypeOf(v).Elem())
	for k := range all {
		if known[k] {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeWithExtra marshals v and merges extra fields back in. Declared
// fields always win over extras of the same name.
func encodeWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

// dropKeys removes keys from the JSON object in data.
func dropKeys(data []byte, keys ...string) ([]byte, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range keys {
		delete(all, k)
	}
	return json.Marshal(all)
}
