// Package extschema holds the JSON Schemas of the generator extensions this
// tool emits, and validates values against them before they are written.
package extschema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var files embed.FS

const baseURL = "https://schemas.formance.com/apistd/"

var (
	once     sync.Once
	compiled map[string]*jsonschema.Schema
	loadErr  error
)

func load() {
	entries, err := files.ReadDir("schemas")
	if err != nil {
		loadErr = err
		return
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		raw, err := files.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			loadErr = err
			return
		}
		if err := compiler.AddResource(baseURL+e.Name(), bytes.NewReader(raw)); err != nil {
			loadErr = fmt.Errorf("extschema: add %s: %w", e.Name(), err)
			return
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}

	compiled = make(map[string]*jsonschema.Schema, len(keys))
	for _, key := range keys {
		sch, err := compiler.Compile(baseURL + key + ".json")
		if err != nil {
			loadErr = fmt.Errorf("extschema: compile %s: %w", key, err)
			return
		}
		compiled[key] = sch
	}
}

// Keys lists the extensions that have a schema, sorted.
func Keys() []string {
	once.Do(load)
	keys := make([]string, 0, len(compiled))
	for k := range compiled {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key has a schema.
func Has(key string) bool {
	once.Do(load)
	_, ok := compiled[key]
	return ok
}

// Validate checks value against the schema registered for key. Keys without
// a schema are accepted. value may be any JSON-marshalable Go value.
func Validate(key string, value any) error {
	once.Do(load)
	if loadErr != nil {
		return loadErr
	}
	sch, ok := compiled[key]
	if !ok {
		return nil
	}
	generic, err := toGeneric(value)
	if err != nil {
		return fmt.Errorf("extschema: %s: %w", key, err)
	}
	if err := sch.Validate(generic); err != nil {
		return fmt.Errorf("extschema: %s: %w", key, err)
	}
	return nil
}

// toGeneric round-trips value through JSON so struct values are checked
// under their JSON field names.
func toGeneric(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
