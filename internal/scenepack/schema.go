package scenepack

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaResource is the URL the embedded schema is registered under.
const schemaResource = "file:///manifest.schema.json"

//go:embed schema.json
var schemaJSON []byte

var (
	compileOnce    sync.Once
	manifestSchema *jsonschema.Schema
	compileErr     error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaResource, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("failed to add manifest schema: %w", err)
			return
		}
		manifestSchema, compileErr = c.Compile(schemaResource)
	})
	return manifestSchema, compileErr
}

// validateManifest checks raw manifest JSON against the schema. Validation
// failures wrap ErrInvalidManifest and name the offending locations.
func validateManifest(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPackage, err)
	}

	err = schema.Validate(doc)
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%w: %s", ErrInvalidManifest, describe(verr))
	}
	if err != nil {
		return fmt.Errorf("failed to validate manifest: %w", err)
	}
	return nil
}

// describe flattens a validation error tree into "location: message" leaves.
func describe(verr *jsonschema.ValidationError) string {
	var leaves []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			leaves = append(leaves, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	sort.Strings(leaves)
	return strings.Join(leaves, "; ")
}
