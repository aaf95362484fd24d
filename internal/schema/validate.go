// Package schema provides JSON schema validation for downstream configuration
// files and package index documents.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/boardrecipe/schema"
)

const (
	downstreamSchemaName   = "downstream.schema.json"
	packageIndexSchemaName = "package_index.schema.json"
)

var (
	downstreamSchema   *jsonschema.Schema
	packageIndexSchema *jsonschema.Schema
	compileOnce        sync.Once
	compileErr         error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		for _, name := range []string{downstreamSchemaName, packageIndexSchemaName} {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		var err error
		downstreamSchema, err = compiler.Compile(downstreamSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile downstream schema: %w", err)
			return
		}

		packageIndexSchema, err = compiler.Compile(packageIndexSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile package index schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateDownstream validates JSON data against the downstream configuration schema.
func ValidateDownstream(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := downstreamSchema.Validate(v); err != nil {
		return fmt.Errorf("downstream configuration validation failed: %w", err)
	}
	return nil
}

// ValidatePackageIndex validates JSON data against the package index schema.
func ValidatePackageIndex(data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := packageIndexSchema.Validate(v); err != nil {
		return fmt.Errorf("package index validation failed: %w", err)
	}

	return nil
}
