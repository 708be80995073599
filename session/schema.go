package session

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	statusSchema = "schemas/status.json"
	jobSchema    = "schemas/job.json"

	schemaBaseURL = "https://farmsync.local/"
)

type schemas struct {
	status *jsonschema.Schema
	job    *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	status, err := compileSchema(statusSchema)
	if err != nil {
		return nil, err
	}
	job, err := compileSchema(jobSchema)
	if err != nil {
		return nil, err
	}
	return &schemas{status: status, job: job}, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	schemaURL := schemaBaseURL + name
	if err := compiler.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// decodeValidated checks raw against a schema before decoding it into out
func decodeValidated(validate func(any) error, raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if err := validate(payload); err != nil {
		return fmt.Errorf("unexpected payload: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
