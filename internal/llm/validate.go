package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator checks documents against a compiled JSON schema. It is
// safe for concurrent use.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// CompileSchema compiles a schema built as a generic map.
func CompileSchema(schemaMap map[string]any) (*SchemaValidator, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("report.schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("report.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: s}, nil
}

// Validate decodes data with json.Number so integer checks see the exact
// token, then validates it.
func (v *SchemaValidator) Validate(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

var reportValidator = sync.OnceValue(func() *SchemaValidator {
	v, err := CompileSchema(BuildReportJSONSchema())
	if err != nil {
		panic(fmt.Sprintf("llm: report schema does not compile: %v", err))
	}
	return v
})

// ReportValidator returns the validator for BuildReportJSONSchema, compiled
// on first use and shared afterwards.
func ReportValidator() *SchemaValidator {
	return reportValidator()
}
