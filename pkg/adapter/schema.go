package adapter

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	contextSchemaURL = "https://grovetools.dev/schemas/ccs/context.json"
	itemSchemaURL    = "https://grovetools.dev/schemas/ccs/item.json"
)

// contextSchema checks the shape of one persisted context. Items are
// checked one at a time with itemSchema so a bad entry only drops itself.
const contextSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"sortBy": {"type": "integer"},
		"contextDocument": {"$ref": "#/$defs/document"},
		"contextDescription": {"$ref": "#/$defs/document"},
		"items": {"type": "array", "items": {"type": "object"}}
	},
	"$defs": {
		"document": {
			"type": "object",
			"required": ["resource"],
			"properties": {
				"resource": {"type": "string", "minLength": 1}
			}
		}
	}
}`

const itemSchema = `{
	"type": "object",
	"required": ["resource", "type"],
	"properties": {
		"resource": {"type": "string", "minLength": 1},
		"type": {"enum": [1, 2]}
	}
}`

type schemas struct {
	context *jsonschema.Schema
	item    *jsonschema.Schema
}

var (
	compiledOnce sync.Once
	compiled     schemas
	compileErr   error
)

func loadSchemas() (schemas, error) {
	compiledOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for url, text := range map[string]string{
			contextSchemaURL: contextSchema,
			itemSchemaURL:    itemSchema,
		} {
			doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
			if err != nil {
				compileErr = fmt.Errorf("parse schema %s: %w", url, err)
				return
			}
			if err := c.AddResource(url, doc); err != nil {
				compileErr = fmt.Errorf("add schema %s: %w", url, err)
				return
			}
		}
		if compiled.context, compileErr = c.Compile(contextSchemaURL); compileErr != nil {
			return
		}
		compiled.item, compileErr = c.Compile(itemSchemaURL)
	})
	return compiled, compileErr
}

// validate decodes raw with the schema library's number handling and
// checks it against sch.
func validate(sch *jsonschema.Schema, raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return sch.Validate(inst)
}
