package project

import (
	"fmt"
	"sort"
	"sync"

	"github.com/worgue/magic-pocket/internal/document"
	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the structural shape of a merged document. Unknown
// keys are allowed everywhere since pocket.toml also drives deployment tooling.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "general": {
      "type": "object",
      "required": ["region"],
      "properties": {
        "region": {"type": "string"},
        "project_name": {"type": "string"},
        "namespace": {"type": "string"},
        "prefix_template": {"type": "string"},
        "stages": {"type": "array"}
      }
    },
    "awscontainer": {
      "type": "object",
      "properties": {
        "secrets": {
          "type": "object",
          "properties": {
            "store": {"type": "string"},
            "pocket_key_format": {"type": "string"},
            "managed": {
              "type": "object",
              "additionalProperties": {
                "type": "object",
                "required": ["type"],
                "properties": {
                  "type": {"type": "string"},
                  "options": {"type": "object"}
                }
              }
            },
            "user": {
              "type": "object",
              "additionalProperties": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string"},
                  "store": {"type": "string"}
                }
              }
            }
          }
        },
        "handlers": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "properties": {
              "apigateway": {
                "type": "object",
                "properties": {
                  "domain": {"type": "string"}
                }
              },
              "timeout": {"type": "integer", "minimum": 0}
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return compiledSchema, schemaErr
}

// validate checks doc against documentSchema and returns one message per
// violation, sorted for stable output.
func validate(doc document.Value) ([]string, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc.Interface()))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	sort.Strings(problems)
	return problems, nil
}
