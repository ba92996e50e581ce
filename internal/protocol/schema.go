package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
)

const envelopeSchemaURL = "https://jsxlive.local/schemas/envelope.schema.json"

// EnvelopeSchema constrains inbound sandbox traffic. Sizes are capped so a
// runaway component cannot flood the bridge with huge payloads; the text
// caps are PayloadLimits.
var EnvelopeSchema = fmt.Sprintf(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["generation", "message"],
  "properties": {
    "generation": {"type": "string", "minLength": 1, "maxLength": 64},
    "message": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"enum": ["PREVIEW_READY", "PREVIEW_ERROR", "ELEMENT_SELECTED"]},
        "generation": {"type": "string", "maxLength": 64},
        "error": {"type": "string", "maxLength": %[1]d},
        "stack": {"type": "string", "maxLength": %[2]d},
        "element": {
          "type": "object",
          "required": ["tagName"],
          "properties": {
            "type": {"type": "string", "maxLength": 64},
            "tagName": {"type": "string", "minLength": 1, "maxLength": 64},
            "className": {"type": "string", "maxLength": %[3]d},
            "styles": {
              "type": "object",
              "maxProperties": 64,
              "additionalProperties": {"type": "string", "maxLength": %[4]d}
            },
            "textContent": {"type": "string", "maxLength": %[5]d}
          }
        }
      },
      "allOf": [
        {
          "if": {"properties": {"type": {"const": "PREVIEW_ERROR"}}},
          "then": {"required": ["error"]}
        },
        {
          "if": {"properties": {"type": {"const": "ELEMENT_SELECTED"}}},
          "then": {"required": ["element"]}
        }
      ]
    }
  }
}`, PayloadLimits.Error, PayloadLimits.Stack, PayloadLimits.ClassName, PayloadLimits.StyleValue, PayloadLimits.TextContent)

var (
	compileOnce    sync.Once
	envelopeSchema *jsonschema.Schema
	compileErr     error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(envelopeSchemaURL, strings.NewReader(EnvelopeSchema)); err != nil {
			compileErr = fmt.Errorf("envelope schema load failed: %w", err)

			return
		}
		envelopeSchema, compileErr = c.Compile(envelopeSchemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("envelope schema compile failed: %w", compileErr)
		}
	})

	return envelopeSchema, compileErr
}

// Decode validates raw JSON against EnvelopeSchema and decodes it.
func Decode(data []byte) (Envelope, error) {
	schema, err := compiledSchema()
	if err != nil {
		return Envelope{}, jsxerrors.NewInternalError(jsxerrors.ErrCodeInternalError, "envelope schema unavailable", err)
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Envelope{}, jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidMessage, "message is not valid JSON").
			WithContext("cause", err.Error())
	}

	clipText(doc)

	if err := schema.Validate(doc); err != nil {
		return Envelope{}, jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidMessage, "message does not match envelope schema").
			WithContext("cause", err.Error())
	}

	clipped, err := json.Marshal(doc)
	if err != nil {
		return Envelope{}, jsxerrors.NewInternalError(jsxerrors.ErrCodeInternalError, "message could not be re-encoded", err)
	}

	var env Envelope
	if err := json.Unmarshal(clipped, &env); err != nil {
		return Envelope{}, jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidMessage, "message could not be decoded").
			WithContext("cause", err.Error())
	}

	return env, nil
}

// clipText shortens the free-text fields of a decoded envelope to
// PayloadLimits so an oversized error report still reaches the host.
// Non-string values are left for the schema to reject.
func clipText(doc interface{}) {
	env, ok := doc.(map[string]interface{})
	if !ok {
		return
	}
	msg, ok := env["message"].(map[string]interface{})
	if !ok {
		return
	}

	clipField(msg, "error", PayloadLimits.Error)
	clipField(msg, "stack", PayloadLimits.Stack)

	el, ok := msg["element"].(map[string]interface{})
	if !ok {
		return
	}
	clipField(el, "className", PayloadLimits.ClassName)
	clipField(el, "textContent", PayloadLimits.TextContent)
	if styles, ok := el["styles"].(map[string]interface{}); ok {
		for key := range styles {
			clipField(styles, key, PayloadLimits.StyleValue)
		}
	}
}

func clipField(obj map[string]interface{}, key string, limit int) {
	if s, ok := obj[key].(string); ok {
		obj[key] = Clip(s, limit)
	}
}
