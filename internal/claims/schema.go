package claims

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// responseSchemaDoc is the JSON Schema every claim-extraction completion
// must satisfy before its claims are parsed. Grounded on goa-ai's use of
// santhosh-tekuri/jsonschema/v6 to validate LLM-produced JSON against a
// compiled schema rather than trusting json.Unmarshal alone.
const responseSchemaDoc = `{
  "type": "object",
  "required": ["claims"],
  "properties": {
    "claims": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text", "polarity"],
        "properties": {
          "text": {"type": "string"},
          "polarity": {"type": "string", "enum": ["AFFIRM", "NEGATE", "UNSPECIFIED"]}
        }
      }
    }
  }
}`

var compiledResponseSchema *jsonschema.Schema

func init() {
	var doc any
	if err := json.Unmarshal([]byte(responseSchemaDoc), &doc); err != nil {
		panic(fmt.Sprintf("claims: invalid embedded schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("claim-extraction-response.json", doc); err != nil {
		panic(fmt.Sprintf("claims: add schema resource: %v", err))
	}
	schema, err := c.Compile("claim-extraction-response.json")
	if err != nil {
		panic(fmt.Sprintf("claims: compile schema: %v", err))
	}
	compiledResponseSchema = schema
}

// validateResponse checks raw JSON bytes against the claim-extraction
// response schema, returning a descriptive error on mismatch.
func validateResponse(raw []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if err := compiledResponseSchema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
