package httpadapter

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	startSchema = mustCompileSchema("start.schema.json")
	runSchema   = mustCompileSchema("run.schema.json")
	stepSchema  = mustCompileSchema("step.schema.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return c.MustCompile(name)
}

// validateBody checks a request body against s. An empty body is treated as
// an empty object so optional bodies stay optional.
func validateBody(s *jsonschema.Schema, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return s.Validate(v)
}
