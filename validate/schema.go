package validate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/xraph/herald/message"
)

// SchemaValidator validates payloads against JSON Schema definitions.
type SchemaValidator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema // keyed by schema JSON content
}

// NewSchemaValidator creates a new schema validator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks data against schema. If schema is nil, validation is skipped.
func (v *SchemaValidator) Validate(schema, data any) error {
	if schema == nil {
		return nil
	}

	compiled, err := v.compile(schema)
	if err != nil {
		return fmt.Errorf("schema compilation error: %w", err)
	}

	return compiled.Validate(data)
}

// Compile checks that schema is a valid JSON Schema and caches it.
func (v *SchemaValidator) Compile(schema any) error {
	_, err := v.compile(schema)
	return err
}

// PushData returns a rule set that validates a push notification's data
// payload against schema. It fails with an error if schema does not compile.
func (v *SchemaValidator) PushData(schema any) (func(message.Push) []string, error) {
	if err := v.Compile(schema); err != nil {
		return nil, err
	}

	return func(m message.Push) []string {
		data := make(map[string]any, len(m.Data))
		for k, val := range m.Data {
			data[k] = val
		}

		if err := v.Validate(schema, data); err != nil {
			return []string{"Data does not match schema: " + flatten(err)}
		}

		return nil
	}, nil
}

// compile returns a compiled schema, using the cache for previously-seen schemas.
func (v *SchemaValidator) compile(schema any) (*jsonschema.Schema, error) {
	raw, err := rawSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	var doc any
	if unmarshalErr := json.Unmarshal(raw, &doc); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", unmarshalErr)
	}

	url := schemaURL(key)

	c := jsonschema.NewCompiler()
	if addErr := c.AddResource(url, doc); addErr != nil {
		return nil, fmt.Errorf("add schema resource: %w", addErr)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.mu.Lock()
	v.cache[key] = compiled
	v.mu.Unlock()

	return compiled, nil
}

// rawSchema returns schema as JSON. Strings and byte slices are taken to
// already hold JSON.
func rawSchema(schema any) ([]byte, error) {
	switch s := schema.(type) {
	case json.RawMessage:
		return s, nil
	case []byte:
		return s, nil
	case string:
		return []byte(s), nil
	default:
		return json.Marshal(schema)
	}
}

// schemaURL derives a stable resource URL from the schema content.
func schemaURL(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "herald://schema/" + hex.EncodeToString(sum[:8])
}

// flatten collapses a multi-line validation error onto one line.
func flatten(err error) string {
	return strings.Join(strings.Fields(err.Error()), " ")
}
