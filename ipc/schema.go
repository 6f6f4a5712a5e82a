package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const tileSchema = `{
	"type": "object",
	"required": ["row", "col"],
	"properties": {
		"row": {"type": "integer", "minimum": 0},
		"col": {"type": "integer", "minimum": 0},
		"owner": {"type": "integer", "minimum": 0}
	}
}`

var schemaSources = map[string]string{
	TypeSetup: `{
		"type": "object",
		"required": ["rows", "cols"],
		"properties": {
			"rows": {"type": "integer", "minimum": 1},
			"cols": {"type": "integer", "minimum": 1},
			"turns": {"type": "integer", "minimum": 0},
			"loadTime": {"type": "integer", "minimum": 0},
			"turnTime": {"type": "integer", "minimum": 0},
			"viewRadius2": {"type": "integer", "minimum": 0},
			"attackRadius2": {"type": "integer", "minimum": 0},
			"spawnRadius2": {"type": "integer", "minimum": 0},
			"playerSeed": {"type": "integer"}
		}
	}`,
	TypeTurn: `{
		"type": "object",
		"required": ["turn"],
		"properties": {
			"turn": {"type": "integer", "minimum": 0},
			"ants": {"type": ["array", "null"], "items": ` + tileSchema + `},
			"hills": {"type": ["array", "null"], "items": ` + tileSchema + `},
			"food": {"type": ["array", "null"], "items": ` + tileSchema + `},
			"water": {"type": ["array", "null"], "items": ` + tileSchema + `}
		}
	}`,
}

// Validator checks inbound payloads against the message schemas. Message
// types without a schema pass unchecked.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(schemaSources))}
	for msgType, src := range schemaSources {
		s, err := jsonschema.CompileString(msgType+".schema.json", src)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", msgType, err)
		}
		v.schemas[msgType] = s
	}
	return v, nil
}

func (v *Validator) Validate(env Envelope) error {
	s, ok := v.schemas[env.Type]
	if !ok {
		return nil
	}
	var doc any
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("validate %s: %w", env.Type, err)
	}
	return nil
}
