package tester

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"lambda-tester/pkg/runner"
)

const schemaURL = "mem://result.schema.json"

// MatchSchema returns a verifier validating the JSON form of the result
// against a JSON schema document.
func MatchSchema(schema string) (runner.Check, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return func(result any, _ runner.Additional) error {
		raw, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		return compiled.Validate(payload)
	}, nil
}

// MustMatchSchema is MatchSchema for schemas known to be valid.
func MustMatchSchema(schema string) runner.Check {
	check, err := MatchSchema(schema)
	if err != nil {
		panic(err)
	}
	return check
}
