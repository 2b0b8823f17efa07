package tester

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lambda-tester/pkg/lambda"
)

const greetingSchema = `{
	"type": "object",
	"required": ["greeting"],
	"properties": {
		"greeting": {"type": "string", "pattern": "^Hello "}
	}
}`

func TestMatchSchema(t *testing.T) {
	check, err := MatchSchema(greetingSchema)
	require.NoError(t, err)

	New(greet).Event(map[string]any{"name": "Fred"}).ExpectResult(check).Verify(t)

	bad := func(_ any, _ *lambda.Context, cb lambda.Callback) lambda.Thenable {
		cb(nil, map[string]any{"greeting": 42})
		return nil
	}
	_, err = New(bad).ExpectResult(check).Run(context.Background())
	assert.Error(t, err)
}

func TestMatchSchemaInvalid(t *testing.T) {
	_, err := MatchSchema(`{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustMatchSchema(`not json`) })
}
