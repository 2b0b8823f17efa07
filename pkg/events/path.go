// Package events builds synthetic invocation events.
//
// Builders keep the event as a JSON-shaped map so they can carry nulls and
// fields a typed struct would drop; the typed aws-lambda-go form is one
// conversion away.
package events

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Put stores value at a dotted path such as "requestContext.identity.sourceIp",
// creating intermediate maps as needed. A non-map value in the way is replaced.
func Put(target map[string]any, path string, value any) {
	keys := strings.Split(path, ".")
	current := target
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}

// Get reads the value at a dotted path.
func Get(source map[string]any, path string) (any, bool) {
	var current any = source
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[key]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Generic is a free-form event built from dotted paths.
type Generic struct {
	event map[string]any
}

// NewGeneric starts from a shallow copy of base.
func NewGeneric(base map[string]any) *Generic {
	event := maps.Clone(base)
	if event == nil {
		event = make(map[string]any)
	}
	return &Generic{event: event}
}

// Set stores value at path.
func (g *Generic) Set(path string, value any) *Generic {
	Put(g.event, path, value)
	return g
}

func (g *Generic) Event() map[string]any {
	return g.event
}

// Decode converts a built event into a typed value, e.g. an
// events.APIGatewayProxyRequest.
func Decode(event map[string]any, out any) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode event into %T: %w", out, err)
	}
	return nil
}
