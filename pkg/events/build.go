package events

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownKind is returned by Build for an unsupported event kind.
var ErrUnknownKind = errors.New("unknown event kind")

// Event kinds accepted by Build
const (
	KindAPIGateway = "api"
	KindS3         = "s3"
	KindGeneric    = "generic"
)

// Kinds lists the kinds accepted by Build.
func Kinds() []string {
	kinds := []string{KindAPIGateway, KindS3, KindGeneric}
	sort.Strings(kinds)
	return kinds
}

// Build creates an event of kind from dotted-path parameters. For api and s3
// a few short names map onto builder setters (method, resource, body, apiId;
// bucket, key, eventName, region, configurationId); every other key is a
// path into the event, or into the record for s3.
func Build(kind string, params map[string]any) (map[string]any, error) {
	switch kind {
	case KindAPIGateway:
		b := NewAPIGateway()
		for _, key := range sortedKeys(params) {
			value := params[key]
			switch key {
			case "method":
				b.HTTPMethod(fmt.Sprint(value))
			case "resource":
				b.Resource(fmt.Sprint(value))
			case "body":
				b.Body(value)
			case "apiId":
				b.APIID(fmt.Sprint(value))
			default:
				b.Set(key, value)
			}
		}
		return b.Event(), nil

	case KindS3:
		b := NewS3()
		for _, key := range sortedKeys(params) {
			value := params[key]
			switch key {
			case "bucket":
				b.Bucket(fmt.Sprint(value), "")
			case "key":
				b.Object(fmt.Sprint(value))
			case "eventName":
				b.EventName(fmt.Sprint(value))
			case "region":
				b.Region(fmt.Sprint(value))
			case "configurationId":
				b.ConfigurationID(fmt.Sprint(value))
			default:
				b.RecordValue(key, value)
			}
		}
		// always at least one record
		b.record()
		return b.Event(), nil

	case KindGeneric:
		b := NewGeneric(nil)
		for _, key := range sortedKeys(params) {
			b.Set(key, params[key])
		}
		return b.Event(), nil
	}

	return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownKind, kind, Kinds())
}

func sortedKeys(params map[string]any) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
