package events

import (
	"time"

	awsevents "github.com/aws/aws-lambda-go/events"
)

// S3 builds an S3 notification with one or more records. Setters apply to
// the current record, created on first use.
type S3 struct {
	records []map[string]any
	current map[string]any
	now     func() time.Time
}

func NewS3() *S3 {
	return &S3{now: time.Now}
}

// NextRecord makes the next setter start a new record.
func (s *S3) NextRecord() *S3 {
	s.current = nil
	return s
}

func (s *S3) ConfigurationID(id string) *S3 {
	return s.ServiceValue("configurationId", id)
}

// Bucket sets the bucket name and, when non-empty, its ARN.
func (s *S3) Bucket(name, arn string) *S3 {
	s.ServiceValue("bucket.name", name)
	if arn != "" {
		s.ServiceValue("bucket.arn", arn)
	}
	return s
}

func (s *S3) BucketOwner(principalID string) *S3 {
	return s.ServiceValue("bucket.ownerIdentity", map[string]any{"principalId": principalID})
}

func (s *S3) Object(key string) *S3 {
	return s.ServiceValue("object.key", key)
}

func (s *S3) ObjectSize(size int64) *S3 {
	return s.ServiceValue("object.size", size)
}

func (s *S3) ObjectETag(eTag string) *S3 {
	return s.ServiceValue("object.eTag", eTag)
}

func (s *S3) ObjectSequencer(sequencer string) *S3 {
	return s.ServiceValue("object.sequencer", sequencer)
}

// EventName sets e.g. "ObjectRemoved:Delete".
func (s *S3) EventName(name string) *S3 {
	return s.RecordValue("eventName", name)
}

func (s *S3) Region(region string) *S3 {
	return s.RecordValue("awsRegion", region)
}

// RecordValue sets a dotted path relative to the record.
func (s *S3) RecordValue(path string, value any) *S3 {
	Put(s.record(), path, value)
	return s
}

// ServiceValue sets a dotted path relative to the record's "s3" object.
func (s *S3) ServiceValue(path string, value any) *S3 {
	Put(s.record(), "s3."+path, value)
	return s
}

func (s *S3) record() map[string]any {
	if s.current == nil {
		s.current = s.newRecord()
		s.records = append(s.records, s.current)
	}
	return s.current
}

func (s *S3) newRecord() map[string]any {
	return map[string]any{
		"eventVersion":      "2.0",
		"eventTime":         s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		"requestParameters": map[string]any{"sourceIPAddress": "127.0.0.1"},
		"s3": map[string]any{
			"configurationId": "myConfigurationId",
			"object": map[string]any{
				"key":       "unknown.txt",
				"size":      1234,
				"eTag":      "0123456789abcdef0123456789abcdef",
				"sequencer": "0A1B2C3D4E5F678901",
			},
			"bucket": map[string]any{
				"arn":           "myArnHere",
				"name":          "sample-bucket",
				"ownerIdentity": map[string]any{"principalId": "USER"},
			},
			"s3SchemaVersion": "1.0",
		},
		"responseElements": map[string]any{
			"x-amz-id-2":       "EXAMPLE123/5678abcdefghijklambdaisawesome/mnopqrstuvwxyzABCDEFGH",
			"x-amz-request-id": "EXAMPLE123456789",
		},
		"awsRegion":    "us-east-1",
		"eventName":    "ObjectCreated:Put",
		"userIdentity": map[string]any{"principalId": "USER"},
		"eventSource":  "aws:s3",
	}
}

// Event returns {"Records": [...]}. An untouched builder has no records.
func (s *S3) Event() map[string]any {
	records := make([]any, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	return map[string]any{"Records": records}
}

// Notification converts the event into the aws-lambda-go type.
func (s *S3) Notification() (awsevents.S3Event, error) {
	var event awsevents.S3Event
	err := Decode(s.Event(), &event)
	return event, err
}
