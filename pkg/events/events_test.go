package events

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	event := map[string]any{"a": "not a map"}

	Put(event, "top", 1)
	Put(event, "x.y.z", "deep")
	Put(event, "a.b", true)

	want := map[string]any{
		"top": 1,
		"x":   map[string]any{"y": map[string]any{"z": "deep"}},
		"a":   map[string]any{"b": true},
	}
	if diff := cmp.Diff(want, event); diff != "" {
		t.Errorf("Put() mismatch (-want +got):\n%s", diff)
	}

	got, ok := Get(event, "x.y.z")
	assert.True(t, ok)
	assert.Equal(t, "deep", got)

	_, ok = Get(event, "x.missing")
	assert.False(t, ok)
	_, ok = Get(event, "top.below")
	assert.False(t, ok)
}

func TestGeneric(t *testing.T) {
	base := map[string]any{"name": "Fred"}
	event := NewGeneric(base).Set("address.city", "Toronto").Event()

	assert.Equal(t, "Toronto", event["address"].(map[string]any)["city"])
	assert.NotContains(t, base, "address", "base must not be modified")
}

func TestAPIGatewayDefaults(t *testing.T) {
	req, err := NewAPIGateway().Request()
	require.NoError(t, err)

	assert.Equal(t, "GET", req.HTTPMethod)
	assert.Equal(t, "/", req.Resource)
	assert.Equal(t, "/", req.Path)
	assert.Nil(t, req.Headers)
	assert.Empty(t, req.Body)
	assert.False(t, req.IsBase64Encoded)
	assert.Equal(t, "00aaa0a00a", req.RequestContext.APIID)
	assert.Equal(t, "999999999999", req.RequestContext.AccountID)
	assert.Equal(t, "test-invoke-request", req.RequestContext.RequestID)
	assert.Equal(t, "1.2.3.4", req.RequestContext.Identity.SourceIP)
	assert.Equal(t, "arn:aws:iam::999999999999:root", req.RequestContext.Identity.UserArn)
}

func TestAPIGatewaySetters(t *testing.T) {
	b := NewAPIGateway().
		HTTPMethod("POST").
		Resource("/orders").
		Headers(map[string]string{"Content-Type": "application/json"}).
		QueryStringParameters(map[string]string{"page": "2"}).
		PathParameters(map[string]string{"id": "7"}).
		APIID("abc123").
		Body(map[string]any{"qty": 3})

	req, err := b.Request()
	require.NoError(t, err)

	assert.Equal(t, "POST", req.HTTPMethod)
	assert.Equal(t, "/orders", req.Resource)
	assert.Equal(t, "/orders", req.Path)
	assert.Equal(t, "/orders", req.RequestContext.ResourcePath)
	assert.Equal(t, "application/json", req.Headers["Content-Type"])
	assert.Equal(t, "2", req.QueryStringParameters["page"])
	assert.Equal(t, "7", req.PathParameters["id"])
	assert.Equal(t, "abc123", req.RequestContext.APIID)
	assert.JSONEq(t, `{"qty": 3}`, req.Body)
	assert.False(t, req.IsBase64Encoded)

	b.Path("/orders/7")
	assert.Equal(t, "/orders/7", b.Event()["path"])
	assert.Equal(t, "/orders", b.Event()["resource"])
}

func TestAPIGatewayBody(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		want    any
		encoded bool
	}{
		{name: "nil", body: nil, want: nil},
		{name: "string", body: "plain", want: "plain"},
		{name: "bytes", body: []byte("hello"), want: "aGVsbG8=", encoded: true},
		{name: "struct", body: struct {
			Name string `json:"name"`
		}{Name: "Fred"}, want: `{"name":"Fred"}`},
		{name: "duration stringer", body: time.Second, want: "1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := NewAPIGateway().Body(tt.body).Event()
			assert.Equal(t, tt.want, event["body"])
			assert.Equal(t, tt.encoded, event["isBase64Encoded"])
		})
	}

	event := NewAPIGateway().Body("x").Base64Encoded(true).Event()
	assert.Equal(t, true, event["isBase64Encoded"])
}

func TestS3(t *testing.T) {
	t.Run("NoRecordsUntilUsed", func(t *testing.T) {
		assert.Equal(t, map[string]any{"Records": []any{}}, NewS3().Event())
	})

	t.Run("Defaults", func(t *testing.T) {
		event, err := NewS3().Region("us-east-1").Notification()
		require.NoError(t, err)
		require.Len(t, event.Records, 1)

		record := event.Records[0]
		assert.Equal(t, "2.0", record.EventVersion)
		assert.Equal(t, "aws:s3", record.EventSource)
		assert.Equal(t, "ObjectCreated:Put", record.EventName)
		assert.Equal(t, "127.0.0.1", record.RequestParameters.SourceIPAddress)
		assert.Equal(t, "sample-bucket", record.S3.Bucket.Name)
		assert.Equal(t, "myArnHere", record.S3.Bucket.Arn)
		assert.Equal(t, "USER", record.S3.Bucket.OwnerIdentity.PrincipalID)
		assert.Equal(t, "unknown.txt", record.S3.Object.Key)
		assert.Equal(t, int64(1234), record.S3.Object.Size)
		assert.Equal(t, "myConfigurationId", record.S3.ConfigurationID)
		assert.Equal(t, "EXAMPLE123456789", record.ResponseElements["x-amz-request-id"])
		assert.WithinDuration(t, time.Now(), record.EventTime, time.Minute)
	})

	t.Run("MultipleRecords", func(t *testing.T) {
		b := NewS3()
		b.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 7e6, time.UTC) }

		event, err := b.
			Bucket("uploads", "arn:aws:s3:::uploads").
			BucketOwner("OWNER").
			Object("a.txt").
			ObjectSize(10).
			ObjectETag("etag-a").
			ObjectSequencer("seq-a").
			NextRecord().
			Object("b.txt").
			EventName("ObjectRemoved:Delete").
			Region("eu-west-1").
			ConfigurationID("cfg").
			Notification()
		require.NoError(t, err)
		require.Len(t, event.Records, 2)

		first, second := event.Records[0], event.Records[1]
		assert.Equal(t, "uploads", first.S3.Bucket.Name)
		assert.Equal(t, "arn:aws:s3:::uploads", first.S3.Bucket.Arn)
		assert.Equal(t, "OWNER", first.S3.Bucket.OwnerIdentity.PrincipalID)
		assert.Equal(t, "a.txt", first.S3.Object.Key)
		assert.Equal(t, int64(10), first.S3.Object.Size)
		assert.Equal(t, "etag-a", first.S3.Object.ETag)
		assert.Equal(t, "seq-a", first.S3.Object.Sequencer)
		assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 7e6, time.UTC), first.EventTime.UTC())

		assert.Equal(t, "sample-bucket", second.S3.Bucket.Name)
		assert.Equal(t, "b.txt", second.S3.Object.Key)
		assert.Equal(t, "ObjectRemoved:Delete", second.EventName)
		assert.Equal(t, "eu-west-1", second.AWSRegion)
		assert.Equal(t, "cfg", second.S3.ConfigurationID)
		assert.Equal(t, "ObjectCreated:Put", first.EventName)
	})
}

func TestBuild(t *testing.T) {
	t.Run("api", func(t *testing.T) {
		event, err := Build(KindAPIGateway, map[string]any{
			"method":                     "DELETE",
			"resource":                   "/items",
			"apiId":                      "xyz",
			"body":                       map[string]any{"id": 1},
			"requestContext.stage":       "prod",
			"queryStringParameters.page": "3",
		})
		require.NoError(t, err)

		var req struct {
			HTTPMethod     string            `json:"httpMethod"`
			Path           string            `json:"path"`
			Body           string            `json:"body"`
			Query          map[string]string `json:"queryStringParameters"`
			RequestContext struct {
				APIID string `json:"apiId"`
				Stage string `json:"stage"`
			} `json:"requestContext"`
		}
		require.NoError(t, Decode(event, &req))

		assert.Equal(t, "DELETE", req.HTTPMethod)
		assert.Equal(t, "/items", req.Path)
		assert.JSONEq(t, `{"id": 1}`, req.Body)
		assert.Equal(t, "3", req.Query["page"])
		assert.Equal(t, "xyz", req.RequestContext.APIID)
		assert.Equal(t, "prod", req.RequestContext.Stage)
	})

	t.Run("s3", func(t *testing.T) {
		event, err := Build(KindS3, nil)
		require.NoError(t, err)
		assert.Len(t, event["Records"], 1)

		event, err = Build(KindS3, map[string]any{"bucket": "b", "key": "k", "eventSource": "custom"})
		require.NoError(t, err)
		record := event["Records"].([]any)[0].(map[string]any)
		v, _ := Get(record, "s3.bucket.name")
		assert.Equal(t, "b", v)
		v, _ = Get(record, "s3.object.key")
		assert.Equal(t, "k", v)
		assert.Equal(t, "custom", record["eventSource"])
	})

	t.Run("generic", func(t *testing.T) {
		event, err := Build(KindGeneric, map[string]any{"detail.id": 5})
		require.NoError(t, err)
		if diff := cmp.Diff(map[string]any{"detail": map[string]any{"id": 5}}, event); diff != "" {
			t.Errorf("Build() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Build("sns", nil)
		assert.True(t, errors.Is(err, ErrUnknownKind))
	})
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []string{"api", "generic", "s3"}, Kinds())
}
