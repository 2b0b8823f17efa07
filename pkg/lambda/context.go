package lambda

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
)

const (
	DefaultFunctionName    = "testLambda"
	DefaultFunctionVersion = "$LATEST"
	DefaultMemoryLimitInMB = "128"
	DefaultRegion          = "us-east-1"

	testAccountID = "999999999999"
)

// ContextValues holds the data fields of a handler context. Empty fields are
// filled in by BuildContext.
type ContextValues struct {
	FunctionName       string `json:"functionName,omitempty"`
	FunctionVersion    string `json:"functionVersion,omitempty"`
	MemoryLimitInMB    string `json:"memoryLimitInMB,omitempty"`
	LogGroupName       string `json:"logGroupName,omitempty"`
	LogStreamName      string `json:"logStreamName,omitempty"`
	InvokedFunctionArn string `json:"invokedFunctionArn,omitempty"`
	InvokeID           string `json:"invokeid,omitempty"`
	AwsRequestID       string `json:"awsRequestId,omitempty"`

	ClientContext *lambdacontext.ClientContext   `json:"clientContext,omitempty"`
	Identity      *lambdacontext.CognitoIdentity `json:"identity,omitempty"`

	// Extra carries caller-supplied fields with no dedicated slot.
	Extra map[string]any `json:"extra,omitempty"`
}

// BuildContext returns a copy of overrides with every unset field defaulted.
// The input is never modified.
func BuildContext(overrides ContextValues) ContextValues {
	ctx := overrides
	ctx.Extra = maps.Clone(overrides.Extra)
	if overrides.ClientContext != nil {
		cc := *overrides.ClientContext
		ctx.ClientContext = &cc
	}
	if overrides.Identity != nil {
		id := *overrides.Identity
		ctx.Identity = &id
	}

	setIfEmpty(&ctx.FunctionName, DefaultFunctionName)
	setIfEmpty(&ctx.FunctionVersion, DefaultFunctionVersion)
	setIfEmpty(&ctx.MemoryLimitInMB, DefaultMemoryLimitInMB)
	setIfEmpty(&ctx.LogGroupName, "/aws/lambda/"+ctx.FunctionName)
	if ctx.LogStreamName == "" {
		ctx.LogStreamName = CreateLogStreamName(ctx.FunctionVersion, time.Now())
	}
	setIfEmpty(&ctx.InvokedFunctionArn, CreateFunctionArn(ctx.FunctionName))
	if ctx.InvokeID == "" {
		ctx.InvokeID = CreateID()
	}
	setIfEmpty(&ctx.AwsRequestID, ctx.InvokeID)

	return ctx
}

func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// CreateLogStreamName builds YYYY/MM/DD/[version]<32 hex chars>.
func CreateLogStreamName(functionVersion string, date time.Time) string {
	id := strings.ReplaceAll(CreateID(), "-", "")
	return fmt.Sprintf("%04d/%02d/%02d/[%s]%s", date.Year(), int(date.Month()), date.Day(), functionVersion, id)
}

// CreateFunctionArn builds the ARN of functionName in AWS_REGION, or us-east-1.
func CreateFunctionArn(functionName string) string {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = DefaultRegion
	}
	return fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", region, testAccountID, functionName)
}

// CreateID returns a random UUID v4 string.
func CreateID() string {
	return uuid.New().String()
}
