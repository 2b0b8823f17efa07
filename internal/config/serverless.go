package config

import (
	"os"

	"lambda-tester/pkg/lambda"
)

// IsRunningInLambda detects if the process runs inside AWS Lambda rather
// than under the tester.
func IsRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" && os.Getenv("AWS_LAMBDA_RUNTIME_API") != ""
}

// Region returns AWS_REGION, then AWS_DEFAULT_REGION, then the default region.
func Region() string {
	return GetEnv("AWS_REGION", GetEnv("AWS_DEFAULT_REGION", lambda.DefaultRegion))
}
