package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

// jsonResponse encodes body as the response payload
func jsonResponse(status int, body any) (events.APIGatewayProxyResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    jsonHeaders,
		Body:       string(raw),
	}, nil
}

// errorResponse builds a JSON error payload for status
func errorResponse(status int, message string) (events.APIGatewayProxyResponse, error) {
	return jsonResponse(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
