// Package handlers holds the sample Lambda handlers shipped with the tester.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"

	"lambda-tester/pkg/lambda"
)

// EchoResponse is the payload returned by EchoHandler.
type EchoResponse struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Query       map[string]string `json:"query,omitempty"`
	Body        any               `json:"body,omitempty"`
	RequestID   string            `json:"requestId,omitempty"`
	FunctionArn string            `json:"functionArn,omitempty"`
	RemainingMS int64             `json:"remainingMs,omitempty"`
}

// EchoHandler answers API Gateway requests with a description of the request.
type EchoHandler struct {
	logger logrus.FieldLogger
}

// NewEchoHandler creates a new echo handler
func NewEchoHandler(logger logrus.FieldLogger) *EchoHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EchoHandler{logger: logger}
}

// Handle serves GET and POST. JSON bodies are decoded, other bodies are
// echoed as text.
func (h *EchoHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := EchoResponse{
		Method: req.HTTPMethod,
		Path:   req.Path,
		Query:  req.QueryStringParameters,
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		resp.RequestID = lc.AwsRequestID
		resp.FunctionArn = lc.InvokedFunctionArn
	}
	if deadline, ok := ctx.Deadline(); ok {
		resp.RemainingMS = time.Until(deadline).Milliseconds()
	}

	log := h.logger.WithFields(logrus.Fields{
		"method":     req.HTTPMethod,
		"path":       req.Path,
		"request_id": resp.RequestID,
	})

	switch req.HTTPMethod {
	case http.MethodGet:
	case http.MethodPost:
		body, err := decodeBody(req)
		if err != nil {
			log.WithError(err).Warn("Rejecting malformed request body")
			return errorResponse(http.StatusBadRequest, err.Error())
		}
		resp.Body = body
	default:
		log.Warn("Method not allowed")
		return errorResponse(http.StatusMethodNotAllowed, "only GET and POST are supported")
	}

	log.Debug("Echoing request")
	return jsonResponse(http.StatusOK, resp)
}

// Legacy exposes Handle through the (event, context, callback) contract.
func (h *EchoHandler) Legacy() lambda.Handler {
	return lambda.FromLambda(h.Handle)
}

func decodeBody(req events.APIGatewayProxyRequest) (any, error) {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, err
		}
		raw = decoded
	}
	if len(raw) == 0 {
		return nil, nil
	}

	if !isJSON(req.Headers) {
		return string(raw), nil
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func isJSON(headers map[string]string) bool {
	for key, value := range headers {
		if strings.EqualFold(key, "Content-Type") {
			return strings.HasPrefix(strings.ToLower(value), "application/json")
		}
	}
	return false
}
