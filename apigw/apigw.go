// Package apigw runs an http.Handler behind an AWS API Gateway Lambda proxy integration.
package apigw

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Handler converts each proxy event to an *http.Request, including base64 bodies and
// multi-value query strings and headers, and returns the handler's response as a proxy response.
func Handler(h http.Handler) HandlerFunc {
	return httpadapter.New(h).ProxyWithContext
}
