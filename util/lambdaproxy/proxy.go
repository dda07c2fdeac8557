// Package lambdaproxy serves API Gateway proxy events, the event shape Netlify
// functions also use, with a plain http.Handler.
package lambdaproxy

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	log "github.com/sirupsen/logrus"

	"github.com/zjx20/gemini-relay/util/middleware"
)

type HandlerFunc func(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Wrap returns a lambda handler around h. The returned function never fails:
// events that cannot be turned into a request are answered with a 400.
func Wrap(h http.Handler) HandlerFunc {
	adapter := httpadapter.New(h)
	return func(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := adapter.ProxyWithContext(ctx, withRequestID(ctx, ev))
		if err != nil {
			log.Debugf("bad lambda event: %s", err)
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusBadRequest,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       `{"error":"malformed event"}`,
			}, nil
		}
		return resp, nil
	}
}

// withRequestID carries the gateway's request id into the X-Request-ID header
// unless the caller sent one. The event's header maps are copied, not mutated.
func withRequestID(ctx context.Context, ev events.APIGatewayProxyRequest) events.APIGatewayProxyRequest {
	for k := range ev.Headers {
		if http.CanonicalHeaderKey(k) == middleware.RequestIDHeader {
			return ev
		}
	}
	for k := range ev.MultiValueHeaders {
		if http.CanonicalHeaderKey(k) == middleware.RequestIDHeader {
			return ev
		}
	}

	id := ev.RequestContext.RequestID
	if lc, ok := lambdacontext.FromContext(ctx); ok && id == "" {
		id = lc.AwsRequestID
	}
	if id == "" {
		return ev
	}

	headers := make(map[string]string, len(ev.Headers)+1)
	for k, v := range ev.Headers {
		headers[k] = v
	}
	headers[middleware.RequestIDHeader] = id
	ev.Headers = headers

	// the adapter reads only the multi-value map when it is non-empty
	if len(ev.MultiValueHeaders) > 0 {
		multi := make(map[string][]string, len(ev.MultiValueHeaders)+1)
		for k, vs := range ev.MultiValueHeaders {
			multi[k] = vs
		}
		multi[middleware.RequestIDHeader] = []string{id}
		ev.MultiValueHeaders = multi
	}
	return ev
}
