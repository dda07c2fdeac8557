package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// DefaultBaseURL is the public REST root of the generative language API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// SDKGenerator goes through the official Go SDK instead of raw HTTP. A
// client is created per call because the key is resolved per call.
type SDKGenerator struct {
	Model string
	// Timeout bounds one call, client setup included. Zero means no bound
	// beyond the caller's context.
	Timeout time.Duration
	Options []option.ClientOption
}

func NewSDKGenerator(model string, timeout time.Duration, opts ...option.ClientOption) *SDKGenerator {
	return &SDKGenerator{
		Model:   model,
		Timeout: timeout,
		Options: opts,
	}
}

// SDKEndpoint turns a REST base URL into the host:port the SDK dials. It
// returns "" for the default base URL, leaving the SDK on its own endpoint.
func SDKEndpoint(baseURL string) string {
	if baseURL == "" || baseURL == DefaultBaseURL {
		return ""
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	if u.Port() != "" {
		return u.Host
	}
	if u.Scheme == "http" {
		return net.JoinHostPort(u.Hostname(), "80")
	}
	return net.JoinHostPort(u.Hostname(), "443")
}

func (g *SDKGenerator) GenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, g.Options...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	resp, err := model.GenerateContent(ctx, toSDKParts(req)...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			// a blocked prompt produced no text, which is not a failure
			return &GenerateContentResponse{}, nil
		}
		if apiErr := fromSDKError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to generate text: %w", err)
	}
	return fromSDKResponse(resp), nil
}

func toSDKParts(req *GenerateContentRequest) []genai.Part {
	var parts []genai.Part
	for _, c := range req.Contents {
		if c == nil {
			continue
		}
		for _, p := range c.Parts {
			if p != nil {
				parts = append(parts, genai.Text(p.Text))
			}
		}
	}
	return parts
}

func fromSDKResponse(resp *genai.GenerateContentResponse) *GenerateContentResponse {
	result := &GenerateContentResponse{}
	if resp == nil {
		return result
	}
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		candidate := &Candidate{FinishReason: c.FinishReason.String()}
		if c.Content != nil {
			candidate.Content = &Content{Role: c.Content.Role}
			for _, part := range c.Content.Parts {
				var text string
				switch p := part.(type) {
				case genai.Text:
					text = string(p)
				case genai.Blob:
					text = fmt.Sprintf("<%d bytes %s data>", len(p.Data), p.MIMEType)
				default:
					text = fmt.Sprintf("<unknown part type %T>", p)
				}
				candidate.Content.Parts = append(candidate.Content.Parts, &Part{Text: text})
			}
		}
		result.Candidates = append(result.Candidates, candidate)
	}
	return result
}

var grpcToHTTP = map[codes.Code]int{
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unauthenticated:    http.StatusUnauthorized,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.Aborted:            http.StatusConflict,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.Canceled:           499,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.Internal:           http.StatusInternalServerError,
	codes.Unknown:            http.StatusInternalServerError,
	codes.DataLoss:           http.StatusInternalServerError,
}

// fromSDKError recovers the upstream status from an SDK error, or returns nil
// when the error did not come from the API.
func fromSDKError(err error) *APIError {
	ae, ok := apierror.FromError(err)
	if !ok {
		return nil
	}
	if code := ae.HTTPCode(); code > 0 {
		return &APIError{StatusCode: code, Message: sdkMessage(ae)}
	}
	if st := ae.GRPCStatus(); st != nil {
		if code, ok := grpcToHTTP[st.Code()]; ok {
			return &APIError{StatusCode: code, Message: sdkMessage(ae)}
		}
	}
	return nil
}

func sdkMessage(ae *apierror.APIError) string {
	if st := ae.GRPCStatus(); st != nil && st.Message() != "" {
		return st.Code().String() + ": " + st.Message()
	}
	return ae.Error()
}
