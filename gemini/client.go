package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
)

const maxErrorBody = 1 << 20

// Generator sends one generateContent request. apiKey is passed per call so
// the caller decides when the credential is resolved.
type Generator interface {
	GenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (*GenerateContentResponse, error)
}

// APIError is a non-2xx answer from the upstream API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api responded with status %d: %s", e.StatusCode, e.Message)
}

// RESTGenerator talks to the generativelanguage REST endpoint directly,
// passing the credential as the "key" query parameter.
type RESTGenerator struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewRESTGenerator(baseURL, model string, client *http.Client) *RESTGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &RESTGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
	}
}

func (g *RESTGenerator) endpoint() string {
	return g.BaseURL + "/models/" + url.PathEscape(g.Model) + ":generateContent"
}

func (g *RESTGenerator) GenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	body := bytes.NewBuffer(nil)
	enc := json.NewEncoder(body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("encode gemini request: %w", err)
	}

	endpoint := g.endpoint()
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("bad gemini endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", redact(err, endpoint))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gemini api: %w", redact(err, endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp)
		log.Debugf("gemini api error: %s", apiErr)
		return nil, apiErr
	}

	result := &GenerateContentResponse{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	return result, nil
}

// redact replaces the request URL in transport errors so the key in the
// query string never ends up in a log line or a response body.
func redact(err error, endpoint string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = endpoint
	}
	return err
}

func parseAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		log.Debugf("read gemini error body: %s", err)
	}
	env := &errorEnvelope{}
	if json.Unmarshal(raw, env) == nil && env.Error != nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		if env.Error.Status != "" {
			apiErr.Message = env.Error.Status + ": " + env.Error.Message
		}
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
