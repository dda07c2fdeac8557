package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptRequestShape(t *testing.T) {
	data, err := json.Marshal(NewPromptRequest("hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"contents":[{"parts":[{"text":"hello"}]}]}`, string(data))
}

func TestResponseText(t *testing.T) {
	cases := []struct {
		name string
		body string
		text string
		ok   bool
	}{
		{"full", `{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}`, "hi", true},
		{"no candidates", `{}`, "", false},
		{"empty candidates", `{"candidates":[]}`, "", false},
		{"null candidate", `{"candidates":[null]}`, "", false},
		{"no content", `{"candidates":[{"finishReason":"SAFETY"}]}`, "", false},
		{"no parts", `{"candidates":[{"content":{}}]}`, "", false},
		{"empty text", `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`, "", false},
		{"part without text", `{"candidates":[{"content":{"parts":[{}]}}]}`, "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := &GenerateContentResponse{}
			require.NoError(t, json.Unmarshal([]byte(c.body), resp))
			text, ok := resp.Text()
			assert.Equal(t, c.text, text)
			assert.Equal(t, c.ok, ok)
		})
	}

	var nilResp *GenerateContentResponse
	_, ok := nilResp.Text()
	assert.False(t, ok)
}

func TestRESTGenerateContent(t *testing.T) {
	var hits int32
	prompt := "<b>ünïcode</b> & \"quotes\"\n\ttabs"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k3y", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := &GenerateContentRequest{}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(req)) &&
			assert.Len(t, req.Contents, 1) &&
			assert.Len(t, req.Contents[0].Parts, 1) {
			assert.Equal(t, prompt, req.Contents[0].Parts[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"hello"}]}}]}`)
	}))
	defer srv.Close()

	g := NewRESTGenerator(srv.URL+"/v1beta/", "gemini-2.0-flash", srv.Client())
	resp, err := g.GenerateContent(context.Background(), "k3y", NewPromptRequest(prompt))
	require.NoError(t, err)
	text, ok := resp.Text()
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestRESTGenerateContentAPIError(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "google envelope",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			message: "RESOURCE_EXHAUSTED: Resource has been exhausted",
		},
		{
			name:    "plain text",
			status:  http.StatusBadGateway,
			body:    "upstream went away\n",
			message: "upstream went away",
		},
		{
			name:    "empty body",
			status:  http.StatusServiceUnavailable,
			body:    "",
			message: "Service Unavailable",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				io.WriteString(w, c.body)
			}))
			defer srv.Close()

			g := NewRESTGenerator(srv.URL, "m", srv.Client())
			_, err := g.GenerateContent(context.Background(), "k", NewPromptRequest("p"))
			require.Error(t, err)
			apiErr, ok := err.(*APIError)
			require.True(t, ok, "unexpected error type %T", err)
			assert.Equal(t, c.status, apiErr.StatusCode)
			assert.Equal(t, c.message, apiErr.Message)
		})
	}
}

func TestRESTGenerateContentBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer srv.Close()

	g := NewRESTGenerator(srv.URL, "m", srv.Client())
	_, err := g.GenerateContent(context.Background(), "k", NewPromptRequest("p"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode gemini response")
}

func TestRESTGenerateContentRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewRESTGenerator(url, "m", nil)
	_, err := g.GenerateContent(context.Background(), "super-secret", NewPromptRequest("p"))
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "super-secret"), err.Error())
	assert.Contains(t, err.Error(), "call gemini api")
}
