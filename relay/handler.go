package relay

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	m "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zjx20/gemini-relay/gemini"
	"github.com/zjx20/gemini-relay/util"
)

const maxBodyBytes = 1 << 20

type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// Bind implements render.Binder.
func (p *PromptRequest) Bind(r *http.Request) error {
	if p.Prompt == "" {
		return errors.New("prompt is required")
	}
	return nil
}

// Handler relays one prompt to the upstream model per request. It holds no
// per-request state and is safe for concurrent use.
type Handler struct {
	Generator gemini.Generator

	// APIKey is consulted once per invocation. An empty result is a
	// configuration error.
	APIKey func() string

	// EmptyText, when set, is consulted per invocation for the text answered
	// when upstream returned none.
	EmptyText func() string
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithField("request_id", requestID(r))
	defer func() {
		if obj := recover(); obj != nil {
			if obj == http.ErrAbortHandler {
				panic(obj)
			}
			h.fail(w, r, logger, fmt.Errorf("recovered from panic: %v", obj))
		}
	}()

	text, err := h.relay(r, logger)
	if err != nil {
		h.fail(w, r, logger, err)
		return
	}
	util.Text(w, r, text)
}

func (h *Handler) relay(r *http.Request, logger *log.Entry) (string, error) {
	if r.Method != http.MethodPost {
		return "", ErrMethodNotAllowed
	}
	req, err := decodePrompt(r)
	if err != nil {
		return "", err
	}
	apiKey, err := h.credential()
	if err != nil {
		return "", err
	}

	logger.Debugf("relaying prompt of %d bytes", len(req.Prompt))
	resp, err := h.Generator.GenerateContent(r.Context(), apiKey, gemini.NewPromptRequest(req.Prompt))
	if err != nil {
		return "", err
	}
	text, ok := resp.Text()
	if !ok {
		logger.Debugf("upstream returned no text")
		if h.EmptyText == nil {
			return "", nil
		}
		return h.EmptyText(), nil
	}
	return text, nil
}

func decodePrompt(r *http.Request) (*PromptRequest, error) {
	req := &PromptRequest{}
	if r.Body == nil {
		return nil, badRequest("request body is empty", nil)
	}
	if err := render.DecodeJSON(io.LimitReader(r.Body, maxBodyBytes), req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, badRequest("request body is empty", err)
		}
		return nil, badRequest("invalid JSON body: "+err.Error(), err)
	}
	if err := req.Bind(r); err != nil {
		return nil, badRequest(err.Error(), err)
	}
	return req, nil
}

func (h *Handler) credential() (string, error) {
	if h.APIKey == nil {
		return "", ErrMissingAPIKey
	}
	key := h.APIKey()
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, logger *log.Entry, err error) {
	e := classify(err)
	logger = logger.WithFields(log.Fields{
		"kind":   e.Kind,
		"status": e.Status,
	})
	switch e.Kind {
	case KindMethodNotAllowed, KindBadRequest:
		logger.Debugf("rejected: %s", e.Msg)
	case KindUpstream:
		logger.Warnf("upstream failed: %s", e.Msg)
	default:
		logger.Errorf("relay failed: %s", e.Msg)
	}
	if e.Kind == KindMethodNotAllowed {
		w.Header().Set("Allow", http.MethodPost)
	}
	util.Error(w, r, e.Status, e.Msg)
}

func requestID(r *http.Request) string {
	if id := m.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
