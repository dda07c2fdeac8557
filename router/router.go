package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"google.golang.org/api/option"

	"github.com/zjx20/gemini-relay/config"
	"github.com/zjx20/gemini-relay/gemini"
	"github.com/zjx20/gemini-relay/relay"
	"github.com/zjx20/gemini-relay/util"
	"github.com/zjx20/gemini-relay/util/httpclient"
	"github.com/zjx20/gemini-relay/util/middleware"
)

// Paths the relay answers on: the local/Vercel route and the path Netlify
// gives its functions.
var Paths = []string{
	"/api/gemini",
	"/.netlify/functions/gemini",
}

// NewGenerator picks the upstream backend for cfg.
func NewGenerator(cfg *config.Config) gemini.Generator {
	if cfg.Backend == config.BackendSDK {
		var opts []option.ClientOption
		if endpoint := gemini.SDKEndpoint(cfg.BaseURL); endpoint != "" {
			opts = append(opts, option.WithEndpoint(endpoint))
		}
		return gemini.NewSDKGenerator(cfg.Model, cfg.UpstreamTimeout, opts...)
	}
	client := httpclient.New(cfg.UpstreamTimeout, cfg.UpstreamPingInterval)
	return gemini.NewRESTGenerator(cfg.BaseURL, cfg.Model, client)
}

// New builds the router. The backend is fixed from the config seen at
// construction; the credential, the password and the empty-text placeholder
// are looked up on every request so a reloaded config takes effect without a
// restart.
func New(cfgFn func() *config.Config) http.Handler {
	return NewWithGenerator(cfgFn, NewGenerator(cfgFn()))
}

func NewWithGenerator(cfgFn func() *config.Config, gen gemini.Generator) http.Handler {
	h := &relay.Handler{
		Generator: gen,
		APIKey:    func() string { return cfgFn().APIKey },
		EmptyText: func() string { return cfgFn().EmptyText },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.Password(func() string { return cfgFn().Password }))

	for _, p := range Paths {
		r.Handle(p, h)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		util.Error(w, r, http.StatusNotFound, "not found")
	})
	return r
}
