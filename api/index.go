package api

import (
	"net/http"

	"github.com/zjx20/gemini-relay/config"
	"github.com/zjx20/gemini-relay/router"
	"github.com/zjx20/gemini-relay/util"
)

var (
	mux http.Handler
)

func init() {
	config.Init()
	util.InitLogger()
	mux = router.New(config.ReadConfig)
}

// Handler is the Vercel entrypoint.
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
