package main

import (
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/zjx20/gemini-relay/config"
	"github.com/zjx20/gemini-relay/router"
	"github.com/zjx20/gemini-relay/util"
)

func init() {
	util.InitLogger()
}

func main() {
	config.Init()
	cfg := config.ReadConfig()
	if cfg.APIKey == "" {
		log.Warnln("GEMINI_API_KEY is not set, every prompt will fail until it is")
	}

	r := router.New(config.ReadConfig)

	l, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalln(err)
	}
	log.Infof("Server listening at %s, backend: %s, model: %s", l.Addr(), cfg.Backend, cfg.Model)
	if err = http.Serve(l, r); err != nil {
		log.Fatalln(err)
	}
}
