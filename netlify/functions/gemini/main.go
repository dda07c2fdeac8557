package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/zjx20/gemini-relay/config"
	"github.com/zjx20/gemini-relay/router"
	"github.com/zjx20/gemini-relay/util"
	"github.com/zjx20/gemini-relay/util/lambdaproxy"
)

func main() {
	config.Init()
	util.InitLogger()
	lambda.Start(lambdaproxy.Wrap(router.New(config.ReadConfig)))
}
