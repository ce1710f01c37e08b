package main

import (
	"context"

	"github.com/a-h/crmchat/apigw"
	"github.com/aws/aws-lambda-go/lambda"
)

type LambdaCommand struct {
	HandlerFlags `embed:""`
	LogLevel     string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c LambdaCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	h, err := c.newHandler(ctx, log)
	if err != nil {
		return err
	}
	lambda.Start(apigw.Handler(h))
	return nil
}
