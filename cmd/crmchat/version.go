package main

import (
	"context"
	"fmt"

	"github.com/a-h/crmchat"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(crmchat.Version)
	return nil
}
