package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/a-h/crmchat/crm"
	"gopkg.in/yaml.v3"
)

type CRMCommand struct {
	CRMFlags   `embed:""`
	Action     string `arg:"" help:"The action to run, e.g. get_contacts."`
	LocationID string `help:"The CRM location (sub-account) ID." env:"CRM_LOCATION_ID" default:""`
	ContactID  string `help:"The contact ID for contact actions." default:""`
	Data       string `help:"JSON payload for create, update and send actions." default:""`
	Format     string `help:"The output format." enum:"json,yaml" default:"json"`
	LogLevel   string `help:"The log level to use." env:"LOG_LEVEL" default:"warn"`
}

func (c CRMCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)
	client := c.newClient(log)

	call := crm.Call{
		Action:     crm.Action(c.Action),
		LocationID: c.LocationID,
		ContactID:  c.ContactID,
	}
	if c.Data != "" {
		if err = json.Unmarshal([]byte(c.Data), &call.Data); err != nil {
			return fmt.Errorf("failed to parse data: %w", err)
		}
	}

	result, err := client.Do(ctx, call)
	if err != nil {
		return err
	}
	return writeResult(os.Stdout, result, c.Format)
}

func writeResult(w io.Writer, result json.RawMessage, format string) (err error) {
	var v any
	if err = json.Unmarshal(result, &v); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
