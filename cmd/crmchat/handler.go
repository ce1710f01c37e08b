package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/a-h/crmchat/crm"
	chatpost "github.com/a-h/crmchat/handlers/chat/post"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type CRMFlags struct {
	CRMAPIKey     string        `name:"crm-api-key" help:"The CRM private integration token." env:"CRM_API_KEY,GHL_API_KEY" default:""`
	CRMBaseURL    string        `help:"The base URL of the CRM API." env:"CRM_BASE_URL" default:"https://services.leadconnectorhq.com"`
	CRMAPIVersion string        `name:"crm-api-version" help:"The CRM API version header value." env:"CRM_API_VERSION" default:"2021-07-28"`
	CRMTimeout    time.Duration `help:"The timeout for each CRM call." env:"CRM_TIMEOUT" default:"10s"`
}

func (f CRMFlags) newClient(log *slog.Logger) crm.Client {
	if f.CRMAPIKey == "" {
		log.Warn("CRM API key is not set, CRM calls will fail")
	}
	return crm.New(log, f.CRMBaseURL, f.CRMAPIKey, f.CRMAPIVersion, f.CRMTimeout)
}

type HandlerFlags struct {
	GeminiAPIKey string        `help:"The Gemini API key. If empty, chat requests receive setup instructions." env:"GEMINI_API_KEY" default:""`
	GeminiModel  string        `help:"The Gemini model to chat with." env:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	ModelTimeout time.Duration `help:"The timeout for each model call." env:"MODEL_TIMEOUT" default:"30s"`
	CRMFlags     `embed:""`
}

func (f HandlerFlags) newHandler(ctx context.Context, log *slog.Logger) (h chatpost.Handler, err error) {
	var llm llms.Model
	if f.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not set, chat requests will receive setup instructions")
	} else {
		log.Info("creating LLM client", slog.String("model", f.GeminiModel))
		llm, err = googleai.New(ctx,
			googleai.WithAPIKey(f.GeminiAPIKey),
			googleai.WithDefaultModel(f.GeminiModel))
		if err != nil {
			return h, fmt.Errorf("failed to create LLM: %w", err)
		}
	}
	return chatpost.New(log, llm, f.newClient(log), f.ModelTimeout), nil
}
