package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/crmchat/crm"
	"github.com/a-h/crmchat/models"
	"github.com/a-h/respond"
	"github.com/tmc/langchaingo/llms"
)

const DefaultTimeout = 30 * time.Second

// MaxBodyBytes limits the size of a request body.
const MaxBodyBytes = 1 << 20

// SetupMessage is returned in place of a model reply when no model is configured.
const SetupMessage = `The assistant isn't configured yet.

Set the GEMINI_API_KEY environment variable to a Google AI Studio API key (https://aistudio.google.com/app/apikey) and restart the server.

To let the assistant work with your CRM data, also set CRM_API_KEY to a private integration token.`

type Dispatcher interface {
	Do(ctx context.Context, call crm.Call) (json.RawMessage, error)
}

// New creates the chat handler. If llm is nil, every well-formed request receives SetupMessage.
func New(log *slog.Logger, llm llms.Model, dispatcher Dispatcher, timeout time.Duration) Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Handler{
		log:        log,
		llm:        llm,
		dispatcher: dispatcher,
		timeout:    timeout,
	}
}

type Handler struct {
	log        *slog.Logger
	llm        llms.Model
	dispatcher Dispatcher
	timeout    time.Duration
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		respond.WithJSON(w, models.ErrorResponse{Error: "Method not allowed"}, http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatPostRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.log.Warn("request body too large", slog.Int64("limit", tooLarge.Limit))
		respond.WithJSON(w, models.ErrorResponse{Error: "Request body too large"}, http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil && !errors.Is(err, io.EOF) {
		h.log.Error("failed to decode body", slog.Any("error", err))
		respond.WithJSON(w, models.ErrorResponse{Error: "Invalid JSON body"}, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.WithJSON(w, models.ErrorResponse{Error: "Message is required"}, http.StatusBadRequest)
		return
	}

	if h.llm == nil {
		h.log.Warn("model not configured, returning setup instructions")
		respond.WithJSON(w, models.ChatPostResponse{Response: SetupMessage}, http.StatusOK)
		return
	}

	t, err := h.ask(r.Context(), req)
	if err != nil {
		h.log.Error("failed to generate content", slog.Any("error", err))
		respond.WithJSON(w, models.ErrorResponse{Error: "Internal server error", Details: err.Error()}, http.StatusInternalServerError)
		return
	}
	if t.call == nil {
		respond.WithJSON(w, models.ChatPostResponse{Response: t.text}, http.StatusOK)
		return
	}

	text, err := h.relay(r.Context(), req, t)
	if err != nil {
		h.log.Error("failed to relay function call", slog.String("function", t.call.FunctionCall.Name), slog.Any("error", err))
		respond.WithJSON(w, models.ChatPostResponse{
			Response: "Sorry, I encountered an error accessing your CRM data: " + err.Error(),
			Error:    true,
		}, http.StatusOK)
		return
	}
	respond.WithJSON(w, models.ChatPostResponse{Response: text, FunctionCalled: true}, http.StatusOK)
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// turn is the outcome of the first model call: either reply text, or a single function call.
type turn struct {
	messages []llms.MessageContent
	text     string
	call     *llms.ToolCall
}

var errNoChoices = errors.New("model returned no choices")

func (h Handler) ask(ctx context.Context, req models.ChatPostRequest) (t turn, err error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	t.messages = []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt(req)),
	}
	h.log.Debug("generating content", slog.Any("messages", t.messages))
	resp, err := h.llm.GenerateContent(ctx, t.messages, llms.WithTools(tools))
	if err != nil {
		return t, err
	}
	if len(resp.Choices) == 0 {
		return t, errNoChoices
	}
	choice := resp.Choices[0]
	switch {
	case len(choice.ToolCalls) > 0:
		tc := choice.ToolCalls[0]
		t.call = &tc
	case choice.FuncCall != nil:
		t.call = &llms.ToolCall{Type: "function", FunctionCall: choice.FuncCall}
	default:
		t.text = choice.Content
	}
	if t.call != nil && t.call.FunctionCall == nil {
		return t, errors.New("model returned a tool call without a function")
	}
	return t, nil
}

// relay performs the function call requested in t and returns the model's reply to its result.
func (h Handler) relay(ctx context.Context, req models.ChatPostRequest, t turn) (text string, err error) {
	fc := t.call.FunctionCall
	if fc.Name != ToolName {
		return "", fmt.Errorf("%w: function %q", crm.ErrUnknownAction, fc.Name)
	}
	var args toolArgs
	if err = json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
		return "", fmt.Errorf("failed to decode function arguments: %w", err)
	}
	call := crm.Call{
		Action:     crm.Action(args.Action),
		LocationID: firstNonEmpty(args.LocationID, req.LocationID),
		ContactID:  firstNonEmpty(args.ContactID, req.ContactID),
		Data:       args.Data,
	}
	h.log.Info("calling crm", slog.String("action", args.Action), slog.String("locationId", call.LocationID))
	result, err := h.dispatcher.Do(ctx, call)
	if err != nil {
		return "", err
	}

	content, err := json.Marshal(struct {
		Data json.RawMessage `json:"data"`
	}{Data: result})
	if err != nil {
		return "", fmt.Errorf("failed to marshal function response: %w", err)
	}
	messages := append(t.messages,
		llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: []llms.ContentPart{*t.call},
		},
		llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: t.call.ID,
					Name:       fc.Name,
					Content:    string(content),
				},
			},
		},
	)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	resp, err := h.llm.GenerateContent(ctx, messages, llms.WithTools(tools))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Content, nil
}

func prompt(req models.ChatPostRequest) string {
	var clauses []string
	if req.LocationID != "" {
		clauses = append(clauses, "is in CRM location "+req.LocationID)
	}
	if req.ContactID != "" {
		clauses = append(clauses, "is viewing contact "+req.ContactID)
	}
	if req.UserID != "" {
		clauses = append(clauses, "has user ID "+req.UserID)
	}
	if len(clauses) == 0 {
		return "User message: " + req.Message
	}
	return "Context: User " + strings.Join(clauses, ", ") + ". User message: " + req.Message
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
