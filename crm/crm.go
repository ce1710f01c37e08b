package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/jsonapi"
)

const (
	DefaultBaseURL    = "https://services.leadconnectorhq.com"
	DefaultAPIVersion = "2021-07-28"
	DefaultTimeout    = 10 * time.Second
)

// pageLimit is the page size used by every list and search action.
const pageLimit = "20"

var (
	ErrUnknownAction    = errors.New("unknown action")
	ErrMissingParameter = errors.New("missing parameter")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Call is a single CRM operation requested by the model.
type Call struct {
	Action     Action
	LocationID string
	// ContactID is used when Data does not contain a contactId.
	ContactID string
	Data      map[string]any
}

func (c Call) contactID() (string, error) {
	switch id := c.Data["contactId"].(type) {
	case nil:
	case string:
		if id != "" {
			return id, nil
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("%w: %s contactId must be a string, got %T", ErrInvalidParameter, c.Action, id)
	}
	return c.ContactID, nil
}

func New(log *slog.Logger, baseURL, apiKey, apiVersion string, timeout time.Duration) Client {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Client{
		log:        log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiVersion: apiVersion,
		timeout:    timeout,
	}
}

// Client performs CRM actions against the LeadConnector REST API.
type Client struct {
	log        *slog.Logger
	baseURL    string
	apiKey     string
	apiVersion string
	timeout    time.Duration
}

// Do performs exactly one HTTP call for the action and returns the raw JSON response body.
func (c Client) Do(ctx context.Context, call Call) (result json.RawMessage, err error) {
	build, ok := actions[call.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, call.Action)
	}
	req, err := build(call)
	if err != nil {
		return nil, err
	}
	c.log.Debug("calling crm", slog.String("action", string(call.Action)), slog.String("method", req.method), slog.Any("path", req.path))
	result, err = c.send(ctx, req)
	if err != nil {
		c.log.Error("crm request failed", slog.String("action", string(call.Action)), slog.Any("error", err))
		return nil, err
	}
	return result, nil
}

func (c Client) send(ctx context.Context, req request) (result json.RawMessage, err error) {
	ub := jsonapi.URL(c.baseURL).Path(req.path...)
	if len(req.query) > 0 {
		ub = ub.Query(req.query)
	}
	u, err := ub.String()
	if err != nil {
		return nil, fmt.Errorf("failed to create URL: %w", err)
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	res, err := jsonapi.Raw(httpReq,
		jsonapi.WithRequestHeader("Authorization", "Bearer "+c.apiKey),
		jsonapi.WithRequestHeader("Version", c.apiVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, jsonapi.InvalidStatusError{
			Status: res.StatusCode,
			Body:   string(resBody),
		}
	}
	if len(bytes.TrimSpace(resBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(resBody) {
		// Wrap non-JSON bodies so that the model still receives valid JSON.
		return json.Marshal(string(resBody))
	}
	return json.RawMessage(resBody), nil
}
