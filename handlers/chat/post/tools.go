package post

import (
	"strings"

	"github.com/a-h/crmchat/crm"
	"github.com/tmc/langchaingo/llms"
)

// ToolName is the function name the model uses to request a CRM action.
const ToolName = "crm_operations"

var tools = []llms.Tool{crmTool()}

// crmTool declares the CRM function. The action names are also listed in the description
// because some backends, googleai included, drop enum from property schemas.
func crmTool() llms.Tool {
	actions := crm.Actions()
	enum := make([]string, len(actions))
	for i, a := range actions {
		enum[i] = string(a)
	}
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        ToolName,
			Description: "CRM operations: look up, create and update contacts, search opportunities and conversations, and send messages.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "The CRM operation to perform. One of: " + strings.Join(enum, ", ") + ".",
						"enum":        enum,
					},
					"contactId": map[string]any{
						"type":        "string",
						"description": "The contact to read or update.",
					},
					"locationId": map[string]any{
						"type":        "string",
						"description": "The CRM location (sub-account) to operate on.",
					},
					"data": map[string]any{
						"type":        "object",
						"description": "The payload for create, update and send operations.",
					},
				},
				"required": []string{"action"},
			},
		},
	}
}

// toolArgs are the arguments of a crm_operations function call.
type toolArgs struct {
	Action     string         `json:"action"`
	ContactID  string         `json:"contactId"`
	LocationID string         `json:"locationId"`
	Data       map[string]any `json:"data"`
}
