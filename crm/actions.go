package crm

import (
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// Action is the symbolic name of a CRM operation the model can request.
type Action string

const (
	ActionGetContact       Action = "get_contact"
	ActionGetContacts      Action = "get_contacts"
	ActionCreateContact    Action = "create_contact"
	ActionUpdateContact    Action = "update_contact"
	ActionGetOpportunities Action = "get_opportunities"
	ActionSendMessage      Action = "send_message"
	ActionGetConversations Action = "get_conversations"
)

// Actions returns every supported action in a stable order.
func Actions() []Action {
	return []Action{
		ActionGetContact,
		ActionGetContacts,
		ActionCreateContact,
		ActionUpdateContact,
		ActionGetOpportunities,
		ActionSendMessage,
		ActionGetConversations,
	}
}

type request struct {
	method string
	path   []string
	query  map[string]string
	body   any
}

var actions = map[Action]func(c Call) (request, error){
	ActionGetContacts: func(c Call) (request, error) {
		if c.LocationID == "" {
			return request{}, missing(c.Action, "locationId")
		}
		return request{
			method: http.MethodGet,
			path:   []string{"contacts"},
			query:  map[string]string{"locationId": c.LocationID, "limit": pageLimit},
		}, nil
	},
	ActionGetContact: func(c Call) (request, error) {
		id, err := contactID(c)
		if err != nil {
			return request{}, err
		}
		return request{
			method: http.MethodGet,
			path:   []string{"contacts", id},
		}, nil
	},
	ActionCreateContact: func(c Call) (request, error) {
		if c.LocationID == "" {
			return request{}, missing(c.Action, "locationId")
		}
		body := make(map[string]any, len(c.Data)+1)
		maps.Copy(body, c.Data)
		body["locationId"] = c.LocationID
		return request{
			method: http.MethodPost,
			path:   []string{"contacts"},
			body:   body,
		}, nil
	},
	ActionUpdateContact: func(c Call) (request, error) {
		id, err := contactID(c)
		if err != nil {
			return request{}, err
		}
		body := make(map[string]any, len(c.Data))
		maps.Copy(body, c.Data)
		delete(body, "contactId")
		return request{
			method: http.MethodPut,
			path:   []string{"contacts", id},
			body:   body,
		}, nil
	},
	ActionGetOpportunities: func(c Call) (request, error) {
		if c.LocationID == "" {
			return request{}, missing(c.Action, "locationId")
		}
		return request{
			method: http.MethodGet,
			path:   []string{"opportunities", "search"},
			query:  map[string]string{"location_id": c.LocationID, "limit": pageLimit},
		}, nil
	},
	ActionGetConversations: func(c Call) (request, error) {
		if c.LocationID == "" {
			return request{}, missing(c.Action, "locationId")
		}
		return request{
			method: http.MethodGet,
			path:   []string{"conversations", "search"},
			query:  map[string]string{"locationId": c.LocationID, "limit": pageLimit},
		}, nil
	},
	ActionSendMessage: func(c Call) (request, error) {
		body := c.Data
		if body == nil {
			body = map[string]any{}
		}
		return request{
			method: http.MethodPost,
			path:   []string{"conversations", "messages"},
			body:   body,
		}, nil
	},
}

func contactID(c Call) (string, error) {
	id, err := c.contactID()
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", missing(c.Action, "contactId")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, "/?#") {
		return "", fmt.Errorf("%w: %s contactId %q", ErrInvalidParameter, c.Action, id)
	}
	return id, nil
}

func missing(action Action, name string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMissingParameter, action, name)
}
