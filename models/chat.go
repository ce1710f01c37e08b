package models

type ChatPostRequest struct {
	// Message from the user, required.
	Message string `json:"message"`

	// LocationID is the CRM location (sub-account) the user is working in.
	LocationID string `json:"locationId,omitempty"`
	UserID     string `json:"userId,omitempty"`

	// ContactID is set when the user is viewing a specific contact.
	ContactID string `json:"contactId,omitempty"`
}

type ChatPostResponse struct {
	Response       string `json:"response"`
	FunctionCalled bool   `json:"functionCalled,omitempty"`
	Error          bool   `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
