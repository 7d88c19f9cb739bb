package domain

// Contact is an optional directory record used only for variable
// substitution; this subsystem never persists it.
type Contact struct {
	Name         string `json:"name,omitempty"`
	WhatsappName string `json:"whatsapp_name,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Company      string `json:"company,omitempty"`
}

// VariableContext holds everything the resolver may substitute from:
// the recipient identifier, an optional contact record, user-supplied
// named values for positional tokens, and integration-event variables.
type VariableContext struct {
	// Recipient is the phone number or address the run targets.
	Recipient string

	Contact *Contact

	// Values maps the names declared in a template's positional variables
	// list to the user-supplied value, e.g. {"order_number": "#1001"}.
	Values map[string]string

	// Extra holds integration-event variables, available under exactly the
	// names the integration metadata declares.
	Extra map[string]string
}
