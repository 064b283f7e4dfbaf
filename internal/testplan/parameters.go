package testplan

import (
	"fmt"
	"strconv"
)

// NodeParameter declares a parameter a NodeDriver recognizes in the
// "parameters" section of a constellation node.
type NodeParameter struct {
	Name        string
	Description string
	// Default is used when the plan does not set the parameter. Empty means no default.
	Default  string
	Validate Validator
}

// AccountField declares a field a NodeDriver recognizes in an account or
// non-existing account entry.
type AccountField struct {
	Name        string
	Description string
	Validate    Validator
}

// Common parameters understood by most drivers.
var (
	HostnameParameter = NodeParameter{
		Name:        "hostname",
		Description: "DNS hostname of the node, optionally with port.",
		Validate:    HostnameValidate,
	}
	AppParameter = NodeParameter{
		Name:        "app",
		Description: "Name of the application running on the node.",
	}
	AppVersionParameter = NodeParameter{
		Name:        "app_version",
		Description: "Version of the application running on the node.",
	}
)

// Parameter returns the named parameter rendered as a string.
func (n *ConstellationNode) Parameter(name string) (string, bool) {
	if n == nil || n.Parameters == nil {
		return "", false
	}
	value, ok := n.Parameters[name]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprint(v), true
	}
}

// ValidatedParameter looks up a parameter in the node, then in defaults,
// then in the parameter's own default. It returns false if no value was
// found anywhere and an error if the value does not validate.
func (n *ConstellationNode) ValidatedParameter(par NodeParameter, defaults map[string]string) (string, bool, error) {
	value, ok := n.Parameter(par.Name)
	if !ok {
		value, ok = defaults[par.Name]
	}
	if !ok && par.Default != "" {
		value, ok = par.Default, true
	}
	if !ok {
		return "", false, nil
	}
	if par.Validate == nil {
		return value, true, nil
	}
	normalized, valid := par.Validate(value)
	if !valid {
		return "", false, &Error{
			Session: -1,
			Test:    -1,
			Field:   par.Name,
			Message: fmt.Sprintf("Invalid value for parameter %q: %q.", par.Name, value),
		}
	}
	return normalized, true, nil
}

// AccountValue returns the named field of an existing account.
func (a ExistingAccount) AccountValue(field string) (string, bool) {
	var v string
	switch field {
	case "userid":
		v = a.Userid
	case "email":
		v = a.Email
	case "uri":
		v = a.URI
	case "password":
		v = a.Password
	case "oauth_token":
		v = a.OAuthToken
	case "role":
		v = a.Role
	}
	return v, v != ""
}

// AccountValue returns the named field of a non-existing account.
func (a NonExistingAccount) AccountValue(field string) (string, bool) {
	var v string
	switch field {
	case "userid":
		v = a.Userid
	case "uri":
		v = a.URI
	case "role":
		v = a.Role
	}
	return v, v != ""
}
