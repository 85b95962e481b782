package cloudways

import (
	"encoding/json"
	"fmt"
)

// Credentials identifies the Cloudways account used to request an access token
type Credentials struct {
	Email  string `json:"email"`
	APIKey string `json:"api_key"`
}

// AccessToken is the short-lived bearer token returned by the OAuth endpoint.
// It is used for a single deploy request and never refreshed.
type AccessToken string

// DeployRequest describes a git pull onto a Cloudways application.
// All fields are forwarded verbatim; the API decides whether they are valid.
type DeployRequest struct {
	ServerID   string `json:"server_id"`
	AppID      string `json:"app_id"`
	BranchName string `json:"branch_name"`
	DeployPath string `json:"deploy_path"`
}

// DeployResponse is the decoded body of a git pull response
type DeployResponse struct {
	OperationID      OperationID `json:"operation_id"`
	ErrorDescription string      `json:"error_description"`
}

// DeployOutcome records the result of a git pull request regardless of status.
// Callers inspect OK and Body rather than relying on an error return.
type DeployOutcome struct {
	OK         bool
	StatusCode int
	Body       DeployResponse
	Raw        json.RawMessage
}

// Err returns nil for a successful outcome and a KindDeployRejected error otherwise
func (o *DeployOutcome) Err() error {
	if o.OK {
		return nil
	}

	message := o.Body.ErrorDescription
	if message == "" {
		message = fmt.Sprintf("deployment request failed with status %d", o.StatusCode)
	}

	return &Error{
		Kind:       KindDeployRejected,
		Message:    message,
		StatusCode: o.StatusCode,
	}
}

// OperationID identifies the asynchronous deployment job on the Cloudways side.
// The API has returned it both as a JSON number and as a string.
type OperationID string

// UnmarshalJSON accepts a JSON string, number or null
func (id *OperationID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = OperationID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("operation_id must be a string or a number: %w", err)
	}
	*id = OperationID(n.String())

	return nil
}

// String returns the identifier as published to the pipeline
func (id OperationID) String() string {
	return string(id)
}
