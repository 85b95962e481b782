package cloudways

import (
	"bytes"
	"context"
	"encoding/json"
)

const accessTokenPath = "/oauth/access_token"

type tokenResponse struct {
	AccessToken      string          `json:"access_token"`
	Error            json.RawMessage `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// Authenticator exchanges account credentials for an access token
type Authenticator struct {
	client *Client
}

// NewAuthenticator creates an Authenticator using the given API client
func NewAuthenticator(client *Client) *Authenticator {
	return &Authenticator{client: client}
}

// Authenticate requests an access token. The response body is parsed whatever
// the HTTP status is; the error field in it decides the outcome.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (AccessToken, error) {
	resp, err := a.client.postJSON(ctx, accessTokenPath, "", creds)
	if err != nil {
		return "", err
	}

	var body tokenResponse
	if err := decodeBody(resp.Body, &body); err != nil {
		return "", err
	}

	if isSet(body.Error) {
		message := body.ErrorDescription
		if message == "" {
			message = rawText(body.Error)
		}
		a.client.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error", rawText(body.Error)).
			Msg("Cloudways rejected the credentials")
		return "", &Error{
			Kind:       KindAuthRejected,
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}

	if body.AccessToken == "" {
		return "", &Error{
			Kind:       KindAuthTokenMissing,
			Message:    MsgAccessTokenMissing,
			StatusCode: resp.StatusCode,
		}
	}

	a.client.logger.Info().Int("status", resp.StatusCode).Msg("Obtained Cloudways access token")

	return AccessToken(body.AccessToken), nil
}

// isSet reports whether a raw JSON value would count as present: not absent,
// null, false, zero or an empty string.
func isSet(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// rawText returns a JSON string value unquoted and anything else as is
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
