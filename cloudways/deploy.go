package cloudways

import "context"

const gitPullPath = "/git/pull"

// Deployer requests git pull deployments with a previously obtained token
type Deployer struct {
	client *Client
}

// NewDeployer creates a Deployer using the given API client
func NewDeployer(client *Client) *Deployer {
	return &Deployer{client: client}
}

// Deploy asks Cloudways to pull req.BranchName into the application. Rejections
// by the API come back as an outcome with OK set to false, not as an error.
// There is no idempotency key: calling it twice may pull twice.
func (d *Deployer) Deploy(ctx context.Context, token AccessToken, req DeployRequest) (*DeployOutcome, error) {
	if token == "" {
		return nil, &Error{Kind: KindAuthTokenMissing, Message: MsgAccessTokenMissing}
	}

	d.client.logger.Info().
		Str("server_id", req.ServerID).
		Str("app_id", req.AppID).
		Str("branch", req.BranchName).
		Str("deploy_path", req.DeployPath).
		Msg("Requesting Cloudways git pull")

	resp, err := d.client.postJSON(ctx, gitPullPath, token, req)
	if err != nil {
		return nil, err
	}

	outcome := &DeployOutcome{
		OK:         resp.OK,
		StatusCode: resp.StatusCode,
		Raw:        resp.Body,
	}
	if err := decodeBody(resp.Body, &outcome.Body); err != nil {
		return nil, err
	}

	event := d.client.logger.Info()
	if !outcome.OK {
		event = d.client.logger.Warn()
	}
	event.
		Int("status", outcome.StatusCode).
		Bool("ok", outcome.OK).
		Str("operation_id", outcome.Body.OperationID.String()).
		Msg("Cloudways git pull responded")

	return outcome, nil
}
