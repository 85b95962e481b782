package workflows

import (
	"context"
	"time"

	"github.com/imranansari/cloudways-deploy-action/cloudways"
	"github.com/imranansari/cloudways-deploy-action/tracking"
)

// OperationOutput is the step output holding the Cloudways operation id
const OperationOutput = "operation"

// State is a step of the deployment workflow
type State string

const (
	StateStart          State = "start"
	StateAuthenticating State = "authenticating"
	StateDeploying      State = "deploying"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Authenticator obtains a Cloudways access token
type Authenticator interface {
	Authenticate(ctx context.Context, creds cloudways.Credentials) (cloudways.AccessToken, error)
}

// Deployer requests a git pull with an access token
type Deployer interface {
	Deploy(ctx context.Context, token cloudways.AccessToken, req cloudways.DeployRequest) (*cloudways.DeployOutcome, error)
}

// Host is the CI runner the workflow reports to
type Host interface {
	Infof(format string, args ...any)
	Mask(value string)
	SetOutput(name, value string)
	Fail(message string)
}

// DeploymentTracker mirrors the deployment onto GitHub
type DeploymentTracker interface {
	CreateDeployment(ctx context.Context, input tracking.CreateDeploymentInput) (*tracking.CreateDeploymentResult, error)
	UpdateDeploymentStatus(ctx context.Context, input tracking.UpdateDeploymentStatusInput) error
}

// DeploymentWorkflowInput represents the input for the deployment workflow
type DeploymentWorkflowInput struct {
	// Cloudways account
	Credentials cloudways.Credentials `json:"-"`

	// What to pull where
	Request cloudways.DeployRequest `json:"request"`

	// GitHub deployment tracking, used only when a tracker is set
	Environment string `json:"environment,omitempty"`
	Ref         string `json:"ref,omitempty"`
	LogURL      string `json:"log_url,omitempty"`
}

// DeploymentWorkflowResult represents the result of the deployment workflow
type DeploymentWorkflowResult struct {
	State              State         `json:"state"`
	OperationID        string        `json:"operation_id,omitempty"`
	FailureReason      string        `json:"failure_reason,omitempty"`
	StatusCode         int           `json:"status_code,omitempty"`
	GitHubDeploymentID int64         `json:"github_deployment_id,omitempty"`
	Transitions        []State       `json:"transitions"`
	TotalDuration      time.Duration `json:"total_duration"`

	failureReported bool
}

// Succeeded reports whether the workflow reached StateDone
func (r *DeploymentWorkflowResult) Succeeded() bool {
	return r.State == StateDone
}
