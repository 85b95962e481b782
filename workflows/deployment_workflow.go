package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/imranansari/cloudways-deploy-action/cloudways"
	"github.com/imranansari/cloudways-deploy-action/tracking"
)

const (
	// MsgOperationIDMissing is reported when a successful git pull response has no operation id
	MsgOperationIDMissing = "deployment response did not include an operation id"

	msgUnknownFailure = "deployment failed"
)

// DeploymentWorkflow authenticates against Cloudways and requests a git pull,
// reporting the result to the CI host. States advance
// start -> authenticating -> deploying -> done, and any step may end in failed.
type DeploymentWorkflow struct {
	auth     Authenticator
	deployer Deployer
	host     Host
	tracker  DeploymentTracker
	logger   zerolog.Logger
}

// NewDeploymentWorkflow creates a workflow from its collaborators
func NewDeploymentWorkflow(auth Authenticator, deployer Deployer, host Host, logger zerolog.Logger) *DeploymentWorkflow {
	return &DeploymentWorkflow{
		auth:     auth,
		deployer: deployer,
		host:     host,
		logger:   logger,
	}
}

// WithTracker enables GitHub deployment tracking
func (w *DeploymentWorkflow) WithTracker(tracker DeploymentTracker) *DeploymentWorkflow {
	w.tracker = tracker
	return w
}

// Run executes the workflow once. Every error and panic below this point ends
// in StateFailed with a single failure reported to the host; the operation
// output is only published when the workflow reaches StateDone.
func (w *DeploymentWorkflow) Run(ctx context.Context, input DeploymentWorkflowInput) (result *DeploymentWorkflowResult) {
	startTime := time.Now()
	result = &DeploymentWorkflowResult{
		State:       StateStart,
		Transitions: []State{StateStart},
	}

	w.logger.Info().
		Str("server_id", input.Request.ServerID).
		Str("app_id", input.Request.AppID).
		Str("branch", input.Request.BranchName).
		Str("deploy_path", input.Request.DeployPath).
		Bool("tracking", w.tracker != nil).
		Msg("Starting Cloudways deployment workflow")

	defer func() {
		if r := recover(); r != nil {
			w.fail(ctx, input, result, fmt.Errorf("%v", r))
		}
		result.TotalDuration = time.Since(startTime)

		w.logger.Info().
			Str("state", string(result.State)).
			Str("operation_id", result.OperationID).
			Dur("total_duration", result.TotalDuration).
			Msg("Cloudways deployment workflow finished")
	}()

	if err := w.execute(ctx, input, result); err != nil {
		w.fail(ctx, input, result, err)
		return result
	}

	w.host.Infof("Success. Operation ID: %s", result.OperationID)
	w.host.SetOutput(OperationOutput, result.OperationID)

	return result
}

func (w *DeploymentWorkflow) execute(ctx context.Context, input DeploymentWorkflowInput, result *DeploymentWorkflowResult) error {
	w.host.Mask(input.Credentials.APIKey)

	// 1. Exchange credentials for an access token
	w.transition(result, StateAuthenticating)

	token, err := w.auth.Authenticate(ctx, input.Credentials)
	if err != nil {
		return err
	}
	if token == "" {
		return &cloudways.Error{Kind: cloudways.KindAuthTokenMissing, Message: cloudways.MsgAccessTokenMissing}
	}
	w.host.Mask(string(token))

	// 2. Request the git pull
	w.transition(result, StateDeploying)
	w.startTracking(ctx, input, result)

	outcome, err := w.deployer.Deploy(ctx, token, input.Request)
	if err != nil {
		return err
	}
	if outcome == nil {
		return errors.New("deployer returned no outcome")
	}
	result.StatusCode = outcome.StatusCode

	if err := outcome.Err(); err != nil {
		return err
	}
	if outcome.Body.OperationID == "" {
		return &cloudways.Error{
			Kind:       cloudways.KindTransportOrParsing,
			Message:    MsgOperationIDMissing,
			StatusCode: outcome.StatusCode,
		}
	}
	result.OperationID = outcome.Body.OperationID.String()

	// 3. Done
	w.transition(result, StateDone)
	w.finishTracking(ctx, input, result, tracking.StateSuccess, "Cloudways operation "+result.OperationID)

	return nil
}

// fail moves the workflow to StateFailed and reports err to the host once.
// The host is told before tracking runs so a broken tracker cannot hide the failure.
func (w *DeploymentWorkflow) fail(ctx context.Context, input DeploymentWorkflowInput, result *DeploymentWorkflowResult, err error) {
	if result.failureReported {
		return
	}

	message := err.Error()
	if message == "" {
		message = msgUnknownFailure
	}

	kind := "unexpected"
	var cwErr *cloudways.Error
	if errors.As(err, &cwErr) {
		kind = string(cwErr.Kind)
	}

	w.logger.Error().
		Err(err).
		Str("from_state", string(result.State)).
		Str("kind", kind).
		Msg("Cloudways deployment workflow failed")

	if result.State != StateFailed {
		w.transition(result, StateFailed)
	}
	result.FailureReason = message

	w.host.Fail(message)
	result.failureReported = true

	githubState := tracking.StateError
	if cloudways.IsKind(err, cloudways.KindDeployRejected) {
		githubState = tracking.StateFailure
	}
	w.finishTracking(ctx, input, result, githubState, message)
}

func (w *DeploymentWorkflow) transition(result *DeploymentWorkflowResult, to State) {
	w.logger.Debug().
		Str("from", string(result.State)).
		Str("to", string(to)).
		Msg("Workflow state changed")

	result.State = to
	result.Transitions = append(result.Transitions, to)
}

// startTracking creates the GitHub deployment. Tracking problems are logged and
// never change the outcome of the Cloudways deployment.
func (w *DeploymentWorkflow) startTracking(ctx context.Context, input DeploymentWorkflowInput, result *DeploymentWorkflowResult) {
	if w.tracker == nil {
		return
	}
	defer w.recoverTracking("start")

	created, err := w.tracker.CreateDeployment(ctx, tracking.CreateDeploymentInput{
		Ref:         input.Ref,
		Environment: input.Environment,
		Description: fmt.Sprintf("Cloudways git pull of %s", input.Request.BranchName),
		Payload: map[string]string{
			"server_id":   input.Request.ServerID,
			"app_id":      input.Request.AppID,
			"branch_name": input.Request.BranchName,
			"deploy_path": input.Request.DeployPath,
		},
	})
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to create GitHub deployment, continuing without tracking")
		return
	}
	result.GitHubDeploymentID = created.DeploymentID

	err = w.tracker.UpdateDeploymentStatus(ctx, tracking.UpdateDeploymentStatusInput{
		DeploymentID: created.DeploymentID,
		State:        tracking.StateInProgress,
		Description:  fmt.Sprintf("Pulling %s on Cloudways", input.Request.BranchName),
		LogURL:       input.LogURL,
	})
	if err != nil {
		// Continue anyway - deployment was created
		w.logger.Warn().Err(err).Msg("Failed to update initial GitHub deployment status")
	}
}

func (w *DeploymentWorkflow) finishTracking(ctx context.Context, input DeploymentWorkflowInput, result *DeploymentWorkflowResult, state, description string) {
	if w.tracker == nil || result.GitHubDeploymentID == 0 {
		return
	}
	defer w.recoverTracking(state)

	err := w.tracker.UpdateDeploymentStatus(ctx, tracking.UpdateDeploymentStatusInput{
		DeploymentID: result.GitHubDeploymentID,
		State:        state,
		Description:  description,
		LogURL:       input.LogURL,
	})
	if err != nil {
		w.logger.Warn().Err(err).Str("state", state).Msg("Failed to update final GitHub deployment status")
	}
}

func (w *DeploymentWorkflow) recoverTracking(stage string) {
	if r := recover(); r != nil {
		w.logger.Warn().
			Interface("panic", r).
			Str("stage", stage).
			Msg("GitHub deployment tracking panicked, continuing")
	}
}
