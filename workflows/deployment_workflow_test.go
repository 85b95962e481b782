package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imranansari/cloudways-deploy-action/cloudways"
	"github.com/imranansari/cloudways-deploy-action/config"
	"github.com/imranansari/cloudways-deploy-action/tracking"
)

type fakeAuthenticator struct {
	token cloudways.AccessToken
	err   error
	calls int
	got   cloudways.Credentials
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, creds cloudways.Credentials) (cloudways.AccessToken, error) {
	f.calls++
	f.got = creds
	return f.token, f.err
}

type fakeDeployer struct {
	outcome *cloudways.DeployOutcome
	err     error
	panicV  any
	calls   int
	token   cloudways.AccessToken
	req     cloudways.DeployRequest
}

func (f *fakeDeployer) Deploy(ctx context.Context, token cloudways.AccessToken, req cloudways.DeployRequest) (*cloudways.DeployOutcome, error) {
	f.calls++
	f.token = token
	f.req = req
	if f.panicV != nil {
		panic(f.panicV)
	}
	return f.outcome, f.err
}

type fakeHost struct {
	infos    []string
	masked   []string
	outputs  map[string]string
	failures []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{outputs: map[string]string{}}
}

func (h *fakeHost) Infof(format string, args ...any) {
	h.infos = append(h.infos, fmt.Sprintf(format, args...))
}

func (h *fakeHost) Mask(value string) {
	h.masked = append(h.masked, value)
}

func (h *fakeHost) SetOutput(name, value string) {
	h.outputs[name] = value
}

func (h *fakeHost) Fail(message string) {
	h.failures = append(h.failures, message)
}

type fakeTracker struct {
	createErr  error
	updateErr  error
	panicFinal bool
	created   []tracking.CreateDeploymentInput
	updates   []tracking.UpdateDeploymentStatusInput
}

func (f *fakeTracker) CreateDeployment(ctx context.Context, input tracking.CreateDeploymentInput) (*tracking.CreateDeploymentResult, error) {
	f.created = append(f.created, input)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &tracking.CreateDeploymentResult{DeploymentID: 42, Environment: input.Environment}, nil
}

func (f *fakeTracker) UpdateDeploymentStatus(ctx context.Context, input tracking.UpdateDeploymentStatusInput) error {
	f.updates = append(f.updates, input)
	if f.panicFinal && input.State != tracking.StateInProgress {
		panic("tracker exploded on " + input.State)
	}
	return f.updateErr
}

func testInput() DeploymentWorkflowInput {
	return DeploymentWorkflowInput{
		Credentials: cloudways.Credentials{Email: "dev@example.com", APIKey: "api-secret"},
		Request: cloudways.DeployRequest{
			ServerID:   "111",
			AppID:      "222",
			BranchName: "main",
			DeployPath: "public_html",
		},
		Environment: "production",
		Ref:         "abc123",
		LogURL:      "https://github.com/acme/site/actions/runs/7",
	}
}

func okOutcome(id cloudways.OperationID) *cloudways.DeployOutcome {
	return &cloudways.DeployOutcome{
		OK:         true,
		StatusCode: http.StatusOK,
		Body:       cloudways.DeployResponse{OperationID: id},
	}
}

func TestRunSuccessPublishesOperation(t *testing.T) {
	auth := &fakeAuthenticator{token: "tok-1"}
	deployer := &fakeDeployer{outcome: okOutcome("123")}
	host := newFakeHost()

	result := NewDeploymentWorkflow(auth, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())

	assert.True(t, result.Succeeded())
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "123", result.OperationID)
	assert.Equal(t, []State{StateStart, StateAuthenticating, StateDeploying, StateDone}, result.Transitions)
	assert.Empty(t, result.FailureReason)

	assert.Equal(t, map[string]string{OperationOutput: "123"}, host.outputs)
	assert.Empty(t, host.failures)
	require.Len(t, host.infos, 1)
	assert.Contains(t, host.infos[0], "123")

	assert.Equal(t, cloudways.Credentials{Email: "dev@example.com", APIKey: "api-secret"}, auth.got)
	assert.Equal(t, cloudways.AccessToken("tok-1"), deployer.token)
	assert.Equal(t, testInput().Request, deployer.req)
	assert.Equal(t, []string{"api-secret", "tok-1"}, host.masked)
}

func TestRunAuthRejectedNeverDeploys(t *testing.T) {
	auth := &fakeAuthenticator{err: &cloudways.Error{Kind: cloudways.KindAuthRejected, Message: "Invalid email or API key"}}
	deployer := &fakeDeployer{outcome: okOutcome("123")}
	host := newFakeHost()

	result := NewDeploymentWorkflow(auth, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, []State{StateStart, StateAuthenticating, StateFailed}, result.Transitions)
	assert.Equal(t, []string{"Invalid email or API key"}, host.failures)
	assert.Equal(t, 0, deployer.calls)
	assert.Empty(t, host.outputs)
}

func TestRunTokenMissingNeverDeploys(t *testing.T) {
	tests := []struct {
		name string
		auth *fakeAuthenticator
	}{
		{
			name: "authenticator error",
			auth: &fakeAuthenticator{err: &cloudways.Error{Kind: cloudways.KindAuthTokenMissing, Message: cloudways.MsgAccessTokenMissing}},
		},
		{
			name: "empty token without error",
			auth: &fakeAuthenticator{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deployer := &fakeDeployer{outcome: okOutcome("123")}
			host := newFakeHost()

			result := NewDeploymentWorkflow(tt.auth, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())

			assert.Equal(t, StateFailed, result.State)
			assert.Equal(t, []string{"access token does not exist"}, host.failures)
			assert.Equal(t, 0, deployer.calls)
			assert.Empty(t, host.outputs)
		})
	}
}

func TestRunDeployRejected(t *testing.T) {
	deployer := &fakeDeployer{outcome: &cloudways.DeployOutcome{
		OK:         false,
		StatusCode: http.StatusUnprocessableEntity,
		Body:       cloudways.DeployResponse{ErrorDescription: "Branch not found"},
	}}
	host := newFakeHost()

	result := NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, "Branch not found", result.FailureReason)
	assert.Equal(t, http.StatusUnprocessableEntity, result.StatusCode)
	assert.Equal(t, []string{"Branch not found"}, host.failures)
	assert.Empty(t, host.outputs)
	assert.Empty(t, host.infos)
}

func TestRunDeployRejectedWithoutDescription(t *testing.T) {
	deployer := &fakeDeployer{outcome: &cloudways.DeployOutcome{StatusCode: http.StatusBadGateway}}
	host := newFakeHost()

	NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())

	assert.Equal(t, []string{"deployment request failed with status 502"}, host.failures)
}

func TestRunDeployOKWithoutOperationID(t *testing.T) {
	host := newFakeHost()
	deployer := &fakeDeployer{outcome: okOutcome("")}

	result := NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, []string{MsgOperationIDMissing}, host.failures)
	assert.Empty(t, host.outputs)
}

func TestRunTransportErrorKeepsMessage(t *testing.T) {
	cause := errors.New(`Post "https://api.cloudways.com/api/v1/git/pull": dial tcp: lookup api.cloudways.com: no such host`)
	deployer := &fakeDeployer{err: &cloudways.Error{Kind: cloudways.KindTransportOrParsing, Message: cause.Error(), Err: cause}}
	host := newFakeHost()

	result := NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, []string{cause.Error()}, host.failures)
}

func TestRunRecoversPanics(t *testing.T) {
	deployer := &fakeDeployer{panicV: "unexpected nil map"}
	host := newFakeHost()

	var result *DeploymentWorkflowResult
	require.NotPanics(t, func() {
		result = NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, deployer, host, zerolog.Nop()).Run(context.Background(), testInput())
	})

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, []string{"unexpected nil map"}, host.failures)
	assert.Empty(t, host.outputs)
}

func TestRunReportsFailureWhenFinalTrackingPanics(t *testing.T) {
	tracker := &fakeTracker{panicFinal: true}
	deployer := &fakeDeployer{outcome: &cloudways.DeployOutcome{
		OK:         false,
		StatusCode: http.StatusUnprocessableEntity,
		Body:       cloudways.DeployResponse{ErrorDescription: "Branch not found"},
	}}
	host := newFakeHost()

	var result *DeploymentWorkflowResult
	require.NotPanics(t, func() {
		result = NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, deployer, host, zerolog.Nop()).
			WithTracker(tracker).
			Run(context.Background(), testInput())
	})

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, "Branch not found", result.FailureReason)
	assert.Equal(t, []string{"Branch not found"}, host.failures)
	assert.Empty(t, host.outputs)
	require.Len(t, tracker.updates, 2)
	assert.Equal(t, tracking.StateFailure, tracker.updates[1].State)
}

func TestRunSucceedsWhenFinalTrackingPanics(t *testing.T) {
	tracker := &fakeTracker{panicFinal: true}
	host := newFakeHost()

	var result *DeploymentWorkflowResult
	require.NotPanics(t, func() {
		result = NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, &fakeDeployer{outcome: okOutcome("77")}, host, zerolog.Nop()).
			WithTracker(tracker).
			Run(context.Background(), testInput())
	})

	assert.True(t, result.Succeeded())
	assert.Empty(t, host.failures)
	assert.Equal(t, "77", host.outputs[OperationOutput])
}

func TestFailReportsOnlyOnce(t *testing.T) {
	host := newFakeHost()
	w := NewDeploymentWorkflow(&fakeAuthenticator{}, &fakeDeployer{}, host, zerolog.Nop())
	result := &DeploymentWorkflowResult{State: StateDeploying}

	w.fail(context.Background(), testInput(), result, errors.New("first"))
	w.fail(context.Background(), testInput(), result, errors.New("second"))

	assert.Equal(t, []string{"first"}, host.failures)
	assert.Equal(t, "first", result.FailureReason)
	assert.Equal(t, StateFailed, result.State)
}

func TestFailReportsWhenStateAlreadyFailed(t *testing.T) {
	host := newFakeHost()
	w := NewDeploymentWorkflow(&fakeAuthenticator{}, &fakeDeployer{}, host, zerolog.Nop())
	result := &DeploymentWorkflowResult{State: StateFailed, Transitions: []State{StateStart, StateFailed}}

	w.fail(context.Background(), testInput(), result, errors.New("late panic"))

	assert.Equal(t, []string{"late panic"}, host.failures)
	assert.Equal(t, []State{StateStart, StateFailed}, result.Transitions)
}

func TestRunTracksSuccessfulDeployment(t *testing.T) {
	tracker := &fakeTracker{}
	host := newFakeHost()

	result := NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, &fakeDeployer{outcome: okOutcome("555")}, host, zerolog.Nop()).
		WithTracker(tracker).
		Run(context.Background(), testInput())

	assert.True(t, result.Succeeded())
	assert.Equal(t, int64(42), result.GitHubDeploymentID)

	require.Len(t, tracker.created, 1)
	assert.Equal(t, "abc123", tracker.created[0].Ref)
	assert.Equal(t, "production", tracker.created[0].Environment)
	assert.Equal(t, "222", tracker.created[0].Payload["app_id"])

	require.Len(t, tracker.updates, 2)
	assert.Equal(t, tracking.StateInProgress, tracker.updates[0].State)
	assert.Equal(t, tracking.StateSuccess, tracker.updates[1].State)
	assert.Contains(t, tracker.updates[1].Description, "555")
	assert.Equal(t, "https://github.com/acme/site/actions/runs/7", tracker.updates[1].LogURL)
}

func TestRunTracksRejectedAndErroredDeployments(t *testing.T) {
	tests := []struct {
		name     string
		deployer *fakeDeployer
		want     string
	}{
		{
			name:     "rejected",
			deployer: &fakeDeployer{outcome: &cloudways.DeployOutcome{StatusCode: 422, Body: cloudways.DeployResponse{ErrorDescription: "Branch not found"}}},
			want:     tracking.StateFailure,
		},
		{
			name:     "transport",
			deployer: &fakeDeployer{err: &cloudways.Error{Kind: cloudways.KindTransportOrParsing, Message: "connection reset"}},
			want:     tracking.StateError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &fakeTracker{}

			NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, tt.deployer, newFakeHost(), zerolog.Nop()).
				WithTracker(tracker).
				Run(context.Background(), testInput())

			require.Len(t, tracker.updates, 2)
			assert.Equal(t, tt.want, tracker.updates[1].State)
		})
	}
}

func TestRunTrackingNotStartedWhenAuthFails(t *testing.T) {
	tracker := &fakeTracker{}

	NewDeploymentWorkflow(&fakeAuthenticator{err: errors.New("boom")}, &fakeDeployer{}, newFakeHost(), zerolog.Nop()).
		WithTracker(tracker).
		Run(context.Background(), testInput())

	assert.Empty(t, tracker.created)
	assert.Empty(t, tracker.updates)
}

func TestRunTrackingFailuresDoNotChangeOutcome(t *testing.T) {
	tracker := &fakeTracker{createErr: errors.New("github down")}
	host := newFakeHost()

	result := NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, &fakeDeployer{outcome: okOutcome("9")}, host, zerolog.Nop()).
		WithTracker(tracker).
		Run(context.Background(), testInput())

	assert.True(t, result.Succeeded())
	assert.Equal(t, "9", host.outputs[OperationOutput])
	assert.Empty(t, tracker.updates)

	tracker = &fakeTracker{updateErr: errors.New("github down")}
	host = newFakeHost()
	result = NewDeploymentWorkflow(&fakeAuthenticator{token: "tok"}, &fakeDeployer{outcome: okOutcome("9")}, host, zerolog.Nop()).
		WithTracker(tracker).
		Run(context.Background(), testInput())

	assert.True(t, result.Succeeded())
	assert.Empty(t, host.failures)
}

// End to end against a fake Cloudways API through the real client.
func TestRunAgainstCloudwaysAPI(t *testing.T) {
	var deployCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/oauth/access_token":
			_, _ = io.WriteString(w, `{"access_token":"live-token"}`)
		case "/api/v1/git/pull":
			deployCalls++
			assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `{"operation_id":123}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := cloudways.NewClient(config.CloudwaysConfig{APIURL: srv.URL + "/api/v1"}, zerolog.Nop())
	host := newFakeHost()

	result := NewDeploymentWorkflow(cloudways.NewAuthenticator(client), cloudways.NewDeployer(client), host, zerolog.Nop()).
		Run(context.Background(), testInput())

	assert.True(t, result.Succeeded())
	assert.Equal(t, 1, deployCalls)
	assert.Equal(t, "123", host.outputs[OperationOutput])
}
