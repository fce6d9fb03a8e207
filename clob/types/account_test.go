package types

import "testing"

func TestApprovalStatus_AllApproved(t *testing.T) {
	// AllApproved holds exactly when every flag is clear.
	for i := 0; i < 8; i++ {
		status := ApprovalStatus{
			NeedsCollateralSupport:  i&1 != 0,
			NeedsCollateralExchange: i&2 != 0,
			NeedsOutcomeExchange:    i&4 != 0,
		}
		want := i == 0
		if got := status.AllApproved(); got != want {
			t.Errorf("AllApproved %+v got=%v want=%v", status, got, want)
		}
	}
}

func TestApprovalStatus_Missing(t *testing.T) {
	cases := []struct {
		status ApprovalStatus
		want   int
	}{
		{ApprovalStatus{}, 0},
		{ApprovalStatus{NeedsCollateralSupport: true}, 1},
		{ApprovalStatus{NeedsCollateralSupport: true, NeedsOutcomeExchange: true}, 2},
		{ApprovalStatus{NeedsCollateralSupport: true, NeedsCollateralExchange: true, NeedsOutcomeExchange: true}, 3},
	}
	for _, tc := range cases {
		if got := tc.status.Missing(); got != tc.want {
			t.Errorf("Missing %+v got=%d want=%d", tc.status, got, tc.want)
		}
	}
}

func TestDeploymentState_String(t *testing.T) {
	cases := []struct {
		state DeploymentState
		want  string
	}{
		{DeploymentUnknown, "unknown"},
		{DeploymentMissing, "not-deployed"},
		{DeploymentDeployed, "deployed"},
		{DeploymentState(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("String(%d) got=%q want=%q", tc.state, got, tc.want)
		}
	}
}
