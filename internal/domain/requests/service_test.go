package requests

import (
	"context"
	"errors"
	"testing"

	"unihr/internal/domain/authz"
	"unihr/internal/domain/directory"
	"unihr/internal/platform/metrics"
)

// standard org for workflow tests: one academic department with a staff
// member, a team lead and a department head.
func orgDir() *fakeDir {
	dir := newFakeDir()
	dir.addDepartment("dep-1", "fac-1", directory.DepartmentAcademic, "pos-head")
	dir.addPosition("pos-staff", 3, "dep-1", "")
	dir.addPosition("pos-lead", 5, "dep-1", "")
	dir.addPosition("pos-head", 8, "dep-1", "")
	dir.addEmployee("emp-staff", "user-staff", "pos-staff", "dep-1")
	dir.addEmployee("emp-lead", "user-lead", "pos-lead", "dep-1")
	dir.addEmployee("emp-head", "user-head", "pos-head", "dep-1")
	return dir
}

func newTestService(dir *fakeDir) (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, dir, authz.NewResolver(dir), metrics.New()), store
}

func userStep(seq int, userIDs ...string) Step {
	step := Step{Seq: seq, Name: "approval"}
	for _, id := range userIDs {
		step.Approvers = append(step.Approvers, StepApprover{Kind: authz.ApproverUser, UserID: id})
	}
	return step
}

func mustCreateType(t *testing.T, svc *Service, steps ...Step) *RequestType {
	t.Helper()
	rt := &RequestType{Name: "equipment", Steps: steps}
	if err := svc.CreateType(context.Background(), rt); err != nil {
		t.Fatalf("create type: %v", err)
	}
	return rt
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusFulfillment},
		{StatusFulfillment, StatusCompleted},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	forbidden := [][2]string{
		{StatusApproved, StatusPending},
		{StatusRejected, StatusApproved},
		{StatusCompleted, StatusFulfillment},
		{StatusPending, StatusCompleted},
		{StatusFulfillment, StatusRejected},
	}
	for _, pair := range forbidden {
		if CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be forbidden", pair[0], pair[1])
		}
	}
}

func TestSubmitResolvesFirstStep(t *testing.T) {
	svc, store := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))

	req, err := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != StatusPending || req.CurrentStepSeq != 1 {
		t.Fatalf("unexpected request state: %+v", req)
	}

	actions, _ := store.Actions(context.Background(), req.ID)
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].UserID != "user-lead" || actions[0].Status != ActionPending {
		t.Fatalf("unexpected action: %+v", actions[0])
	}
}

func TestSubmitSelfApproverEscalates(t *testing.T) {
	svc, store := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-staff"))

	req, err := svc.Submit(context.Background(), rt.ID, "user-staff", "conference travel")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	actions, _ := store.Actions(context.Background(), req.ID)
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	// The closest higher position in the department takes over.
	if actions[0].UserID != "user-lead" || !actions[0].Escalated {
		t.Fatalf("expected escalation to user-lead, got %+v", actions[0])
	}
	if actions[0].OriginalReference != "user-staff" {
		t.Fatalf("expected original reference preserved, got %q", actions[0].OriginalReference)
	}
}

func TestSubmitZeroApprovers(t *testing.T) {
	dir := orgDir()
	dir.addEmployee("emp-bare", "user-bare", "", "")
	svc, _ := newTestService(dir)
	rt := mustCreateType(t, svc, userStep(1, "user-bare"))

	// The only approver is the requester and escalation has nowhere to go.
	if _, err := svc.Submit(context.Background(), rt.ID, "user-bare", "x"); !errors.Is(err, ErrNoApprovers) {
		t.Fatalf("expected ErrNoApprovers, got %v", err)
	}
}

func TestSubmitUnknownType(t *testing.T) {
	svc, _ := newTestService(orgDir())
	if _, err := svc.Submit(context.Background(), "missing", "user-staff", "x"); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestSubmitRequiresEmployee(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))
	if _, err := svc.Submit(context.Background(), rt.ID, "user-ghost", "x"); !errors.Is(err, ErrNoEmployee) {
		t.Fatalf("expected ErrNoEmployee, got %v", err)
	}
}

func TestApproveSingleStep(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	approved, err := svc.Approve(context.Background(), req.ID, "user-lead")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %q", approved.Status)
	}
}

func TestApproveWaitsForAllStepApprovers(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead", "user-head"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	after, err := svc.Approve(context.Background(), req.ID, "user-lead")
	if err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if after.Status != StatusPending {
		t.Fatalf("expected pending after first approval, got %q", after.Status)
	}

	after, err = svc.Approve(context.Background(), req.ID, "user-head")
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if after.Status != StatusApproved {
		t.Fatalf("expected approved after second approval, got %q", after.Status)
	}
}

func TestApproveAdvancesToNextStep(t *testing.T) {
	svc, store := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"), userStep(2, "user-head"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	after, err := svc.Approve(context.Background(), req.ID, "user-lead")
	if err != nil {
		t.Fatalf("approve step 1: %v", err)
	}
	if after.Status != StatusPending || after.CurrentStepSeq != 2 {
		t.Fatalf("expected pending at step 2, got %+v", after)
	}

	// The second step's actions were resolved at arrival.
	actions, _ := store.Actions(context.Background(), req.ID)
	pending := 0
	for _, a := range actions {
		if a.Status == ActionPending {
			pending++
			if a.UserID != "user-head" {
				t.Fatalf("expected step-2 action for user-head, got %+v", a)
			}
		}
	}
	if pending != 1 {
		t.Fatalf("expected 1 pending action, got %d", pending)
	}

	after, err = svc.Approve(context.Background(), req.ID, "user-head")
	if err != nil {
		t.Fatalf("approve step 2: %v", err)
	}
	if after.Status != StatusApproved {
		t.Fatalf("expected approved, got %q", after.Status)
	}
}

func TestRejectIsTerminal(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"), userStep(2, "user-head"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	rejected, err := svc.Reject(context.Background(), req.ID, "user-lead")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Fatalf("expected rejected, got %q", rejected.Status)
	}

	if _, err := svc.Approve(context.Background(), req.ID, "user-head"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after rejection, got %v", err)
	}
}

func TestApproveRejectsRequester(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	if _, err := svc.Approve(context.Background(), req.ID, "user-staff"); !errors.Is(err, ErrSelfApproval) {
		t.Fatalf("expected ErrSelfApproval, got %v", err)
	}
}

func TestApproveRejectsBystander(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	if _, err := svc.Approve(context.Background(), req.ID, "user-head"); !errors.Is(err, ErrNotApprover) {
		t.Fatalf("expected ErrNotApprover, got %v", err)
	}
}

func TestUnresolvedRoleClaimedByLiveMember(t *testing.T) {
	dir := orgDir()
	dir.addEmployee("emp-bare", "user-bare", "", "")
	svc, store := newTestService(dir)

	rt := mustCreateType(t, svc, Step{Seq: 1, Name: "audit", Approvers: []StepApprover{
		{Kind: authz.ApproverRole, RoleID: "role-audit"},
	}})

	// A requester without a department gets the role entry passed through
	// unresolved.
	req, err := svc.Submit(context.Background(), rt.ID, "user-bare", "records access")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	actions, _ := store.Actions(context.Background(), req.ID)
	if len(actions) != 1 || actions[0].UserID != "" || actions[0].RoleID != "role-audit" {
		t.Fatalf("expected unresolved role action, got %+v", actions)
	}

	// Non-members cannot claim it.
	if _, err := svc.Approve(context.Background(), req.ID, "user-lead"); !errors.Is(err, ErrNotApprover) {
		t.Fatalf("expected ErrNotApprover for non-member, got %v", err)
	}

	// Membership is checked live at act time.
	dir.grantRole("user-lead", "role-audit")
	after, err := svc.Approve(context.Background(), req.ID, "user-lead")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if after.Status != StatusApproved {
		t.Fatalf("expected approved, got %q", after.Status)
	}
}

func TestUnresolvedPositionClaimedByOccupant(t *testing.T) {
	dir := orgDir()
	dir.addPosition("pos-vacant", 6, "dep-1", "")
	svc, store := newTestService(dir)

	rt := mustCreateType(t, svc, Step{Seq: 1, Name: "review", Approvers: []StepApprover{
		{Kind: authz.ApproverPosition, PositionID: "pos-vacant"},
	}})

	req, err := svc.Submit(context.Background(), rt.ID, "user-staff", "budget line")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	actions, _ := store.Actions(context.Background(), req.ID)
	if len(actions) != 1 || actions[0].UserID != "" || actions[0].PositionID != "pos-vacant" {
		t.Fatalf("expected unresolved position action, got %+v", actions)
	}

	// Someone appointed after submission can act on it.
	dir.addEmployee("emp-new", "user-new", "pos-vacant", "dep-1")
	after, err := svc.Approve(context.Background(), req.ID, "user-new")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if after.Status != StatusApproved {
		t.Fatalf("expected approved, got %q", after.Status)
	}
}

func TestInbox(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	inbox, err := svc.Inbox(context.Background(), "user-lead")
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].ID != req.ID {
		t.Fatalf("expected the request in user-lead's inbox, got %+v", inbox)
	}

	if inbox, _ = svc.Inbox(context.Background(), "user-head"); len(inbox) != 0 {
		t.Fatalf("expected empty inbox for user-head, got %+v", inbox)
	}
	// Requesters never see their own requests as actionable.
	if inbox, _ = svc.Inbox(context.Background(), "user-staff"); len(inbox) != 0 {
		t.Fatalf("expected empty inbox for requester, got %+v", inbox)
	}
}

func TestFulfillAndComplete(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))
	req, _ := svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")

	if _, err := svc.Fulfill(context.Background(), req.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending request, got %v", err)
	}

	if _, err := svc.Approve(context.Background(), req.ID, "user-lead"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	fulfilled, err := svc.Fulfill(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if fulfilled.Status != StatusFulfillment {
		t.Fatalf("expected fulfillment, got %q", fulfilled.Status)
	}

	completed, err := svc.Complete(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", completed.Status)
	}
}

func TestListForUser(t *testing.T) {
	svc, _ := newTestService(orgDir())
	rt := mustCreateType(t, svc, userStep(1, "user-lead"))
	_, _ = svc.Submit(context.Background(), rt.ID, "user-staff", "laptop")
	_, _ = svc.Submit(context.Background(), rt.ID, "user-head", "monitor")

	own, total, err := svc.ListForUser(context.Background(), "user-staff", "", 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(own) != 1 || own[0].RequesterEmployeeID != "emp-staff" {
		t.Fatalf("expected only own requests, got %+v", own)
	}
}
