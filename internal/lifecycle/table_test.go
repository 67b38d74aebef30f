// internal/lifecycle/table_test.go
//
// Run: go test ./internal/lifecycle -v

package lifecycle

import "testing"

func TestWorkflowTable(t *testing.T) {
	cases := []struct {
		from, to WorkflowState
		want     bool
	}{
		{WorkflowDraft, WorkflowSubmitted, true},
		{WorkflowDraft, WorkflowApproved, false}, // no skipping review
		{WorkflowSubmitted, WorkflowApproved, true},
		{WorkflowSubmitted, WorkflowRejected, true},
		{WorkflowSubmitted, WorkflowWithdrawn, true},
		{WorkflowApproved, WorkflowRejected, false}, // terminal
		{WorkflowRejected, WorkflowDraft, false},    // re-drafting is a new entity
		{WorkflowState("bogus"), WorkflowDraft, false},
	}
	for _, c := range cases {
		if got := Can(Workflow, c.from, c.to); got != c.want {
			t.Errorf("workflow %s → %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestInvoiceTable(t *testing.T) {
	cases := []struct {
		from, to InvoiceState
		want     bool
	}{
		{InvoiceDraft, InvoiceSent, true},
		{InvoiceDraft, InvoicePaid, false}, // must pass through sent
		{InvoiceDraft, InvoiceCancelled, true},
		{InvoiceSent, InvoicePaid, true},
		{InvoiceSent, InvoiceCancelled, true},
		{InvoicePaid, InvoiceSent, false}, // no reverse edge
		{InvoiceCancelled, InvoiceDraft, false},
	}
	for _, c := range cases {
		if got := Can(Invoice, c.from, c.to); got != c.want {
			t.Errorf("invoice %s → %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTaskTable(t *testing.T) {
	if Can(TaskTable, TaskTodo, TaskDone) {
		t.Error("todo → done must not skip in_progress")
	}
	if !Can(TaskTable, TaskTodo, TaskInProgress) || !Can(TaskTable, TaskInProgress, TaskDone) {
		t.Error("the forward path must be legal")
	}
}

func TestProjectTable(t *testing.T) {
	if !Can(Project, ProjectPlanning, ProjectActive) {
		t.Error("planning → active must be legal")
	}
	if Can(Project, ProjectCompleted, ProjectActive) {
		t.Error("completed projects must not reopen")
	}
	if !Can(Project, ProjectActive, ProjectCompleted) || !Can(Project, ProjectActive, ProjectCancelled) {
		t.Error("active → {completed, cancelled} must be legal")
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []WorkflowState{WorkflowApproved, WorkflowRejected, WorkflowWithdrawn} {
		if !Terminal(Workflow, s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	if Terminal(Workflow, WorkflowDraft) {
		t.Error("draft is not terminal")
	}
}

func TestRefuseNamesBothStates(t *testing.T) {
	err := Refuse("invoice", InvoicePaid, InvoiceSent)
	want := `invoice: cannot move from "paid" to "sent"`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
