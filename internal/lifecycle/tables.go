// internal/lifecycle/tables.go
//
// The per-entity state vocabularies and their legal moves.  These tables
// are process-wide, read-only configuration; adding an edge is a reviewed
// change here, not a runtime decision.
package lifecycle

//
// Workflow request
//

type WorkflowState string

const (
	WorkflowDraft     WorkflowState = "draft"
	WorkflowSubmitted WorkflowState = "submitted"
	WorkflowApproved  WorkflowState = "approved"
	WorkflowRejected  WorkflowState = "rejected"
	WorkflowWithdrawn WorkflowState = "withdrawn"
)

// Workflow: approved, rejected, and withdrawn are terminal.  Re-drafting a
// rejected request means creating a new one; that is the service's concern,
// not an edge here.
var Workflow = Table[WorkflowState]{
	WorkflowDraft:     {WorkflowSubmitted},
	WorkflowSubmitted: {WorkflowApproved, WorkflowRejected, WorkflowWithdrawn},
}

//
// Invoice
//

type InvoiceState string

const (
	InvoiceDraft     InvoiceState = "draft"
	InvoiceSent      InvoiceState = "sent"
	InvoicePaid      InvoiceState = "paid"
	InvoiceCancelled InvoiceState = "cancelled"
)

// Invoice: payment requires the invoice to have been sent, and a paid or
// cancelled invoice never moves again.
var Invoice = Table[InvoiceState]{
	InvoiceDraft: {InvoiceSent, InvoiceCancelled},
	InvoiceSent:  {InvoicePaid, InvoiceCancelled},
}

//
// Task
//

type TaskState string

const (
	TaskTodo       TaskState = "todo"
	TaskInProgress TaskState = "in_progress"
	TaskDone       TaskState = "done"
)

// Task: no skipping straight from todo to done.
var TaskTable = Table[TaskState]{
	TaskTodo:       {TaskInProgress},
	TaskInProgress: {TaskDone},
}

//
// Project
//

type ProjectState string

const (
	ProjectPlanning  ProjectState = "planning"
	ProjectActive    ProjectState = "active"
	ProjectCompleted ProjectState = "completed"
	ProjectCancelled ProjectState = "cancelled"
)

// Project: completed and cancelled are terminal; no reopening edges.
var Project = Table[ProjectState]{
	ProjectPlanning: {ProjectActive},
	ProjectActive:   {ProjectCompleted, ProjectCancelled},
}
