// internal/store/registry.go
//
// Entity registry for tenant scoping.
//
// Context
// -------
// Membership in the tenant-scoped set is a closed, reviewed list, never
// inferred at runtime.  Adding a new scoped entity is a deliberate change
// to this file: name the constant, add its table metadata, done.  Entities
// absent from the map (tenant, user, tenant_counter) are global and pass
// through the chokepoint untouched.
//
// Notes
// -----
//   - Table and column names live here and nowhere else; the executor
//     builds its SQL from this metadata.
//   - Oxford commas, two spaces after periods.
package store

// Entity names a data type the executor knows how to reach.
type Entity string

// Tenant-scoped entities.
const (
	EntityWorkflow           Entity = "workflow"
	EntityWorkflowAttachment Entity = "workflow_attachment"
	EntityProject            Entity = "project"
	EntityProjectMember      Entity = "project_member"
	EntityTask               Entity = "task"
	EntityTimesheet          Entity = "timesheet"
	EntityExpense            Entity = "expense"
	EntityNotification       Entity = "notification"
	EntityAuditLog           Entity = "audit_log"
	EntityInvoice            Entity = "invoice"
	EntityInvoiceLineItem    Entity = "invoice_line_item"
	EntityDocument           Entity = "document"
	EntityUserRole           Entity = "user_role"
)

// Global entities (never filtered).
const (
	EntityTenant        Entity = "tenant"
	EntityUser          Entity = "user"
	EntityTenantCounter Entity = "tenant_counter"
)

// meta describes how an entity maps onto physical storage.
type meta struct {
	Table        string
	TenantColumn string
}

// tenantScoped is the closed registry.  Every entity listed here gets the
// ambient tenant ID merged into its filters and stamped onto its payloads.
var tenantScoped = map[Entity]meta{
	EntityWorkflow:           {Table: "workflow", TenantColumn: "tenant_id"},
	EntityWorkflowAttachment: {Table: "workflow_attachment", TenantColumn: "tenant_id"},
	EntityProject:            {Table: "project", TenantColumn: "tenant_id"},
	EntityProjectMember:      {Table: "project_member", TenantColumn: "tenant_id"},
	EntityTask:               {Table: "task", TenantColumn: "tenant_id"},
	EntityTimesheet:          {Table: "timesheet", TenantColumn: "tenant_id"},
	EntityExpense:            {Table: "expense", TenantColumn: "tenant_id"},
	EntityNotification:       {Table: "notification", TenantColumn: "tenant_id"},
	EntityAuditLog:           {Table: "audit_log", TenantColumn: "tenant_id"},
	EntityInvoice:            {Table: "invoice", TenantColumn: "tenant_id"},
	EntityInvoiceLineItem:    {Table: "invoice_line_item", TenantColumn: "tenant_id"},
	EntityDocument:           {Table: "document", TenantColumn: "tenant_id"},
	EntityUserRole:           {Table: "user_role", TenantColumn: "tenant_id"},
}

// global maps unscoped entities to their tables so the executor can serve
// them through the same funnel.
var global = map[Entity]string{
	EntityTenant:        "tenant",
	EntityUser:          "user",
	EntityTenantCounter: "tenant_counter",
}

// Scoped reports whether e is subject to automatic tenant filtering.
func Scoped(e Entity) bool {
	_, ok := tenantScoped[e]
	return ok
}

// tableOf resolves the physical table for e.  Unknown entities yield "",
// which the executor rejects before building any SQL.
func tableOf(e Entity) string {
	if m, ok := tenantScoped[e]; ok {
		return m.Table
	}
	return global[e]
}
