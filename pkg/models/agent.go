package models

// Role identifies the job an agent persona performs.
type Role string

const (
	// RoleManager coordinates the other agents and owns workflow expansion.
	RoleManager Role = "manager"
	// RoleSolutionsArchitect designs system architecture.
	RoleSolutionsArchitect Role = "solutions_architect"
	// RoleUIUXDesigner produces interface and interaction designs.
	RoleUIUXDesigner Role = "ui_ux_designer"
	// RoleFrontendDeveloper implements user-facing web code.
	RoleFrontendDeveloper Role = "frontend_developer"
	// RoleBackendDeveloper implements services, APIs and data layers.
	RoleBackendDeveloper Role = "backend_developer"
	// RoleMobileDeveloper implements mobile applications.
	RoleMobileDeveloper Role = "mobile_developer"
	// RoleQAEngineer plans and runs tests.
	RoleQAEngineer Role = "qa_engineer"
	// RoleSecurityEngineer reviews threats and vulnerabilities.
	RoleSecurityEngineer Role = "security_engineer"
	// RoleDevOpsEngineer owns build, deploy and infrastructure.
	RoleDevOpsEngineer Role = "devops_engineer"
	// RoleTechnicalWriter writes documentation and reports.
	RoleTechnicalWriter Role = "technical_writer"
)

// Valid returns true if the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleSolutionsArchitect, RoleUIUXDesigner, RoleFrontendDeveloper,
		RoleBackendDeveloper, RoleMobileDeveloper, RoleQAEngineer, RoleSecurityEngineer,
		RoleDevOpsEngineer, RoleTechnicalWriter:
		return true
	default:
		return false
	}
}

// Agent is an AI persona that can initiate or receive coordination records.
type Agent struct {
	// ID is the unique identifier used in coordination records.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Role is the agent's job.
	Role Role `json:"role"`
	// Description summarizes what the agent is responsible for.
	Description string `json:"description,omitempty"`
	// Capabilities lists the kinds of work the agent accepts.
	Capabilities []string `json:"capabilities,omitempty"`
}

// Ref returns the display annotation for this agent.
func (a Agent) Ref() *AgentRef {
	return &AgentRef{Name: a.Name, Role: a.Role}
}

// AgentRef is the display metadata attached to records on read.
type AgentRef struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}
