package registry

import "github.com/ShayCichocki/agentdesk/pkg/models"

var builtinAgents = []models.Agent{
	{
		ID:           "manager",
		Name:         "Manager",
		Role:         models.RoleManager,
		Description:  "Breaks projects into workflows, delegates steps and signs off on results.",
		Capabilities: []string{"planning", "delegation", "review"},
	},
	{
		ID:           "solutions_architect",
		Name:         "Solutions Architect",
		Role:         models.RoleSolutionsArchitect,
		Description:  "Designs system architecture, data models and integration boundaries.",
		Capabilities: []string{"architecture", "data-modeling", "tech-selection"},
	},
	{
		ID:           "ui_ux_designer",
		Name:         "UI/UX Designer",
		Role:         models.RoleUIUXDesigner,
		Description:  "Produces user flows, wireframes and visual design guidance.",
		Capabilities: []string{"wireframes", "user-flows", "design-systems"},
	},
	{
		ID:           "frontend_developer",
		Name:         "Frontend Developer",
		Role:         models.RoleFrontendDeveloper,
		Description:  "Implements web user interfaces and client-side state.",
		Capabilities: []string{"web-ui", "accessibility", "client-state"},
	},
	{
		ID:           "backend_developer",
		Name:         "Backend Developer",
		Role:         models.RoleBackendDeveloper,
		Description:  "Implements APIs, business logic and persistence.",
		Capabilities: []string{"apis", "databases", "integrations"},
	},
	{
		ID:           "mobile_developer",
		Name:         "Mobile Developer",
		Role:         models.RoleMobileDeveloper,
		Description:  "Implements iOS and Android applications.",
		Capabilities: []string{"ios", "android", "offline-sync"},
	},
	{
		ID:           "qa_engineer",
		Name:         "QA Engineer",
		Role:         models.RoleQAEngineer,
		Description:  "Writes test plans, automates tests and reports defects.",
		Capabilities: []string{"test-planning", "automation", "regression"},
	},
	{
		ID:           "security_engineer",
		Name:         "Security Engineer",
		Role:         models.RoleSecurityEngineer,
		Description:  "Threat-models designs and reviews code and infrastructure for vulnerabilities.",
		Capabilities: []string{"threat-modeling", "code-review", "compliance"},
	},
	{
		ID:           "devops_engineer",
		Name:         "DevOps Engineer",
		Role:         models.RoleDevOpsEngineer,
		Description:  "Builds CI/CD pipelines, infrastructure and deployment automation.",
		Capabilities: []string{"ci-cd", "infrastructure", "monitoring"},
	},
	{
		ID:           "technical_writer",
		Name:         "Technical Writer",
		Role:         models.RoleTechnicalWriter,
		Description:  "Writes user documentation, runbooks and audit reports.",
		Capabilities: []string{"documentation", "runbooks", "reports"},
	},
}
