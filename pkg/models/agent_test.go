package models

import "testing"

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{"manager is valid", RoleManager, true},
		{"solutions_architect is valid", RoleSolutionsArchitect, true},
		{"ui_ux_designer is valid", RoleUIUXDesigner, true},
		{"frontend_developer is valid", RoleFrontendDeveloper, true},
		{"backend_developer is valid", RoleBackendDeveloper, true},
		{"mobile_developer is valid", RoleMobileDeveloper, true},
		{"qa_engineer is valid", RoleQAEngineer, true},
		{"security_engineer is valid", RoleSecurityEngineer, true},
		{"devops_engineer is valid", RoleDevOpsEngineer, true},
		{"technical_writer is valid", RoleTechnicalWriter, true},
		{"empty string is invalid", Role(""), false},
		{"display name is invalid", Role("Manager"), false},
		{"unknown role is invalid", Role("janitor"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestAgent_Ref(t *testing.T) {
	agent := Agent{
		ID:   "qa_engineer",
		Name: "QA Engineer",
		Role: RoleQAEngineer,
	}

	ref := agent.Ref()
	if ref == nil {
		t.Fatal("Ref() returned nil")
	}
	if ref.Name != "QA Engineer" {
		t.Errorf("Ref().Name = %q, want %q", ref.Name, "QA Engineer")
	}
	if ref.Role != RoleQAEngineer {
		t.Errorf("Ref().Role = %q, want %q", ref.Role, RoleQAEngineer)
	}
}
