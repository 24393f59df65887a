package registry

import (
	"errors"
	"testing"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

func TestDefault_ResolvesBuiltins(t *testing.T) {
	r := Default()

	tests := []struct {
		id   string
		role models.Role
	}{
		{"manager", models.RoleManager},
		{"solutions_architect", models.RoleSolutionsArchitect},
		{"qa_engineer", models.RoleQAEngineer},
		{"security_engineer", models.RoleSecurityEngineer},
		{"devops_engineer", models.RoleDevOpsEngineer},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			a, err := r.Resolve(tt.id)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.id, err)
			}
			if a.Role != tt.role {
				t.Errorf("Resolve(%q).Role = %q, want %q", tt.id, a.Role, tt.role)
			}
			if a.Name == "" {
				t.Errorf("Resolve(%q).Name is empty", tt.id)
			}
		})
	}
}

func TestDefault_EveryRoleHasAnAgent(t *testing.T) {
	r := Default()
	roles := []models.Role{
		models.RoleManager, models.RoleSolutionsArchitect, models.RoleUIUXDesigner,
		models.RoleFrontendDeveloper, models.RoleBackendDeveloper, models.RoleMobileDeveloper,
		models.RoleQAEngineer, models.RoleSecurityEngineer, models.RoleDevOpsEngineer,
		models.RoleTechnicalWriter,
	}
	for _, role := range roles {
		if _, err := r.ForRole(role); err != nil {
			t.Errorf("ForRole(%q) failed: %v", role, err)
		}
	}
}

func TestResolve_NotFound(t *testing.T) {
	r := Default()

	_, err := r.Resolve("intern")
	if err == nil {
		t.Fatal("expected error for unknown agent")
	}
	if !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("error = %v, want ErrAgentNotFound", err)
	}
}

func TestForRole_LowestIDWins(t *testing.T) {
	r, err := New(
		models.Agent{ID: "qa-b", Name: "QA B", Role: models.RoleQAEngineer},
		models.Agent{ID: "qa-a", Name: "QA A", Role: models.RoleQAEngineer},
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	a, err := r.ForRole(models.RoleQAEngineer)
	if err != nil {
		t.Fatalf("ForRole failed: %v", err)
	}
	if a.ID != "qa-a" {
		t.Errorf("ForRole().ID = %q, want %q", a.ID, "qa-a")
	}

	if _, err := r.ForRole(models.RoleManager); !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("ForRole(manager) error = %v, want ErrAgentNotFound", err)
	}
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		agents []models.Agent
	}{
		{"empty id", []models.Agent{{ID: "", Role: models.RoleManager}}},
		{"unknown role", []models.Agent{{ID: "x", Role: models.Role("janitor")}}},
		{"duplicate id", []models.Agent{
			{ID: "m", Role: models.RoleManager},
			{ID: "m", Role: models.RoleQAEngineer},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.agents...); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestList_SortedAndDetached(t *testing.T) {
	r := Default()

	agents := r.List()
	if len(agents) != len(builtinAgents) {
		t.Fatalf("List() returned %d agents, want %d", len(agents), len(builtinAgents))
	}
	for i := 1; i < len(agents); i++ {
		if agents[i-1].ID >= agents[i].ID {
			t.Errorf("List() not sorted at %d: %q >= %q", i, agents[i-1].ID, agents[i].ID)
		}
	}

	// Mutating a returned agent must not leak into the registry.
	agents[0].Capabilities = append(agents[0].Capabilities[:0], "mutated")
	again, _ := r.Resolve(agents[0].ID)
	for _, c := range again.Capabilities {
		if c == "mutated" {
			t.Error("registry state was mutated through List()")
		}
	}
}

func TestAnnotate(t *testing.T) {
	r := Default()

	rec := &models.CoordinationRecord{InitiatorAgentID: "manager", TargetAgentID: "ghost"}
	r.Annotate(rec)

	if rec.Initiator == nil || rec.Initiator.Role != models.RoleManager {
		t.Errorf("Initiator = %+v, want manager annotation", rec.Initiator)
	}
	if rec.Target != nil {
		t.Errorf("Target = %+v, want nil for unknown agent", rec.Target)
	}
}
