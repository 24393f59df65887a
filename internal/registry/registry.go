// Package registry resolves agent identifiers to their role and display metadata.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ShayCichocki/agentdesk/pkg/models"
)

// ErrAgentNotFound is returned when an agent id or role has no registered agent.
var ErrAgentNotFound = errors.New("agent not found")

// Registry is an immutable set of agents keyed by id.
type Registry struct {
	byID   map[string]models.Agent
	byRole map[models.Role][]string
	ids    []string
}

// New builds a registry from the given agents.
// It rejects empty ids, duplicate ids and unknown roles.
func New(agents ...models.Agent) (*Registry, error) {
	r := &Registry{
		byID:   make(map[string]models.Agent, len(agents)),
		byRole: make(map[models.Role][]string),
	}

	for _, a := range agents {
		if a.ID == "" {
			return nil, fmt.Errorf("agent with empty id")
		}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("agent %q: unknown role %q", a.ID, a.Role)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", a.ID)
		}
		a.Capabilities = append([]string(nil), a.Capabilities...)
		r.byID[a.ID] = a
		r.byRole[a.Role] = append(r.byRole[a.Role], a.ID)
		r.ids = append(r.ids, a.ID)
	}

	sort.Strings(r.ids)
	for role := range r.byRole {
		sort.Strings(r.byRole[role])
	}

	return r, nil
}

// Default returns the registry of built-in agents.
func Default() *Registry {
	r, err := New(builtinAgents...)
	if err != nil {
		panic(fmt.Sprintf("registry: invalid built-in agents: %v", err))
	}
	return r
}

// Resolve returns the agent with the given id.
func (r *Registry) Resolve(id string) (models.Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return models.Agent{}, fmt.Errorf("%w: %q", ErrAgentNotFound, id)
	}
	return copyAgent(a), nil
}

// ForRole returns the agent with the lowest id that holds the role.
func (r *Registry) ForRole(role models.Role) (models.Agent, error) {
	ids := r.byRole[role]
	if len(ids) == 0 {
		return models.Agent{}, fmt.Errorf("%w: no agent with role %q", ErrAgentNotFound, role)
	}
	return copyAgent(r.byID[ids[0]]), nil
}

// List returns all agents sorted by id.
func (r *Registry) List() []models.Agent {
	out := make([]models.Agent, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, copyAgent(r.byID[id]))
	}
	return out
}

// Annotate fills the display annotations of a record. Unknown ids are left blank.
func (r *Registry) Annotate(rec *models.CoordinationRecord) {
	if a, ok := r.byID[rec.InitiatorAgentID]; ok {
		rec.Initiator = a.Ref()
	}
	if a, ok := r.byID[rec.TargetAgentID]; ok {
		rec.Target = a.Ref()
	}
}

func copyAgent(a models.Agent) models.Agent {
	a.Capabilities = append([]string(nil), a.Capabilities...)
	return a
}
