package coordination

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/agentdesk/internal/registry"
	"github.com/ShayCichocki/agentdesk/internal/workflow"
)

// Sentinel errors returned by Service. Callers match them with errors.Is.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidAgent        = errors.New("invalid agent")
	ErrUnknownWorkflowType = workflow.ErrUnknownWorkflowType
	ErrNoPendingTask       = errors.New("no pending task")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrRoleMismatch        = workflow.ErrRoleMismatch
	ErrAgentBusy           = errors.New("agent already has a pending task in this project")
	ErrWorkflowExists      = errors.New("workflow already expanded for this project")
	ErrStoreUnavailable    = errors.New("coordination store unavailable")
)

// Kind is the stable name of an error class, reported to API callers.
type Kind string

const (
	KindInvalidRequest      Kind = "InvalidRequest"
	KindInvalidAgent        Kind = "InvalidAgent"
	KindUnknownWorkflowType Kind = "UnknownWorkflowType"
	KindNoPendingTask       Kind = "NoPendingTask"
	KindInvalidTransition   Kind = "InvalidTransition"
	KindRoleMismatch        Kind = "RoleMismatch"
	KindAgentBusy           Kind = "AgentBusy"
	KindWorkflowExists      Kind = "WorkflowExists"
	KindStoreUnavailable    Kind = "StoreUnavailable"
	KindInternal            Kind = "Internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrRoleMismatch, KindRoleMismatch},
	{ErrInvalidAgent, KindInvalidAgent},
	{registry.ErrAgentNotFound, KindInvalidAgent},
	{ErrUnknownWorkflowType, KindUnknownWorkflowType},
	{ErrNoPendingTask, KindNoPendingTask},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrAgentBusy, KindAgentBusy},
	{ErrWorkflowExists, KindWorkflowExists},
	{ErrStoreUnavailable, KindStoreUnavailable},
}

// Code classifies err. It returns "" for nil and KindInternal for errors
// outside the taxonomy.
func Code(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// storeError marks err as a persistence failure unless it is already classified.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if Code(err) != KindInternal {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
