package ports

import (
	"context"
	"time"

	"github.com/tiomfree/pyspur/internal/domain"
)

// WorkflowRecord is a stored workflow: identity, metadata and the
// validated definition at one version.
type WorkflowRecord struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Version     int64                      `json:"version"`
	Definition  *domain.WorkflowDefinition `json:"definition"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// WorkflowStorePort is the persistence collaborator: create/read/
// update/delete by identifier, with every save recorded as an immutable
// version snapshot readable by GetVersion. Finished runs are kept
// alongside the definitions they executed.
type WorkflowStorePort interface {
	Create(ctx context.Context, name, description string, def *domain.WorkflowDefinition) (*WorkflowRecord, error)
	Get(ctx context.Context, id string) (*WorkflowRecord, error)
	GetVersion(ctx context.Context, id string, version int64) (*WorkflowRecord, error)
	Update(ctx context.Context, id string, def *domain.WorkflowDefinition) (*WorkflowRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*WorkflowRecord, error)
	SaveRun(ctx context.Context, run *domain.WorkflowRun) error
	GetRun(ctx context.Context, id string) (*domain.WorkflowRun, error)
	Close() error
}
