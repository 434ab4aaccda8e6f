package prescription

import (
	"context"
	"time"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// Patch is a partial update of a prescription aggregate. Nil fields are left
// untouched.
type Patch struct {
	Status              *medication.Status
	NLPResult           *medication.NLPResult
	MedicationSchedules *[]medication.MedicationSchedule
	Images              *medication.ImageURLs
	UpdatedAt           time.Time
}

// ListFilter narrows FindByUser.
type ListFilter struct {
	Status medication.Status
	Limit  int
	Offset int
}

// Repository defines the persistence contract for prescription aggregates.
type Repository interface {
	// Add stores p, assigning an id when p.ID is empty, and returns the id.
	Add(ctx context.Context, p *medication.Prescription) (string, error)
	Get(ctx context.Context, id string) (*medication.Prescription, error)
	Update(ctx context.Context, id string, patch Patch) error
	FindByStatus(ctx context.Context, status medication.Status) ([]*medication.Prescription, error)
	FindByUser(ctx context.Context, userID string, filter ListFilter) ([]*medication.Prescription, error)
	Delete(ctx context.Context, id string) error
}

//Personal.AI order the ending
