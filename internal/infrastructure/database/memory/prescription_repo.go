// Package memory provides an in-process prescription repository used by the
// CLI and by tests. Stored aggregates are deep-copied on the way in and out.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// PrescriptionRepo implements prescription.Repository over a map.
type PrescriptionRepo struct {
	mu    sync.RWMutex
	items map[string]*medication.Prescription
}

// NewPrescriptionRepo returns an empty repository.
func NewPrescriptionRepo() *PrescriptionRepo {
	return &PrescriptionRepo{items: make(map[string]*medication.Prescription)}
}

// Add implements prescription.Repository.
func (r *PrescriptionRepo) Add(ctx context.Context, p *medication.Prescription) (string, error) {
	if p == nil {
		return "", errors.New(errors.CodeInvalidParam, "prescription is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, exists := r.items[p.ID]; exists {
		return "", errors.New(errors.CodeConflict, "prescription already exists").WithDetail(p.ID)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	cp, err := clone(p)
	if err != nil {
		return "", err
	}
	r.items[p.ID] = cp
	return p.ID, nil
}

// Get implements prescription.Repository.
func (r *PrescriptionRepo) Get(ctx context.Context, id string) (*medication.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found").WithDetail(id)
	}
	return clone(p)
}

// Update implements prescription.Repository.
func (r *PrescriptionRepo) Update(ctx context.Context, id string, patch prescription.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found").WithDetail(id)
	}
	next, err := clone(p)
	if err != nil {
		return err
	}
	if patch.UpdatedAt.IsZero() {
		patch.UpdatedAt = time.Now()
	}
	if err := prescription.ApplyPatch(next, patch); err != nil {
		return err
	}
	r.items[id] = next
	return nil
}

// FindByStatus implements prescription.Repository.
func (r *PrescriptionRepo) FindByStatus(ctx context.Context, status medication.Status) ([]*medication.Prescription, error) {
	return r.find(func(p *medication.Prescription) bool { return p.Status == status }, 0, 0)
}

// FindByUser implements prescription.Repository. Results are newest first.
func (r *PrescriptionRepo) FindByUser(ctx context.Context, userID string, filter prescription.ListFilter) ([]*medication.Prescription, error) {
	return r.find(func(p *medication.Prescription) bool {
		return p.UserID == userID && (filter.Status == "" || p.Status == filter.Status)
	}, filter.Limit, filter.Offset)
}

// Delete implements prescription.Repository.
func (r *PrescriptionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return errors.New(errors.ErrCodePrescriptionNotFound, "prescription not found").WithDetail(id)
	}
	delete(r.items, id)
	return nil
}

// Len reports the number of stored prescriptions.
func (r *PrescriptionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *PrescriptionRepo) find(keep func(*medication.Prescription) bool, limit, offset int) ([]*medication.Prescription, error) {
	r.mu.RLock()
	matched := make([]*medication.Prescription, 0)
	for _, p := range r.items {
		if keep(p) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if offset > 0 {
		if offset >= len(matched) {
			matched = matched[:0]
		} else {
			matched = matched[offset:]
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*medication.Prescription, 0, len(matched))
	for _, p := range matched {
		cp, err := clone(p)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func clone(p *medication.Prescription) (*medication.Prescription, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "copy prescription")
	}
	var out medication.Prescription
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "copy prescription")
	}
	return &out, nil
}

//Personal.AI order the ending
