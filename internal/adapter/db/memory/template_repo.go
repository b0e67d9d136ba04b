package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"typeb/internal/core/domain"
	"typeb/internal/core/ports"
)

// TemplateRepo is the in-memory counterpart of the MySQL template
// repository, including the compare-and-advance on LastScheduledAt.
type TemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]domain.RecurrenceTemplate
}

var _ ports.TemplateRepository = (*TemplateRepo)(nil)

func NewTemplateRepo() *TemplateRepo {
	return &TemplateRepo{templates: make(map[string]domain.RecurrenceTemplate)}
}

func (r *TemplateRepo) Create(_ context.Context, tpl domain.RecurrenceTemplate) (domain.RecurrenceTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tpl.ID] = tpl
	return tpl, nil
}

func (r *TemplateRepo) Get(_ context.Context, id string) (domain.RecurrenceTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[id]
	if !ok {
		return domain.RecurrenceTemplate{}, domain.ErrTemplateNotFound
	}
	return tpl, nil
}

func (r *TemplateRepo) ListActive(_ context.Context) ([]domain.RecurrenceTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var templates []domain.RecurrenceTemplate
	for _, tpl := range r.templates {
		if tpl.Active {
			templates = append(templates, tpl)
		}
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}

func (r *TemplateRepo) AdvanceSchedule(_ context.Context, id string, from, to time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl, ok := r.templates[id]
	if !ok {
		return false, domain.ErrTemplateNotFound
	}
	if !tpl.LastScheduledAt.Equal(from) {
		return false, nil
	}
	tpl.LastScheduledAt = to
	tpl.UpdatedAt = time.Now().UTC()
	r.templates[id] = tpl
	return true, nil
}

func (r *TemplateRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl, ok := r.templates[id]
	if !ok {
		return domain.ErrTemplateNotFound
	}
	tpl.Active = false
	r.templates[id] = tpl
	return nil
}
