// Package branch routes the per-branch service endpoints to the matching
// transaction orchestrator.
package branch

import (
	"context"
	"strings"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/models"
	"clinic-backend/internal/servicetx"

	"github.com/rs/zerolog"
)

type Registry struct {
	bySlug  map[string]servicetx.Handle
	byModel map[models.BranchModel]servicetx.Handle
	order   []servicetx.Handle
}

func define(model models.BranchModel) servicetx.Branch {
	label := string(model)
	return servicetx.Branch{
		Model:          model,
		Slug:           strings.ToLower(label),
		Label:          label,
		IncomeCategory: label,
	}
}

// NewRegistry builds one orchestrator per branch table over the same store.
func NewRegistry(store servicetx.Store, logger zerolog.Logger) *Registry {
	r := &Registry{
		bySlug:  make(map[string]servicetx.Handle),
		byModel: make(map[models.BranchModel]servicetx.Handle),
	}
	r.add(servicetx.New[models.Laboratory](store, define(models.BranchLaboratory), logger))
	r.add(servicetx.New[models.Ultrasound](store, define(models.BranchUltrasound), logger))
	r.add(servicetx.New[models.OCT](store, define(models.BranchOCT), logger))
	r.add(servicetx.New[models.OPD](store, define(models.BranchOPD), logger))
	r.add(servicetx.New[models.Operation](store, define(models.BranchOperation), logger))
	r.add(servicetx.New[models.Bedroom](store, define(models.BranchBedroom), logger))
	r.add(servicetx.New[models.Yeglizer](store, define(models.BranchYeglizer), logger))
	return r
}

func (r *Registry) add(h servicetx.Handle) {
	b := h.Branch()
	r.bySlug[b.Slug] = h
	r.byModel[b.Model] = h
	r.order = append(r.order, h)
}

// Lookup accepts the slug or the tag, case-insensitively.
func (r *Registry) Lookup(name string) (servicetx.Handle, bool) {
	h, ok := r.bySlug[strings.ToLower(name)]
	return h, ok
}

func (r *Registry) ByModel(model models.BranchModel) (servicetx.Handle, bool) {
	h, ok := r.byModel[model]
	return h, ok
}

// Branches lists the registered branches in a fixed order.
func (r *Registry) Branches() []servicetx.Branch {
	out := make([]servicetx.Branch, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, h.Branch())
	}
	return out
}

// DeleteServiceRecord runs the delete flow of the branch owning the record.
func (r *Registry) DeleteServiceRecord(ctx context.Context, model models.BranchModel, id string) error {
	h, ok := r.ByModel(model)
	if !ok {
		return apperr.NotFound("Branch")
	}
	_, err := h.DeleteRecord(ctx, id)
	return err
}
