package reprocess

import (
	"context"
	"fmt"
	"slices"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
)

// Validator checks that requested instruments exist for the cedente and are
// eligible for the requested product and type.
type Validator struct {
	servicos repository.ServicosRepository
}

func NewValidator(servicos repository.ServicosRepository) *Validator {
	return &Validator{servicos: servicos}
}

// Validate returns the instruments in request order, or a *FieldError (400)
// listing every offending id.
func (v *Validator) Validate(ctx context.Context, cedenteID int64, cmd Command) ([]model.Servico, error) {
	found, err := v.servicos.FindByIDs(ctx, cedenteID, cmd.IDs)
	if err != nil {
		return nil, fmt.Errorf("find servicos: %w", err)
	}

	byID := make(map[int64]model.Servico, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	situations, _ := model.Situations(cmd.Product, cmd.Type)

	fe := newInvalidFields()
	out := make([]model.Servico, 0, len(cmd.IDs))
	for _, id := range cmd.IDs {
		s, ok := byID[id]
		if !ok {
			fe.Add("id", fmt.Sprintf("instrument %d not found", id))
			continue
		}
		if !s.Active() {
			fe.Add("id", fmt.Sprintf("instrument %d is not active", id))
		}
		if s.Product != cmd.Product {
			fe.Add("id", fmt.Sprintf("instrument %d does not match requested product", id))
		}
		if !slices.Contains(situations, s.Situacao) {
			fe.Add("id", fmt.Sprintf("instrument %d situation diverges from requested type", id))
		}
		out = append(out, s)
	}

	if err := fe.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
