package reprocess

import (
	"fmt"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
)

// Resolution is the destination chosen for one instrument.
type Resolution struct {
	CedenteID int64
	ContaID   int64
	Servico   model.Servico
	Config    model.NotificationConfig
}

// resolveConfig prefers the conta configuration over the cedente one.
func resolveConfig(s model.Servico) (model.NotificationConfig, bool) {
	conta := s.Convenio.Conta
	if conta.Config.Configured() {
		return conta.Config, true
	}
	if conta.Cedente.Config.Configured() {
		return conta.Cedente.Config, true
	}
	return model.NotificationConfig{}, false
}

// Resolve maps every instrument to its destination. Instruments without any
// configuration are reported together in one *FieldError (422).
func Resolve(servicos []model.Servico) ([]Resolution, error) {
	fe := newUnprocessable()
	out := make([]Resolution, 0, len(servicos))
	for _, s := range servicos {
		cfg, ok := resolveConfig(s)
		if !ok {
			fe.Add("id", fmt.Sprintf("instrument %d has no notification configuration", s.ID))
			continue
		}
		out = append(out, Resolution{
			CedenteID: s.Convenio.Conta.Cedente.ID,
			ContaID:   s.Convenio.Conta.ID,
			Servico:   s,
			Config:    cfg,
		})
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
