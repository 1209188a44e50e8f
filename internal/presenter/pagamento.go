package presenter

import (
	"strconv"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
)

type PagamentoBody struct {
	Status      string   `json:"status"`
	UniqueID    string   `json:"uniqueid"`
	CreatedAt   string   `json:"createdAt"`
	AccountHash string   `json:"accountHash"`
	Ocurrences  []string `json:"ocurrences"`
	Occurrences []string `json:"occurrences"`
}

func (PagamentoBody) product() model.Product { return model.ProductPagamento }

type pagamentoPresenter struct{}

func (pagamentoPresenter) Present(in Input) ([]Notification, error) {
	u, headers, err := destination(in)
	if err != nil {
		return nil, err
	}

	createdAt := in.Now.UTC().Format(time.RFC3339)
	out := make([]Notification, 0, len(in.Servicos))
	for _, s := range in.Servicos {
		out = append(out, newNotification(u, headers, PagamentoBody{
			Status:      situationOf(s, in.Situations),
			UniqueID:    strconv.FormatInt(s.ID, 10),
			CreatedAt:   createdAt,
			AccountHash: in.BatchID.String(),
			Ocurrences:  []string{},
			Occurrences: []string{},
		}))
	}
	return out, nil
}
