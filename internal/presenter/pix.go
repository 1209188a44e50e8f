package presenter

import (
	"strconv"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
)

const pixType = "PIX"

type PixBody struct {
	Type          string   `json:"type"`
	CompanyID     string   `json:"companyId"`
	Event         string   `json:"event"`
	TransactionID string   `json:"transactionId"`
	Tags          []string `json:"tags"`
	ID            PixID    `json:"id"`
}

type PixID struct {
	PixID string `json:"pixId"`
}

func (PixBody) product() model.Product { return model.ProductPix }

type pixPresenter struct{}

func (pixPresenter) Present(in Input) ([]Notification, error) {
	u, headers, err := destination(in)
	if err != nil {
		return nil, err
	}

	companyID := strconv.FormatInt(in.CedenteID, 10)
	out := make([]Notification, 0, len(in.Servicos))
	for _, s := range in.Servicos {
		out = append(out, newNotification(u, headers, PixBody{
			Type:          pixType,
			CompanyID:     companyID,
			Event:         situationOf(s, in.Situations),
			TransactionID: in.BatchID.String(),
			Tags:          []string{model.ProductPix.String(), in.Kind, in.Type.String()},
			ID:            PixID{PixID: strconv.FormatInt(s.ID, 10)},
		}))
	}
	return out, nil
}
