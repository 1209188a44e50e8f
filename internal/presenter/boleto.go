package presenter

import (
	"strconv"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
)

const boletoDateLayout = "02/01/2006 15:04:05"

var boletoTipoWH = map[model.ReprocessType]string{
	model.TypeDisponivel: "notifica_registrou",
	model.TypeCancelado:  "notifica_baixou",
	model.TypePago:       "notifica_liquidou",
}

type BoletoBody struct {
	TipoWH         string       `json:"tipoWH"`
	DataHoraEnvio  string       `json:"dataHoraEnvio"`
	CpfCnpjCedente string       `json:"CpfCnpjCedente"`
	Titulo         BoletoTitulo `json:"titulo"`
}

type BoletoTitulo struct {
	Situacao          string         `json:"situacao"`
	IDIntegracao      string         `json:"idintegracao"`
	TituloNossoNumero string         `json:"TituloNossoNumero"`
	TituloMovimentos  map[string]any `json:"TituloMovimentos"`
}

func (BoletoBody) product() model.Product { return model.ProductBoleto }

type boletoPresenter struct{}

func (boletoPresenter) Present(in Input) ([]Notification, error) {
	u, headers, err := destination(in)
	if err != nil {
		return nil, err
	}

	sentAt := in.Now.Format(boletoDateLayout)
	out := make([]Notification, 0, len(in.Servicos))
	for _, s := range in.Servicos {
		id := strconv.FormatInt(s.ID, 10)
		out = append(out, newNotification(u, headers, BoletoBody{
			TipoWH:         boletoTipoWH[in.Type],
			DataHoraEnvio:  sentAt,
			CpfCnpjCedente: in.CedenteCNPJ,
			Titulo: BoletoTitulo{
				Situacao:          situationOf(s, in.Situations),
				IDIntegracao:      id,
				TituloNossoNumero: id,
				TituloMovimentos:  map[string]any{},
			},
		}))
	}
	return out, nil
}
