// Package presenter turns a dispatch group into the notification shape expected by
// the delivery provider. Each product has its own body variant.
package presenter

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/google/uuid"
)

const (
	KindWebhook = "webhook"
	MethodPost  = "POST"
)

var (
	ErrInvalidURL       = errors.New("invalid notification url")
	ErrInvalidHeader    = errors.New("invalid notification header")
	ErrEmptyGroup       = errors.New("empty notification group")
	ErrUnknownProduct   = errors.New("unknown product")
	ErrUnknownBody      = errors.New("unknown notification body")
	ErrMissingSituation = errors.New("missing situation mapping")
)

// Notification is one delivery request handed to the provider.
type Notification struct {
	Kind    string            `json:"kind"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    Body              `json:"body"`
}

// Body is implemented only by BoletoBody, PagamentoBody and PixBody.
type Body interface {
	product() model.Product
}

// Envelope is the request body sent to the provider for one dispatch group.
type Envelope struct {
	Notifications []Notification `json:"notifications"`
}

// Validate checks the envelope shape before it leaves the process.
func (e Envelope) Validate() error {
	if len(e.Notifications) == 0 {
		return ErrEmptyGroup
	}
	for i, n := range e.Notifications {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("notification %d: %w", i, err)
		}
	}
	return nil
}

func (n Notification) Validate() error {
	if n.Kind != KindWebhook || n.Method != MethodPost {
		return fmt.Errorf("unsupported kind/method %s/%s", n.Kind, n.Method)
	}
	if err := validateURL(n.URL); err != nil {
		return err
	}
	switch b := n.Body.(type) {
	case BoletoBody:
		if b.Titulo.IDIntegracao == "" {
			return errors.New("boleto body without idintegracao")
		}
	case PagamentoBody:
		if b.UniqueID == "" {
			return errors.New("pagamento body without uniqueid")
		}
	case PixBody:
		if b.ID.PixID == "" {
			return errors.New("pix body without pixId")
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownBody, n.Body)
	}
	return nil
}

// Input is everything a presenter needs to build the notifications of one group.
type Input struct {
	BatchID     uuid.UUID
	CedenteID   int64
	CedenteCNPJ string
	Kind        string
	Type        model.ReprocessType
	// Situations is the provider vocabulary for Type under the group's product.
	Situations []string
	Config     model.NotificationConfig
	Servicos   []model.Servico
	Now        time.Time
}

// Presenter builds the notifications for one product.
type Presenter interface {
	Present(in Input) ([]Notification, error)
}

// For returns the presenter of product p.
func For(p model.Product) (Presenter, error) {
	switch p {
	case model.ProductBoleto:
		return boletoPresenter{}, nil
	case model.ProductPagamento:
		return pagamentoPresenter{}, nil
	case model.ProductPix:
		return pixPresenter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, p)
	}
}

// destination validates the group configuration and returns url and headers.
func destination(in Input) (string, map[string]string, error) {
	if len(in.Servicos) == 0 {
		return "", nil, ErrEmptyGroup
	}
	if len(in.Situations) == 0 {
		return "", nil, ErrMissingSituation
	}
	u := strings.TrimSpace(in.Config.URL)
	if err := validateURL(u); err != nil {
		return "", nil, err
	}
	if in.Config.Header && strings.TrimSpace(in.Config.HeaderCampo) == "" {
		return "", nil, fmt.Errorf("%w: header enabled without header_campo", ErrInvalidHeader)
	}
	for _, extra := range in.Config.HeadersAdicionais {
		for k := range extra {
			if strings.TrimSpace(k) == "" {
				return "", nil, fmt.Errorf("%w: blank name in headers_adicionais", ErrInvalidHeader)
			}
		}
	}
	return u, in.Config.Headers(), nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// situationOf returns the instrument's own situation when it belongs to the
// requested mapping, otherwise the first mapped situation.
func situationOf(s model.Servico, mapping []string) string {
	for _, m := range mapping {
		if m == s.Situacao {
			return m
		}
	}
	return mapping[0]
}

func newNotification(u string, headers map[string]string, body Body) Notification {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return Notification{
		Kind:    KindWebhook,
		Method:  MethodPost,
		URL:     u,
		Headers: h,
		Body:    body,
	}
}
