package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	StatusAtivo   = "ativo"
	StatusInativo = "inativo"
)

// Servico is a single instrument (boleto, pagamento or pix) owned through
// Convenio -> Conta -> Cedente.
type Servico struct {
	ID        int64     `db:"id"`
	Status    string    `db:"status"`
	Product   Product   `db:"produto"`
	Situacao  string    `db:"situacao"`
	CreatedAt time.Time `db:"data_criacao"`
	Convenio  Convenio  `db:"-"`
}

func (s Servico) Active() bool { return s.Status == StatusAtivo }

type Convenio struct {
	ID     int64  `db:"id"`
	Numero string `db:"numero_convenio"`
	Conta  Conta  `db:"-"`
}

type Conta struct {
	ID          int64              `db:"id"`
	Produto     Product            `db:"produto"`
	BancoCodigo string             `db:"banco_codigo"`
	Status      string             `db:"status"`
	Config      NotificationConfig `db:"configuracao_notificacao"`
	Cedente     Cedente            `db:"-"`
}

// Cedente is the tenant.
type Cedente struct {
	ID              int64              `db:"id"`
	CNPJ            string             `db:"cnpj"`
	Token           string             `db:"token"`
	SoftwareHouseID int64              `db:"softwarehouse_id"`
	Status          string             `db:"status"`
	Config          NotificationConfig `db:"configuracao_notificacao"`
	CreatedAt       time.Time          `db:"data_criacao"`
}

type SoftwareHouse struct {
	ID        int64     `db:"id"`
	CNPJ      string    `db:"cnpj"`
	Token     string    `db:"token"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"data_criacao"`
}

// NotificationConfig is the callback destination kept on Conta and Cedente.
// Stored as a nullable JSON column.
type NotificationConfig struct {
	URL               string              `json:"url"`
	Header            bool                `json:"header"`
	HeaderCampo       string              `json:"header_campo"`
	HeaderValor       string              `json:"header_valor"`
	HeadersAdicionais []map[string]string `json:"headers_adicionais"`
}

// Configured reports whether the configuration has a usable url.
// A blank configuration counts as absent.
func (c NotificationConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != ""
}

// Headers flattens the configuration into the header map sent to the receiver:
// header_campo/header_valor first, then headers_adicionais on top.
func (c NotificationConfig) Headers() map[string]string {
	h := make(map[string]string)
	if c.Header && strings.TrimSpace(c.HeaderCampo) != "" {
		h[strings.TrimSpace(c.HeaderCampo)] = c.HeaderValor
	}
	for _, extra := range c.HeadersAdicionais {
		for k, v := range extra {
			h[k] = v
		}
	}
	return h
}

func (c NotificationConfig) Value() (driver.Value, error) {
	if !c.Configured() {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *NotificationConfig) Scan(value interface{}) error {
	if c == nil {
		return fmt.Errorf("model.NotificationConfig: Scan on nil pointer")
	}
	*c = NotificationConfig{}

	var raw string
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("model.NotificationConfig: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "{}" {
		return nil
	}
	return json.Unmarshal([]byte(raw), c)
}
