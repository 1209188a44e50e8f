package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WebhookReprocessado is the audit record of one dispatched batch.
// Created after a successful provider response and never updated.
type WebhookReprocessado struct {
	ID          string      `db:"id"           json:"id"`
	Data        JSONData    `db:"data"         json:"data"`
	CedenteID   int64       `db:"cedente_id"   json:"cedente_id"`
	Kind        string      `db:"kind"         json:"kind"`
	Type        string      `db:"type"         json:"type"`
	ServicoID   StringArray `db:"servico_id"   json:"servico_id"`
	Product     Product     `db:"product"      json:"product"`
	Protocolo   string      `db:"protocolo"    json:"protocolo"`
	DataCriacao time.Time   `db:"data_criacao" json:"data_criacao"`
}

// JSONData is a raw JSON document column. It marshals as embedded JSON.
type JSONData []byte

func (d JSONData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *JSONData) UnmarshalJSON(b []byte) error {
	if d == nil {
		return fmt.Errorf("model.JSONData: UnmarshalJSON on nil pointer")
	}
	*d = append((*d)[:0], b...)
	return nil
}

func (d JSONData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}

func (d *JSONData) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
	case []byte:
		*d = append(JSONData{}, v...)
	case string:
		*d = JSONData(v)
	default:
		return fmt.Errorf("model.JSONData: unsupported Scan type %T", value)
	}
	return nil
}

// StringArray stores string lists as a JSON array column.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringArray) Scan(value interface{}) error {
	if a == nil {
		return fmt.Errorf("model.StringArray: Scan on nil pointer")
	}

	var raw string
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	case []string:
		// clickhouse Array(String)
		*a = append(StringArray{}, v...)
		return nil
	default:
		return fmt.Errorf("model.StringArray: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*a = StringArray{}
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err != nil {
		return fmt.Errorf("model.StringArray: %w", err)
	}
	*a = arr
	return nil
}
