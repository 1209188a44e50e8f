package model

import "strings"

// Product is the instrument family a reprocess request targets.
type Product string

const (
	ProductBoleto    Product = "boleto"
	ProductPagamento Product = "pagamento"
	ProductPix       Product = "pix"
)

func (p Product) String() string { return string(p) }

func (p Product) Valid() bool {
	return p == ProductBoleto || p == ProductPagamento || p == ProductPix
}

// ParseProduct normalizes input. Returns (value, true) if valid.
func ParseProduct(s string) (Product, bool) {
	p := Product(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

// ReprocessType is the public lifecycle vocabulary accepted from callers.
type ReprocessType string

const (
	TypeDisponivel ReprocessType = "disponivel"
	TypeCancelado  ReprocessType = "cancelado"
	TypePago       ReprocessType = "pago"
)

func (t ReprocessType) String() string { return string(t) }

func (t ReprocessType) Valid() bool {
	return t == TypeDisponivel || t == TypeCancelado || t == TypePago
}

func ParseReprocessType(s string) (ReprocessType, bool) {
	t := ReprocessType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}
