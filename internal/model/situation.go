package model

var situations = map[Product]map[ReprocessType][]string{
	ProductBoleto: {
		TypeDisponivel: {"REGISTERED"},
		TypeCancelado:  {"WRITTEN-OFF"},
		TypePago:       {"SETTLED"},
	},
	ProductPagamento: {
		TypeDisponivel: {"SCHEDULED", "ACTIVE"},
		TypeCancelado:  {"CANCELLED"},
		TypePago:       {"PAID"},
	},
	ProductPix: {
		TypeDisponivel: {"ACTIVE"},
		TypeCancelado:  {"REJECTED"},
		TypePago:       {"SETTLED"},
	},
}

// Situations returns the provider situations that correspond to a public type.
// The second value is false for an unknown product or type.
func Situations(p Product, t ReprocessType) ([]string, bool) {
	byType, ok := situations[p]
	if !ok {
		return nil, false
	}
	s, ok := byType[t]
	if !ok {
		return nil, false
	}
	out := make([]string, len(s))
	copy(out, s)
	return out, true
}

// PublicType maps a provider situation back to the public vocabulary.
func PublicType(p Product, situacao string) (ReprocessType, bool) {
	for t, list := range situations[p] {
		for _, s := range list {
			if s == situacao {
				return t, true
			}
		}
	}
	return "", false
}
