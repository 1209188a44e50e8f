package reprocess

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
)

const (
	MaxIDs     = 30
	maxKindLen = 50
)

// Request is the caller-facing shape of a reprocess request.
type Request struct {
	Product string   `json:"product"`
	IDs     []string `json:"id"`
	Kind    string   `json:"kind"`
	Type    string   `json:"type"`
}

// Command is a validated Request.
type Command struct {
	Product model.Product
	IDs     []int64
	Kind    string
	Type    model.ReprocessType
}

// Parse validates every field and reports all problems in one *FieldError.
func (r Request) Parse() (Command, error) {
	fe := newInvalidFields()
	var cmd Command

	if p, ok := model.ParseProduct(r.Product); ok {
		cmd.Product = p
	} else {
		fe.Add("product", "product must be one of: boleto, pagamento, pix")
	}

	if t, ok := model.ParseReprocessType(r.Type); ok {
		cmd.Type = t
	} else {
		fe.Add("type", "type must be one of: disponivel, cancelado, pago")
	}

	cmd.Kind = strings.TrimSpace(r.Kind)
	switch {
	case cmd.Kind == "":
		fe.Add("kind", "kind is required")
	case len(cmd.Kind) > maxKindLen:
		fe.Add("kind", fmt.Sprintf("kind must have at most %d characters", maxKindLen))
	}

	switch n := len(r.IDs); {
	case n == 0:
		fe.Add("id", "id must contain at least 1 item")
	case n > MaxIDs:
		fe.Add("id", fmt.Sprintf("id must contain at most %d items", MaxIDs))
	}

	seen := make(map[int64]bool, len(r.IDs))
	for _, raw := range r.IDs {
		s := strings.TrimSpace(raw)
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 || strconv.FormatInt(id, 10) != s {
			fe.Add("id", fmt.Sprintf("id %q is not a valid positive integer", raw))
			continue
		}
		if seen[id] {
			fe.Add("id", fmt.Sprintf("id %s is duplicated", s))
			continue
		}
		seen[id] = true
		cmd.IDs = append(cmd.IDs, id)
	}

	if err := fe.OrNil(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
