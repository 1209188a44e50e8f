package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

// CHProtocolsRepository lists protocols from the ClickHouse replica (final view).
type CHProtocolsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHProtocolsRepository(ch *sqlx.DB) *CHProtocolsRepository {
	return &CHProtocolsRepository{ch: ch}
}

var _ ProtocolsReader = (*CHProtocolsRepository)(nil)

const chProtocolColumns = `id, data, cedente_id, kind, type, servico_id, product, protocolo, data_criacao`

func (r *CHProtocolsRepository) FindAll(ctx context.Context, f ProtocolFilter) ([]model.WebhookReprocessado, error) {
	from, to := f.rangeBounds()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + chProtocolColumns + `
		FROM webhooks.webhook_reprocessado_latest
		WHERE cedente_id = ? AND data_criacao >= ? AND data_criacao < ?`)
	args := []any{f.CedenteID, from, to}

	if f.Product != "" {
		sb.WriteString(" AND product = ?")
		args = append(args, f.Product.String())
	}
	if f.Kind != "" {
		sb.WriteString(" AND kind = ?")
		args = append(args, f.Kind)
	}
	if f.Type != "" {
		sb.WriteString(" AND type = ?")
		args = append(args, f.Type)
	}
	if len(f.ServicoIDs) > 0 {
		sb.WriteString(" AND hasAny(servico_id, ?)")
		args = append(args, f.ServicoIDs)
	}
	sb.WriteString(" ORDER BY data_criacao DESC")

	rows := []model.WebhookReprocessado{}
	if err := r.ch.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CHProtocolsRepository) FindByID(ctx context.Context, id string, cedenteID int64) (*model.WebhookReprocessado, error) {
	var rec model.WebhookReprocessado
	err := r.ch.GetContext(ctx, &rec, `
		SELECT `+chProtocolColumns+`
		FROM webhooks.webhook_reprocessado_latest
		WHERE id = ? AND cedente_id = ?
		LIMIT 1
	`, id, cedenteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
