package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ProtocolFilter narrows a protocol listing. CedenteID and the date range are mandatory;
// the range is inclusive at day granularity.
type ProtocolFilter struct {
	CedenteID  int64
	StartDate  time.Time
	EndDate    time.Time
	Product    model.Product
	ServicoIDs []string
	Kind       string
	Type       string
}

// rangeBounds returns [start of StartDate, start of the day after EndDate).
func (f ProtocolFilter) rangeBounds() (time.Time, time.Time) {
	y, m, d := f.StartDate.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, f.StartDate.Location())
	y, m, d = f.EndDate.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, f.EndDate.Location()).AddDate(0, 0, 1)
	return from, to
}

// ProtocolsReader is the tenant-scoped read side of the protocol store.
type ProtocolsReader interface {
	FindAll(ctx context.Context, f ProtocolFilter) ([]model.WebhookReprocessado, error)
	// FindByID returns (nil, nil) when the record does not exist or belongs to another cedente.
	FindByID(ctx context.Context, id string, cedenteID int64) (*model.WebhookReprocessado, error)
}

// ProtocolsRepository persists one record per dispatched batch.
type ProtocolsRepository interface {
	ProtocolsReader
	Create(ctx context.Context, rec *model.WebhookReprocessado) error
}

type ProtocolsRepositoryImpl struct {
	db *sqlx.DB
}

func NewProtocolsRepository(db *sqlx.DB) *ProtocolsRepositoryImpl {
	return &ProtocolsRepositoryImpl{db: db}
}

var _ ProtocolsRepository = (*ProtocolsRepositoryImpl)(nil)

const protocolColumns = `id, data, cedente_id, kind, type, servico_id, product, protocolo, data_criacao`

// Create inserts rec, assigning ID and DataCriacao when unset.
func (r *ProtocolsRepositoryImpl) Create(ctx context.Context, rec *model.WebhookReprocessado) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.DataCriacao.IsZero() {
		rec.DataCriacao = time.Now().UTC()
	}
	const q = `
		INSERT INTO webhook_reprocessado
		    (id, data, cedente_id, kind, type, servico_id, product, protocolo, data_criacao)
		VALUES
		    (?,  ?,    ?,          ?,    ?,    ?,          ?,       ?,         ?)
	`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.Data, rec.CedenteID, rec.Kind, rec.Type,
		rec.ServicoID, rec.Product.String(), rec.Protocolo, rec.DataCriacao,
	)
	return err
}

func (r *ProtocolsRepositoryImpl) FindAll(ctx context.Context, f ProtocolFilter) ([]model.WebhookReprocessado, error) {
	from, to := f.rangeBounds()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + protocolColumns + `
		FROM webhook_reprocessado
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
		ids, err := json.Marshal(f.ServicoIDs)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" AND JSON_OVERLAPS(servico_id, CAST(? AS JSON))")
		args = append(args, string(ids))
	}
	sb.WriteString(" ORDER BY data_criacao DESC")

	rows := []model.WebhookReprocessado{}
	if err := r.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProtocolsRepositoryImpl) FindByID(ctx context.Context, id string, cedenteID int64) (*model.WebhookReprocessado, error) {
	var rec model.WebhookReprocessado
	err := r.db.GetContext(ctx, &rec, `
		SELECT `+protocolColumns+`
		  FROM webhook_reprocessado
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
