package repository

import (
	"context"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

// ServicosRepository reads instruments together with their ownership chain.
type ServicosRepository interface {
	// FindByIDs returns the instruments among ids that belong to cedenteID,
	// with Convenio -> Conta -> Cedente populated. Missing ids are simply absent.
	FindByIDs(ctx context.Context, cedenteID int64, ids []int64) ([]model.Servico, error)
}

type ServicosRepositoryImpl struct {
	db *sqlx.DB
}

func NewServicosRepository(db *sqlx.DB) *ServicosRepositoryImpl {
	return &ServicosRepositoryImpl{db: db}
}

var _ ServicosRepository = (*ServicosRepositoryImpl)(nil)

type servicoChainRow struct {
	ID             int64                    `db:"id"`
	Status         string                   `db:"status"`
	Produto        string                   `db:"produto"`
	Situacao       string                   `db:"situacao"`
	DataCriacao    time.Time                `db:"data_criacao"`
	ConvenioID     int64                    `db:"convenio_id"`
	NumeroConvenio string                   `db:"numero_convenio"`
	ContaID        int64                    `db:"conta_id"`
	ContaProduto   string                   `db:"conta_produto"`
	BancoCodigo    string                   `db:"banco_codigo"`
	ContaStatus    string                   `db:"conta_status"`
	ContaConfig    model.NotificationConfig `db:"conta_config"`
	CedenteID      int64                    `db:"cedente_id"`
	CedenteCNPJ    string                   `db:"cedente_cnpj"`
	CedenteStatus  string                   `db:"cedente_status"`
	CedenteConfig  model.NotificationConfig `db:"cedente_config"`
}

func (row servicoChainRow) toModel() model.Servico {
	return model.Servico{
		ID:        row.ID,
		Status:    row.Status,
		Product:   model.Product(row.Produto),
		Situacao:  row.Situacao,
		CreatedAt: row.DataCriacao,
		Convenio: model.Convenio{
			ID:     row.ConvenioID,
			Numero: row.NumeroConvenio,
			Conta: model.Conta{
				ID:          row.ContaID,
				Produto:     model.Product(row.ContaProduto),
				BancoCodigo: row.BancoCodigo,
				Status:      row.ContaStatus,
				Config:      row.ContaConfig,
				Cedente: model.Cedente{
					ID:     row.CedenteID,
					CNPJ:   row.CedenteCNPJ,
					Status: row.CedenteStatus,
					Config: row.CedenteConfig,
				},
			},
		},
	}
}

func (r *ServicosRepositoryImpl) FindByIDs(ctx context.Context, cedenteID int64, ids []int64) ([]model.Servico, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const base = `
		SELECT s.id, s.status, s.produto, s.situacao, s.data_criacao,
		       cv.id AS convenio_id, cv.numero_convenio,
		       ct.id AS conta_id, ct.produto AS conta_produto, ct.banco_codigo,
		       ct.status AS conta_status, ct.configuracao_notificacao AS conta_config,
		       cd.id AS cedente_id, cd.cnpj AS cedente_cnpj, cd.status AS cedente_status,
		       cd.configuracao_notificacao AS cedente_config
		  FROM servico s
		  JOIN convenio cv ON cv.id = s.convenio_id
		  JOIN conta ct    ON ct.id = cv.conta_id
		  JOIN cedente cd  ON cd.id = ct.cedente_id
		 WHERE s.id IN (?) AND cd.id = ?
		 ORDER BY s.id
	`
	query, args, err := sqlx.In(base, ids, cedenteID)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var rows []servicoChainRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]model.Servico, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
