package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

type CedentesRepository interface {
	// GetByCredentials returns the active cedente identified by its CNPJ/token pair
	// under the active software house identified by shCNPJ/shToken.
	GetByCredentials(ctx context.Context, shCNPJ, shToken, cedenteCNPJ, cedenteToken string) (*model.Cedente, error)
	GetByID(ctx context.Context, id int64) (*model.Cedente, error)
}

type CedentesRepositoryImpl struct {
	db *sqlx.DB
}

func NewCedentesRepository(db *sqlx.DB) *CedentesRepositoryImpl {
	return &CedentesRepositoryImpl{db: db}
}

var _ CedentesRepository = (*CedentesRepositoryImpl)(nil)

const cedenteColumns = `c.id, c.cnpj, c.token, c.softwarehouse_id, c.status, c.configuracao_notificacao, c.data_criacao`

func (r *CedentesRepositoryImpl) GetByCredentials(ctx context.Context, shCNPJ, shToken, cedenteCNPJ, cedenteToken string) (*model.Cedente, error) {
	var c model.Cedente
	err := r.db.GetContext(ctx, &c, `
		SELECT `+cedenteColumns+`
		  FROM cedente c
		  JOIN software_house sh ON sh.id = c.softwarehouse_id
		 WHERE sh.cnpj = ? AND sh.token = ? AND sh.status = ?
		   AND c.cnpj = ? AND c.token = ? AND c.status = ?
		 LIMIT 1
	`, shCNPJ, shToken, model.StatusAtivo, cedenteCNPJ, cedenteToken, model.StatusAtivo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CedentesRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Cedente, error) {
	var c model.Cedente
	err := r.db.GetContext(ctx, &c, `
		SELECT `+cedenteColumns+`
		  FROM cedente c
		 WHERE c.id = ? LIMIT 1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
