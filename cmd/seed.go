package cmd

import (
	"fmt"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/config"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/db"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/logger"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a demo software house, cedente and instruments",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)

		// 2) connect MySQL
		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, mysqlOpts(cfg))
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		logger.Log.Info("seeding demo data")
		if err := seedDemo(sqlDB); err != nil {
			return err
		}
		logger.Log.Info("seed completed")
		return nil
	},
}

type demoConta struct {
	produto  model.Product
	config   model.NotificationConfig
	servicos []demoServico
}

type demoServico struct {
	id       int64
	situacao string
	status   string
}

// Fixed ids keep the seed idempotent and give stable ids to reprocess in manual tests.
var (
	demoSoftwareHouse = model.SoftwareHouse{ID: 1, CNPJ: "11111111000111", Token: "sh-demo-token", Status: model.StatusAtivo}
	demoCedente       = model.Cedente{
		ID:              1,
		CNPJ:            "22222222000122",
		Token:           "cedente-demo-token",
		SoftwareHouseID: 1,
		Status:          model.StatusAtivo,
		Config:          model.NotificationConfig{URL: "https://webhook.site/cedente-default"},
	}
	demoContas = []demoConta{
		{
			produto: model.ProductBoleto,
			config: model.NotificationConfig{
				URL:         "https://webhook.site/conta-boleto",
				Header:      true,
				HeaderCampo: "x-api-key",
				HeaderValor: "demo",
			},
			servicos: []demoServico{
				{1, "REGISTERED", model.StatusAtivo},
				{2, "REGISTERED", model.StatusAtivo},
				{3, "SETTLED", model.StatusAtivo},
				{4, "WRITTEN-OFF", model.StatusInativo},
			},
		},
		{
			// no own configuration: falls back to the cedente default
			produto: model.ProductPagamento,
			servicos: []demoServico{
				{5, "SCHEDULED", model.StatusAtivo},
				{6, "PAID", model.StatusAtivo},
			},
		},
		{
			produto: model.ProductPix,
			config: model.NotificationConfig{
				URL:               "https://webhook.site/conta-pix",
				HeadersAdicionais: []map[string]string{{"x-origin": "reprocess"}},
			},
			servicos: []demoServico{
				{7, "ACTIVE", model.StatusAtivo},
				{8, "SETTLED", model.StatusAtivo},
			},
		},
	}
)

func seedDemo(dbx *sqlx.DB) error {
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sh := demoSoftwareHouse
	if _, err := tx.Exec(`
INSERT INTO software_house (id, cnpj, token, status) VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE token = VALUES(token), status = VALUES(status)`,
		sh.ID, sh.CNPJ, sh.Token, sh.Status); err != nil {
		return fmt.Errorf("insert software house: %w", err)
	}

	ced := demoCedente
	if _, err := tx.Exec(`
INSERT INTO cedente (id, cnpj, token, softwarehouse_id, status, configuracao_notificacao) VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE token = VALUES(token), status = VALUES(status),
    configuracao_notificacao = VALUES(configuracao_notificacao)`,
		ced.ID, ced.CNPJ, ced.Token, ced.SoftwareHouseID, ced.Status, ced.Config); err != nil {
		return fmt.Errorf("insert cedente: %w", err)
	}

	for i, c := range demoContas {
		contaID := int64(i + 1)
		if _, err := tx.Exec(`
INSERT INTO conta (id, cedente_id, produto, banco_codigo, status, configuracao_notificacao) VALUES (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE configuracao_notificacao = VALUES(configuracao_notificacao)`,
			contaID, ced.ID, c.produto, "341", model.StatusAtivo, c.config); err != nil {
			return fmt.Errorf("insert conta %d: %w", contaID, err)
		}
		if _, err := tx.Exec(`
INSERT INTO convenio (id, conta_id, numero_convenio) VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE numero_convenio = VALUES(numero_convenio)`,
			contaID, contaID, fmt.Sprintf("CONV-%03d", contaID)); err != nil {
			return fmt.Errorf("insert convenio %d: %w", contaID, err)
		}
		for _, s := range c.servicos {
			if _, err := tx.Exec(`
INSERT INTO servico (id, convenio_id, produto, situacao, status) VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE situacao = VALUES(situacao), status = VALUES(status)`,
				s.id, contaID, c.produto, s.situacao, s.status); err != nil {
				return fmt.Errorf("insert servico %d: %w", s.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	logger.Log.Info("demo credentials",
		zap.String("cnpj-sh", sh.CNPJ), zap.String("token-sh", sh.Token),
		zap.String("cnpj-cedente", ced.CNPJ), zap.String("token-cedente", ced.Token),
	)
	return nil
}
