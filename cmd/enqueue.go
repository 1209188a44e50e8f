package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/config"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/kafka"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
	"github.com/spf13/cobra"
)

var enqueueReq struct {
	cedenteID int64
	product   string
	ids       []string
	kind      string
	typ       string
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Publish a reprocess request for the kafka worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// reject what the worker would drop anyway
		req := reprocess.Request{Product: enqueueReq.product, IDs: enqueueReq.ids, Kind: enqueueReq.kind, Type: enqueueReq.typ}
		if _, err := req.Parse(); err != nil {
			return err
		}
		if enqueueReq.cedenteID <= 0 {
			return fmt.Errorf("--cedente must be a positive id")
		}

		env := model.ReprocessEnvelope{
			CedenteID: enqueueReq.cedenteID,
			Product:   req.Product,
			IDs:       req.IDs,
			Kind:      req.Kind,
			Type:      req.Type,
		}
		value, err := json.Marshal(env)
		if err != nil {
			return err
		}

		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer p.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, []byte(strconv.FormatInt(env.CedenteID, 10)), value); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		fmt.Printf(">> enqueued %s\n", value)
		return nil
	},
}

func init() {
	f := enqueueCmd.Flags()
	f.Int64Var(&enqueueReq.cedenteID, "cedente", 0, "cedente id")
	f.StringVar(&enqueueReq.product, "product", "", "boleto | pagamento | pix")
	f.StringSliceVar(&enqueueReq.ids, "id", nil, "instrument ids (repeatable or comma separated)")
	f.StringVar(&enqueueReq.kind, "kind", "webhook", "notification kind")
	f.StringVar(&enqueueReq.typ, "type", "", "disponivel | cancelado | pago")
}
