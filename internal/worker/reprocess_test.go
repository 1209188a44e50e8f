package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/kafka"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
)

type fakeSource struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	done      chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeSource) Commit(_ context.Context, m kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, m.Offset)
	if len(f.committed) == cap(f.committed) {
		close(f.done)
	}
	return nil
}

type fakeCedentes struct{}

func (fakeCedentes) GetByCredentials(context.Context, string, string, string, string) (*model.Cedente, error) {
	return nil, nil
}

func (fakeCedentes) GetByID(_ context.Context, id int64) (*model.Cedente, error) {
	switch id {
	case 1:
		return &model.Cedente{ID: 1, Status: model.StatusAtivo}, nil
	case 2:
		return &model.Cedente{ID: 2, Status: model.StatusInativo}, nil
	case 3:
		return nil, errors.New("db down")
	}
	return nil, nil
}

type fakeEngine struct {
	mu   sync.Mutex
	cmds []reprocess.Command
}

func (f *fakeEngine) Reprocess(_ context.Context, ced model.Cedente, cmd reprocess.Command) (reprocess.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return reprocess.Outcome{Body: []byte(`{}`)}, nil
}

func msg(offset int64, value string) kafka.Message {
	return kafka.Message{Offset: offset, Value: []byte(value)}
}

func TestReprocessKafka_ProcessesAndCommitsEverything(t *testing.T) {
	msgs := []kafka.Message{
		msg(1, `{"cedente_id":1,"product":"boleto","id":["10","11"],"kind":"webhook","type":"pago"}`),
		msg(2, `not json`),
		msg(3, `{"cedente_id":2,"product":"boleto","id":["10"],"kind":"webhook","type":"pago"}`),
		msg(4, `{"cedente_id":1,"product":"ted","id":["10"],"kind":"webhook","type":"pago"}`),
		msg(5, `{"cedente_id":3,"product":"pix","id":["10"],"kind":"webhook","type":"pago"}`),
		msg(6, `{"cedente_id":9,"product":"pix","id":["10"],"kind":"webhook","type":"pago"}`),
	}
	src := &fakeSource{msgs: msgs, committed: make([]int64, 0, len(msgs)), done: make(chan struct{})}
	engine := &fakeEngine{}

	w := NewReprocessKafka(src, fakeCedentes{}, engine, nil)
	w.Workers = 2

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-src.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for commits")
	}
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(src.committed) != len(msgs) {
		t.Fatalf("committed %d, want %d", len(src.committed), len(msgs))
	}
	if len(engine.cmds) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(engine.cmds))
	}
	if got := engine.cmds[0]; got.Product != model.ProductBoleto || len(got.IDs) != 2 || got.Type != model.TypePago {
		t.Fatalf("command = %+v", got)
	}
}

func TestReprocessKafka_MissingDependency(t *testing.T) {
	if err := (&ReprocessKafka{}).Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
