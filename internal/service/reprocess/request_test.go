package reprocess

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
)

func TestRequestParse_Valid(t *testing.T) {
	cmd, err := Request{Product: " Boleto ", IDs: []string{"3", "1"}, Kind: "webhook", Type: "pago"}.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Command{Product: model.ProductBoleto, IDs: []int64{3, 1}, Kind: "webhook", Type: model.TypePago}
	if !reflect.DeepEqual(cmd, want) {
		t.Fatalf("got %+v, want %+v", cmd, want)
	}
}

func TestRequestParse_AggregatesAllFields(t *testing.T) {
	_, err := Request{Product: "ted", IDs: nil, Kind: "", Type: "estornado"}.Parse()

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("want *FieldError, got %v", err)
	}
	if fe.Status != 400 || fe.Code != CodeInvalidFields {
		t.Fatalf("status/code = %d/%s", fe.Status, fe.Code)
	}
	for _, field := range []string{"product", "id", "kind", "type"} {
		if len(fe.Fields[field]) == 0 {
			t.Errorf("missing error for %q: %v", field, fe.Fields)
		}
	}
}

func TestRequestParse_IDs(t *testing.T) {
	tooMany := make([]string, MaxIDs+1)
	for i := range tooMany {
		tooMany[i] = strconv.Itoa(i + 1)
	}

	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"too many", tooMany, "at most 30"},
		{"empty", []string{}, "at least 1 item"},
		{"zero", []string{"0"}, "not a valid positive integer"},
		{"negative", []string{"-4"}, "not a valid positive integer"},
		{"leading zero", []string{"012"}, "not a valid positive integer"},
		{"letters", []string{"12a"}, "not a valid positive integer"},
		{"duplicate", []string{"5", "5"}, "id 5 is duplicated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Request{Product: "pix", IDs: tt.ids, Kind: "webhook", Type: "pago"}.Parse()
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("want *FieldError, got %v", err)
			}
			if !strings.Contains(strings.Join(fe.Fields["id"], "|"), tt.want) {
				t.Fatalf("id errors %q do not mention %q", fe.Fields["id"], tt.want)
			}
		})
	}
}

func TestRequestParse_AcceptsMaxIDs(t *testing.T) {
	ids := make([]string, MaxIDs)
	for i := range ids {
		ids[i] = strconv.Itoa(i + 1)
	}
	cmd, err := Request{Product: "pix", IDs: ids, Kind: "webhook", Type: "pago"}.Parse()
	if err != nil {
		t.Fatalf("Parse(%d ids): %v", MaxIDs, err)
	}
	if len(cmd.IDs) != 30 {
		t.Fatalf("ids = %d, want 30", len(cmd.IDs))
	}
}

func TestRequestParse_KindLength(t *testing.T) {
	_, err := Request{Product: "pix", IDs: []string{"1"}, Kind: strings.Repeat("k", 51), Type: "pago"}.Parse()
	var fe *FieldError
	if !errors.As(err, &fe) || len(fe.Fields["kind"]) != 1 {
		t.Fatalf("want kind error, got %v", err)
	}
}

func TestGroupByDestination(t *testing.T) {
	withHeader := model.NotificationConfig{URL: "https://a.example/hook", Header: true, HeaderCampo: "x-token", HeaderValor: "1"}
	otherHeader := model.NotificationConfig{URL: "https://a.example/hook", Header: true, HeaderCampo: "x-token", HeaderValor: "2"}
	plain := model.NotificationConfig{URL: "https://a.example/hook"}

	rs := []Resolution{
		{Servico: model.Servico{ID: 1}, Config: withHeader},
		{Servico: model.Servico{ID: 2}, Config: plain},
		{Servico: model.Servico{ID: 3}, Config: withHeader},
		{Servico: model.Servico{ID: 4}, Config: otherHeader},
	}
	groups := GroupByDestination(rs)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}

	var got [][]int64
	for _, g := range groups {
		var ids []int64
		for _, s := range g.Servicos() {
			ids = append(ids, s.ID)
		}
		got = append(got, ids)
	}
	want := [][]int64{{1, 3}, {2}, {4}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFieldErrorMessage(t *testing.T) {
	fe := newUnprocessable()
	if fe.OrNil() != nil {
		t.Fatal("empty FieldError must be nil")
	}
	fe.Add("id", "instrument 1 has no notification configuration")
	if got := fe.Error(); got != "unprocessable_entity; id: instrument 1 has no notification configuration" {
		t.Fatalf("Error() = %q", got)
	}
}
