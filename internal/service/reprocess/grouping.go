package reprocess

import (
	"sort"
	"strings"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
)

// Group is one dispatch batch: instruments sharing a destination.
type Group struct {
	Config      model.NotificationConfig
	Resolutions []Resolution
}

func (g Group) Servicos() []model.Servico {
	out := make([]model.Servico, len(g.Resolutions))
	for i, r := range g.Resolutions {
		out[i] = r.Servico
	}
	return out
}

// destinationKey identifies a destination by url plus the effective headers, so two
// contas sharing a url but authenticating differently are never merged.
func destinationKey(cfg model.NotificationConfig) string {
	headers := cfg.Headers()
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(cfg.URL))
	for _, k := range names {
		sb.WriteByte(0)
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(headers[k])
	}
	return sb.String()
}

// GroupByDestination partitions resolutions by destination, in first-seen order.
func GroupByDestination(resolutions []Resolution) []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, r := range resolutions {
		k := destinationKey(r.Config)
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group{Config: r.Config})
		}
		groups[i].Resolutions = append(groups[i].Resolutions, r)
	}
	return groups
}
