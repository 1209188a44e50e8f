package model

// ReprocessEnvelope is the message consumed from Kafka by the reprocess worker.
type ReprocessEnvelope struct {
	CedenteID int64    `json:"cedente_id"`
	Product   string   `json:"product"`
	IDs       []string `json:"id"`
	Kind      string   `json:"kind"`
	Type      string   `json:"type"`
}
