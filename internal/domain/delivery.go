package domain

// DeliveryStatus enumerates delivery job lifecycle states as persisted by the
// queue.
type DeliveryStatus string

const (
	DeliveryStatusQueued  DeliveryStatus = "QUEUED"
	DeliveryStatusRunning DeliveryStatus = "RUNNING"
	DeliveryStatusSent    DeliveryStatus = "SENT"
	DeliveryStatusFailed  DeliveryStatus = "FAILED"
)

const (
	// MessageTypeMedia marks a delivery carrying an uploaded file rather
	// than plain text.
	MessageTypeMedia = "media"
	// MediaTypeDocument is the media classification for PDF catalogs.
	MediaTypeDocument = "document"
)

// MediaContent is the media portion of a delivery job payload.
type MediaContent struct {
	Text      string `json:"text"`
	MediaURL  string `json:"mediaUrl"`
	MediaType string `json:"mediaType"`
}

// DeliveryJob is the wire payload handed to the delivery queue. It is
// immutable once enqueued; the queue owns its lifecycle from then on.
type DeliveryJob struct {
	TenantID      string       `json:"tenantId"`
	SessionID     string       `json:"sessionId"`
	Recipient     string       `json:"recipient"`
	MessageType   string       `json:"messageType"`
	Content       MediaContent `json:"content"`
	CorrelationID string       `json:"correlationId"`
}
