package eventservice

const (
	ExchangeKindTopic = "topic"
	ExchangeName      = "etl.events"

	RawObjectTopic       = "raw.object.created"
	ProcessedObjectTopic = "processed.object.created"
)
