package events

// PublishOptions controls how a relayed event is addressed on the transport.
type PublishOptions struct {
	Topic   string
	Key     string
	Headers map[string]string
}
