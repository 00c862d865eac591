package kafka

// Config describes how the producer reaches the brokers.
type Config struct {
	Brokers  []string
	ClientID string

	TLS bool

	// Mechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512. Ignored unless
	// SASLEnabled is set.
	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}
