package domain

// PriceReading is a single observation from a price source.
type PriceReading struct {
	Price      int64 // fixed-point price in the reading's own precision
	Decimals   uint8 // decimal precision of Price
	ObservedAt int64 // Unix timestamp in milliseconds
}
