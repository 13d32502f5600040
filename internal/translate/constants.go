package translate

import "time"

const (
	// httpTimeout bounds a single backend round trip. Batches are small, so
	// anything slower than this is treated as a dead backend.
	httpTimeout = 30 * time.Second

	// Completion parameters for the local LLM backend. Low temperature keeps
	// the numbered-list output format stable enough to parse.
	completionTemperature   = 0.1
	completionTokensPerItem = 32
	completionMaxTokens     = 512
)
