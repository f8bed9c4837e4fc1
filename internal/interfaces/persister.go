package interfaces

import "ai-scalper/internal/types"

// SavedState is the opaque blob handed to the persistence collaborator.
type SavedState struct {
	PerformanceData []types.EquityPoint `json:"performanceData"`
	InitialEquity   float64             `json:"initialEquity"`
	Daily           types.DailyState    `json:"daily"`
}

type Persister interface {
	Load() (SavedState, error)
	Save(s SavedState) error
	Export() ([]byte, error)
	Import(blob []byte) error
	Clear() error
}
