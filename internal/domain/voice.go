package domain

// Voice selects a text-to-speech voice. Rate and Pitch are multipliers where
// 1.0 is the voice's natural delivery.
type Voice struct {
	Name     string  `json:"name"`
	Language string  `json:"language"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
}
