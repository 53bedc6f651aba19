package domain

// Movie carries the display attributes of a catalog entry. Only QualitySignal
// is read by scoring, and only for cold start.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Genre         string  `json:"genre"`
	QualitySignal float64 `json:"quality_signal"`
}
