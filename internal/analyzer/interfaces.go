package analyzer

import "image"

// PhotoInspector measures a normalized photo and reports advisory quality issues.
type PhotoInspector interface {
	Inspect(img image.Image) Report
	Stats() PoolStats
	Close() error
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	CalculateBasicMetrics(img image.Image) metrics
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateBrightness(gray *image.Gray) float64
}
