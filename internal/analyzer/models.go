package analyzer

import (
	"go-skin-analyzer/pkg/validation"
)

// PhotoMetrics are the raw measurements behind a Report.
type PhotoMetrics struct {
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	LaplacianVar   float64    `json:"laplacianVariance"`
	Brightness     float64    `json:"brightness"`
	AvgLuminance   float64    `json:"averageLuminance"`
	AvgSaturation  float64    `json:"averageSaturation"`
	ChannelBalance [3]float64 `json:"channelBalance"`
}

// Report is the outcome of one inspection. Issues never block a submission.
type Report struct {
	Metrics           PhotoMetrics              `json:"metrics"`
	Issues            []validation.QualityIssue `json:"issues"`
	Critical          bool                      `json:"critical"`
	ProcessingTimeSec float64                   `json:"processingTimeSec"`
}

// metrics holds internal calculation results
type metrics struct {
	avgLuminance, avgSaturation float64
	avgR, avgG, avgB            float64
}
