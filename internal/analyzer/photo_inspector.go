package analyzer

import (
	"image"
	"image/draw"
	"math"
	"time"

	"go-skin-analyzer/pkg/validation"
)

type photoInspector struct {
	options           InspectionOptions
	workerPool        *WorkerPool
	metricsCalculator MetricsCalculator
	qualityValidator  *validation.QualityValidator
}

// NewPhotoInspector starts a worker pool sized by opts.MaxWorkers.
func NewPhotoInspector(opts InspectionOptions, qv *validation.QualityValidator) PhotoInspector {
	if qv == nil {
		qv = validation.NewQualityValidator()
	}
	pool := NewWorkerPool(opts.MaxWorkers)
	pool.Start()

	return &photoInspector{
		options:           opts,
		workerPool:        pool,
		metricsCalculator: NewMetricsCalculator(pool),
		qualityValidator:  qv,
	}
}

func (pi *photoInspector) Inspect(img image.Image) Report {
	start := time.Now()
	bounds := img.Bounds()

	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	basic := pi.metricsCalculator.CalculateBasicMetrics(img)
	pm := PhotoMetrics{
		Width:          bounds.Dx(),
		Height:         bounds.Dy(),
		Brightness:     pi.metricsCalculator.CalculateBrightness(gray),
		AvgLuminance:   basic.avgLuminance,
		AvgSaturation:  basic.avgSaturation,
		ChannelBalance: [3]float64{basic.avgR, basic.avgG, basic.avgB},
	}
	if !pi.options.FastMode {
		pm.LaplacianVar = pi.metricsCalculator.CalculateLaplacianVariance(gray)
	}

	qm := validation.PhotoQualityMetrics{
		Width:             pm.Width,
		Height:            pm.Height,
		LaplacianVar:      pm.LaplacianVar,
		Brightness:        pm.Brightness,
		AvgLuminance:      pm.AvgLuminance,
		AvgSaturation:     pm.AvgSaturation,
		ChannelBalance:    pm.ChannelBalance,
		Overexposed:       basic.avgLuminance > pi.options.OverexposureThreshold,
		Oversaturated:     basic.avgSaturation > pi.options.OversaturationThreshold,
		SharpnessMeasured: !pi.options.FastMode,
	}
	if !pi.options.SkipWhiteBalance {
		qm.IncorrectWB = hasWhiteBalanceIssue(basic.avgR, basic.avgG, basic.avgB, pi.options.WhiteBalanceThreshold)
	}

	issues := pi.qualityValidator.ValidatePhotoQuality(qm)
	return Report{
		Metrics:           pm,
		Issues:            issues,
		Critical:          pi.qualityValidator.HasCriticalIssues(issues),
		ProcessingTimeSec: time.Since(start).Seconds(),
	}
}

func (pi *photoInspector) Stats() PoolStats {
	return pi.workerPool.GetStats()
}

func (pi *photoInspector) Close() error {
	pi.workerPool.Close()
	return nil
}

func hasWhiteBalanceIssue(avgR, avgG, avgB, threshold float64) bool {
	maxDiff := math.Max(math.Abs(avgR-avgG), math.Max(math.Abs(avgR-avgB), math.Abs(avgG-avgB)))
	return maxDiff > threshold
}
