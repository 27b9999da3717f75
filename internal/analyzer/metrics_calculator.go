package analyzer

import (
	"image"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Images below this many pixels are measured on the calling goroutine.
const parallelPixelThreshold = 100000

type metricsCalculator struct {
	pool      *WorkerPool
	slicePool sync.Pool
}

// NewMetricsCalculator returns a calculator that splits large images into
// row strips on pool. A nil pool measures sequentially.
func NewMetricsCalculator(pool *WorkerPool) MetricsCalculator {
	if pool != nil {
		pool.Start()
	}
	return &metricsCalculator{
		pool: pool,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

type stripResult struct {
	lum, sat, r, g, b float64
	pixelCount        int
}

// forEachStrip runs fn over horizontal strips of bounds and returns one
// result per strip.
func (mc *metricsCalculator) forEachStrip(bounds image.Rectangle, fn func(startY, endY int) stripResult) []stripResult {
	height := bounds.Dy()
	if mc.pool == nil || bounds.Dx()*height < parallelPixelThreshold {
		return []stripResult{fn(bounds.Min.Y, bounds.Max.Y)}
	}

	strips := mc.pool.GetStats().Workers
	if height < strips {
		strips = height
	}
	rowsPerStrip := (height + strips - 1) / strips

	results := make([]stripResult, strips)
	var wg sync.WaitGroup
	for i := 0; i < strips; i++ {
		startY := bounds.Min.Y + i*rowsPerStrip
		endY := startY + rowsPerStrip
		if i == strips-1 || endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		if startY >= endY {
			continue
		}
		i := i
		wg.Add(1)
		job := func() {
			defer wg.Done()
			results[i] = fn(startY, endY)
		}
		// a closed pool refuses work; the strip then runs here
		if !mc.pool.Submit(job) {
			job()
		}
	}
	wg.Wait()
	return results
}

// CalculateBasicMetrics averages HSV value, saturation and the RGB channels.
func (mc *metricsCalculator) CalculateBasicMetrics(img image.Image) metrics {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return metrics{}
	}

	results := mc.forEachStrip(bounds, func(startY, endY int) stripResult {
		var res stripResult
		for y := startY; y < endY; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				rVal, gVal, bVal, _ := img.At(x, y).RGBA()
				rf := float64(rVal) / 65535.0
				gf := float64(gVal) / 65535.0
				bf := float64(bVal) / 65535.0

				_, s, v := rgbToHSV(rf, gf, bf)
				res.sat += s
				res.lum += v
				res.r += rf
				res.g += gf
				res.b += bf
				res.pixelCount++
			}
		}
		return res
	})

	var total stripResult
	for _, r := range results {
		total.lum += r.lum
		total.sat += r.sat
		total.r += r.r
		total.g += r.g
		total.b += r.b
		total.pixelCount += r.pixelCount
	}
	if total.pixelCount == 0 {
		return metrics{}
	}

	n := float64(total.pixelCount)
	return metrics{
		avgLuminance:  total.lum / n,
		avgSaturation: total.sat / n,
		avgR:          total.r / n,
		avgG:          total.g / n,
		avgB:          total.b / n,
	}
}

// CalculateLaplacianVariance is the variance of the 4-neighbour Laplacian,
// the usual focus measure.
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)[:0]
	if cap(data) < (width-2)*(height-2) {
		data = make([]float64, 0, (width-2)*(height-2))
	}
	defer mc.slicePool.Put(data[:0])

	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	return stat.Variance(data, nil)
}

// CalculateBrightness is the mean gray level on 0..255.
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	results := mc.forEachStrip(bounds, func(startY, endY int) stripResult {
		var res stripResult
		for y := startY; y < endY; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				res.lum += float64(gray.GrayAt(x, y).Y)
			}
		}
		return res
	})

	var total float64
	for _, r := range results {
		total += r.lum
	}
	return total / float64(width*height)
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max

	if max == 0 {
		s = 0
	} else {
		s = delta / max
	}

	if delta == 0 {
		h = 0
	} else if max == r {
		h = 60 * ((g - b) / delta)
	} else if max == g {
		h = 60 * (((b - r) / delta) + 2)
	} else {
		h = 60 * (((r - g) / delta) + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}
