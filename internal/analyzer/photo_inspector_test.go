package analyzer

import (
	"image"
	"image/color"
	"testing"

	"go-skin-analyzer/pkg/validation"
)

// skinTexture is a warm, mottled pattern that passes the sharpness and colour checks.
func skinTexture(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := uint8(((x*7 + y*13) % 9) * 6)
			img.Set(x, y, color.RGBA{200 - d, 150 - d, 125 - d, 255})
		}
	}
	return img
}

func issueTypes(r Report) map[string]bool {
	out := make(map[string]bool)
	for _, i := range r.Issues {
		out[i.Type] = true
	}
	return out
}

func TestInspect_WellExposedPhoto(t *testing.T) {
	inspector := NewPhotoInspector(DefaultOptions().WithWorkers(2), nil)
	defer inspector.Close()

	report := inspector.Inspect(skinTexture(600, 600))

	if report.Metrics.Width != 600 || report.Metrics.Height != 600 {
		t.Errorf("Unexpected dimensions %dx%d", report.Metrics.Width, report.Metrics.Height)
	}
	types := issueTypes(report)
	for _, unwanted := range []string{"too_dark", "too_bright", "low_resolution", "overexposure"} {
		if types[unwanted] {
			t.Errorf("Did not expect %s, got %v", unwanted, report.Issues)
		}
	}
	if report.ProcessingTimeSec < 0 {
		t.Error("Expected non-negative processing time")
	}
	if inspector.Stats().TotalJobs == 0 {
		t.Error("Expected strips to run on the pool")
	}
}

func TestInspect_DarkSmallPhoto(t *testing.T) {
	inspector := NewPhotoInspector(DefaultOptions(), nil)
	defer inspector.Close()

	report := inspector.Inspect(createTestImage(200, 150, color.RGBA{15, 12, 10, 255}))
	types := issueTypes(report)

	for _, want := range []string{"too_dark", "low_luminance", "low_resolution", "blurriness"} {
		if !types[want] {
			t.Errorf("Expected %s issue, got %v", want, report.Issues)
		}
	}
	if !report.Critical {
		t.Error("Expected dark photo to be flagged critical")
	}
}

func TestInspect_FastModeSkipsSharpness(t *testing.T) {
	inspector := NewPhotoInspector(FastOptions(), validation.NewQualityValidator())
	defer inspector.Close()

	report := inspector.Inspect(createTestImage(500, 500, color.RGBA{180, 140, 120, 255}))

	if report.Metrics.LaplacianVar != 0 {
		t.Errorf("Expected no Laplacian pass in fast mode, got %f", report.Metrics.LaplacianVar)
	}
	if issueTypes(report)["blurriness"] {
		t.Error("Fast mode must not report blur")
	}
}

func TestHasWhiteBalanceIssue(t *testing.T) {
	if hasWhiteBalanceIssue(0.5, 0.5, 0.5, 0.3) {
		t.Error("Neutral channels should pass")
	}
	if !hasWhiteBalanceIssue(0.9, 0.4, 0.3, 0.3) {
		t.Error("Strong red cast should fail")
	}
}

func TestInspect_AfterCloseRunsInline(t *testing.T) {
	inspector := NewPhotoInspector(DefaultOptions().WithWorkers(2), nil)
	inspector.Close()

	// large enough to take the strip path
	report := inspector.Inspect(skinTexture(1200, 900))

	if report.Metrics.Width != 1200 || report.Metrics.Height != 900 {
		t.Errorf("Unexpected dimensions %dx%d", report.Metrics.Width, report.Metrics.Height)
	}
	if report.Metrics.AvgLuminance <= 0 {
		t.Error("Expected metrics to be computed after Close")
	}
	if inspector.Stats().TotalJobs != 0 {
		t.Errorf("Expected no pooled jobs after Close, got %d", inspector.Stats().TotalJobs)
	}
}
