package validation

import (
	"math"
)

// QualityThresholds bounds what a usable face photo looks like after normalization.
type QualityThresholds struct {
	// Sharpness. Resampling softens edges, so the floor is lower than for raw captures.
	MinLaplacianVariance float64
	MaxLaplacianVariance float64

	// Brightness on the 0..255 gray scale
	MinBrightness float64
	MaxBrightness float64

	// Luminance and saturation on 0..1
	MinLuminance  float64
	MaxLuminance  float64
	MinSaturation float64

	MaxChannelImbalance float64

	MinWidth  int
	MinHeight int
}

// DefaultQualityThresholds returns thresholds tuned for close-up skin photos.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinLaplacianVariance: 40.0,
		MaxLaplacianVariance: 4000.0,
		MinBrightness:        60.0,
		MaxBrightness:        215.0,
		MinLuminance:         0.15,
		MaxLuminance:         0.95,
		MinSaturation:        0.04,
		// Skin tones are warm, red naturally dominates blue
		MaxChannelImbalance: 0.25,
		MinWidth:            400,
		MinHeight:           400,
	}
}

// QualityValidator turns photo metrics into advisory issues.
type QualityValidator struct {
	thresholds QualityThresholds
}

func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// Thresholds returns the active thresholds.
func (qv *QualityValidator) Thresholds() QualityThresholds {
	return qv.thresholds
}

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actualValue,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// PhotoQualityMetrics is what the inspector measured on the normalized photo.
type PhotoQualityMetrics struct {
	Width          int
	Height         int
	LaplacianVar   float64
	Brightness     float64
	AvgLuminance   float64
	AvgSaturation  float64
	ChannelBalance [3]float64

	Overexposed   bool
	Oversaturated bool
	IncorrectWB   bool

	// SharpnessMeasured is false when the inspector skipped the Laplacian pass.
	SharpnessMeasured bool
}

// isImageBlurry treats a low variance as blur unless the exposure looks healthy,
// which is typical of a tight crop on smooth skin.
func (qv *QualityValidator) isImageBlurry(metrics PhotoQualityMetrics) bool {
	if !metrics.SharpnessMeasured || metrics.LaplacianVar > qv.thresholds.MinLaplacianVariance {
		return false
	}
	if metrics.LaplacianVar < 1.0 {
		return true
	}
	luminanceOK := metrics.AvgLuminance >= 0.3 && metrics.AvgLuminance <= 0.85
	return !(luminanceOK && qv.isChannelBalanced(metrics.ChannelBalance) && !metrics.Overexposed && metrics.LaplacianVar >= qv.thresholds.MinLaplacianVariance/2)
}

func (qv *QualityValidator) isChannelBalanced(channels [3]float64) bool {
	max := math.Max(channels[0], math.Max(channels[1], channels[2]))
	min := math.Min(channels[0], math.Min(channels[1], channels[2]))
	return (max - min) <= qv.thresholds.MaxChannelImbalance
}

// ValidateBasicQuality checks sharpness, exposure and colour.
func (qv *QualityValidator) ValidateBasicQuality(metrics PhotoQualityMetrics) []QualityIssue {
	var issues []QualityIssue

	if qv.isImageBlurry(metrics) {
		issues = append(issues, QualityIssue{
			Type:        "blurriness",
			Message:     "La photo est floue. Tiens ton téléphone bien stable et fais la mise au point sur ton visage.",
			Severity:    "error",
			ActualValue: metrics.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	} else if metrics.SharpnessMeasured && metrics.LaplacianVar >= qv.thresholds.MaxLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        "over_sharpening",
			Message:     "La photo semble très bruitée ou retouchée. Évite le zoom numérique et les filtres.",
			Severity:    "warning",
			ActualValue: metrics.LaplacianVar,
			Threshold:   qv.thresholds.MaxLaplacianVariance,
		})
	}

	if metrics.Overexposed {
		issues = append(issues, QualityIssue{
			Type:     "overexposure",
			Message:  "La photo est surexposée. Éloigne-toi de la source de lumière directe.",
			Severity: "error",
		})
	}
	if metrics.Oversaturated {
		issues = append(issues, QualityIssue{
			Type:     "oversaturation",
			Message:  "Les couleurs sont trop intenses. Désactive les filtres de l'appareil photo.",
			Severity: "warning",
		})
	}

	if metrics.IncorrectWB {
		issues = append(issues, QualityIssue{
			Type:     "white_balance",
			Message:  "Les couleurs ne paraissent pas naturelles. Privilégie la lumière du jour.",
			Severity: "warning",
		})
	}

	if metrics.AvgLuminance <= qv.thresholds.MinLuminance {
		issues = append(issues, QualityIssue{
			Type:        "low_luminance",
			Message:     "La photo manque de lumière. Place-toi face à une fenêtre.",
			Severity:    "error",
			ActualValue: metrics.AvgLuminance,
			Threshold:   qv.thresholds.MinLuminance,
		})
	} else if metrics.AvgLuminance >= qv.thresholds.MaxLuminance {
		issues = append(issues, QualityIssue{
			Type:        "high_luminance",
			Message:     "La photo est trop lumineuse. Évite le flash.",
			Severity:    "error",
			ActualValue: metrics.AvgLuminance,
			Threshold:   qv.thresholds.MaxLuminance,
		})
	}

	if metrics.AvgSaturation <= qv.thresholds.MinSaturation {
		issues = append(issues, QualityIssue{
			Type:        "low_saturation",
			Message:     "La photo paraît délavée. Utilise un éclairage naturel.",
			Severity:    "warning",
			ActualValue: metrics.AvgSaturation,
			Threshold:   qv.thresholds.MinSaturation,
		})
	}

	if !qv.isChannelBalanced(metrics.ChannelBalance) {
		issues = append(issues, QualityIssue{
			Type:      "channel_imbalance",
			Message:   "Une teinte domine la photo. Évite les lumières colorées.",
			Severity:  "warning",
			Threshold: qv.thresholds.MaxChannelImbalance,
		})
	}

	return issues
}

// ValidatePhotoQuality adds the resolution and brightness checks to the basic ones.
func (qv *QualityValidator) ValidatePhotoQuality(metrics PhotoQualityMetrics) []QualityIssue {
	issues := qv.ValidateBasicQuality(metrics)

	if metrics.Width < qv.thresholds.MinWidth || metrics.Height < qv.thresholds.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        "low_resolution",
			Message:     "La photo est trop petite pour une analyse précise. Rapproche-toi ou utilise une meilleure résolution.",
			Severity:    "warning",
			ActualValue: float64(metrics.Width * metrics.Height),
			Threshold:   float64(qv.thresholds.MinWidth * qv.thresholds.MinHeight),
		})
	}

	if metrics.Brightness < qv.thresholds.MinBrightness {
		issues = append(issues, QualityIssue{
			Type:        "too_dark",
			Message:     "La photo est trop sombre. Prends-la dans une pièce bien éclairée.",
			Severity:    "error",
			ActualValue: metrics.Brightness,
			Threshold:   qv.thresholds.MinBrightness,
		})
	} else if metrics.Brightness > qv.thresholds.MaxBrightness {
		issues = append(issues, QualityIssue{
			Type:        "too_bright",
			Message:     "La photo est trop claire. Évite le soleil direct et le flash.",
			Severity:    "error",
			ActualValue: metrics.Brightness,
			Threshold:   qv.thresholds.MaxBrightness,
		})
	}

	return issues
}

// ConvertIssuesToMessages flattens issues to their messages.
func (qv *QualityValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
