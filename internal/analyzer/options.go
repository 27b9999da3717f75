package analyzer

// InspectionOptions tunes the photo inspector.
type InspectionOptions struct {
	// FastMode skips the Laplacian pass; blur is then not reported.
	FastMode bool

	OverexposureThreshold   float64
	OversaturationThreshold float64
	// WhiteBalanceThreshold is the largest tolerated gap between two channel means.
	WhiteBalanceThreshold float64

	SkipWhiteBalance bool

	// MaxWorkers sizes the strip pool; 0 means one per CPU.
	MaxWorkers int
}

// DefaultOptions returns options for close-up skin photos.
func DefaultOptions() InspectionOptions {
	return InspectionOptions{
		OverexposureThreshold:   0.92,
		OversaturationThreshold: 0.8,
		// skin is warm, so red/blue gaps are wider than on neutral scenes
		WhiteBalanceThreshold: 0.3,
	}
}

// FastOptions skips sharpness and white balance.
func FastOptions() InspectionOptions {
	return DefaultOptions().WithFastMode()
}

// WithCustomThresholds overrides the exposure and saturation thresholds.
func (opts InspectionOptions) WithCustomThresholds(overexposure, oversaturation float64) InspectionOptions {
	opts.OverexposureThreshold = overexposure
	opts.OversaturationThreshold = oversaturation
	return opts
}

// WithFastMode enables fast analysis mode
func (opts InspectionOptions) WithFastMode() InspectionOptions {
	opts.FastMode = true
	opts.SkipWhiteBalance = true
	return opts
}

// WithWorkers sets the strip pool size.
func (opts InspectionOptions) WithWorkers(n int) InspectionOptions {
	opts.MaxWorkers = n
	return opts
}
