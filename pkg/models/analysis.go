package models

// AnalysisResponse is what a client receives after a successful analysis.
type AnalysisResponse struct {
	SessionID        string       `json:"sessionId"`
	SkinType         string       `json:"skinType"`
	RecommendedRange string       `json:"recommendedRange"`
	GlobalAppearance string       `json:"globalAppearance"`
	Observations     []string     `json:"observations"`
	Priorities       []string     `json:"priorities"`
	Routine          Routine      `json:"routine"`
	Products         []Product    `json:"products"`
	PhotoQuality     PhotoQuality `json:"photoQuality"`
	Image            ImageInfo    `json:"image"`
	Timestamp        string       `json:"timestamp"`
	ProcessingTimeMs int64        `json:"processingTimeMs"`
	Message          string       `json:"message,omitempty"`
}

// RoutineStep is one step of the suggested routine.
type RoutineStep struct {
	Role    string `json:"role"`
	Benefit string `json:"benefit"`
	Tip     string `json:"tip,omitempty"`
}

type Routine struct {
	Morning []RoutineStep `json:"morning"`
	Evening []RoutineStep `json:"evening"`
}

// Product is a storefront suggestion, recommended range first.
type Product struct {
	Title   string `json:"title"`
	Type    string `json:"type,omitempty"`
	Benefit string `json:"benefit,omitempty"`
	Price   string `json:"price,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Range   string `json:"range,omitempty"`
	URL     string `json:"url,omitempty"`
}

// QualityWarning is an advisory remark about the submitted photo.
type QualityWarning struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// PhotoQuality summarizes the local inspection. It never blocks a submission.
type PhotoQuality struct {
	Critical bool             `json:"critical"`
	Warnings []QualityWarning `json:"warnings"`
}

// ImageInfo describes the normalized image that was sent.
type ImageInfo struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
	MIMEType string `json:"mimeType"`
}
