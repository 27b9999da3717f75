package client

import (
	"encoding/json"
	"strings"
	"time"
)

// SubmissionRequest is one photo submission. It is consumed by exactly one Submit call.
type SubmissionRequest struct {
	Shop      string
	SessionID string
	// Image is the base64 payload of the normalized JPEG.
	Image     string
	MIMEType  string
	FileName  string
	Locale    string
	UserAgent string
	Timestamp time.Time
}

type submissionContext struct {
	Locale    string `json:"locale"`
	UserAgent string `json:"userAgent"`
	Timestamp string `json:"timestamp"`
}

type submissionPayload struct {
	Shop      string            `json:"shop"`
	SessionID string            `json:"sessionId"`
	Image     string            `json:"image"`
	MIMEType  string            `json:"mimeType"`
	FileName  string            `json:"fileName"`
	Context   submissionContext `json:"context"`
}

func (r SubmissionRequest) payload() submissionPayload {
	return submissionPayload{
		Shop:      r.Shop,
		SessionID: r.SessionID,
		Image:     r.Image,
		MIMEType:  r.MIMEType,
		FileName:  r.FileName,
		Context: submissionContext{
			Locale:    r.Locale,
			UserAgent: r.UserAgent,
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
}

// RawAnalysisResult is the remote service's reply, immutable once decoded.
type RawAnalysisResult struct {
	Success bool
	// Message is the free-text analysis, from "message" or else "analysis".
	Message string
	// Products is the pre-structured product list, from "products" or else "recommendations".
	Products []json.RawMessage
	Error    string
}

type analysisResponse struct {
	Success         *bool             `json:"success"`
	Message         *string           `json:"message"`
	Analysis        *string           `json:"analysis"`
	Products        []json.RawMessage `json:"products"`
	Recommendations []json.RawMessage `json:"recommendations"`
	Error           string            `json:"error"`
}

// UnmarshalJSON resolves the field aliases. A missing success flag counts as success.
func (r *RawAnalysisResult) UnmarshalJSON(data []byte) error {
	var resp analysisResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}

	r.Success = resp.Success == nil || *resp.Success
	switch {
	case resp.Message != nil:
		r.Message = *resp.Message
	case resp.Analysis != nil:
		r.Message = *resp.Analysis
	}
	if resp.Products != nil {
		r.Products = resp.Products
	} else {
		r.Products = resp.Recommendations
	}
	r.Error = resp.Error
	return nil
}

// errorBody is what the service sends with a non-2xx status, when anything.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func upstreamMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Error != "" {
		return strings.TrimSpace(eb.Error)
	}
	return strings.TrimSpace(eb.Message)
}
