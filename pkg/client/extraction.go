package client

import (
	"context"
	"net/http"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// SchedulePreview is the schedule one medication would get.
type SchedulePreview struct {
	Medication Medication `json:"medication"`
	Rule       string     `json:"rule"`
	Times      []string   `json:"times"`
	Canonical  []string   `json:"canonical"`
}

// PreviewRequest takes either free text or a structured medication.
type PreviewRequest struct {
	Text       string                           `json:"text,omitempty"`
	Medication *medication.StructuredMedication `json:"medication,omitempty"`
}

// ExtractionClient covers the stateless /parse and /schedule/preview calls.
type ExtractionClient struct {
	client *Client
}

// Parse runs the extraction pipeline over text without storing anything.
func (e *ExtractionClient) Parse(ctx context.Context, text string) (*medication.NLPResult, error) {
	var out medication.NLPResult
	if err := e.client.do(ctx, http.MethodPost, "/parse", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preview returns the reminder times the server would generate.
func (e *ExtractionClient) Preview(ctx context.Context, req PreviewRequest) ([]SchedulePreview, error) {
	var out struct {
		Schedules []SchedulePreview `json:"schedules"`
	}
	if err := e.client.do(ctx, http.MethodPost, "/schedule/preview", req, &out); err != nil {
		return nil, err
	}
	return out.Schedules, nil
}

//Personal.AI order the ending
