package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/turtacn/MedRemind/pkg/types/medication"
)

// File is an image to upload.
type File struct {
	Name string
	Data []byte
}

// UploadRequest carries a prescription photo and optional package and pill
// photos.
type UploadRequest struct {
	Image           File
	PackageImage    *File
	MedicationImage *File
}

// UploadResult is the response of Upload. PrescriptionID is empty when the
// photo held no readable text.
type UploadResult struct {
	OCRText        string                `json:"ocrText"`
	NLPData        *medication.NLPResult `json:"nlpData"`
	PrescriptionID string                `json:"prescriptionId,omitempty"`
	ImageURLs      medication.ImageURLs  `json:"imageUrls"`
	Prescription   *Reminder             `json:"prescription,omitempty"`
}

// PrescriptionsClient covers /prescriptions.
type PrescriptionsClient struct {
	client *Client
}

// Upload sends the photos as multipart/form-data. Uploads are not retried.
func (p *PrescriptionsClient) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Image.Data) == 0 {
		return nil, fmt.Errorf("%w: prescription image is required", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	parts := []struct {
		field string
		file  *File
	}{
		{"prescriptionImage", &req.Image},
		{"packageImage", req.PackageImage},
		{"medicationImage", req.MedicationImage},
	}
	for _, part := range parts {
		if part.file == nil || len(part.file.Data) == 0 {
			continue
		}
		name := part.file.Name
		if name == "" {
			name = part.field + ".jpg"
		}
		fw, err := w.CreateFormFile(part.field, name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(part.file.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out UploadResult
	url := p.client.baseURL + p.client.basePath + "/prescriptions/upload"
	if err := p.client.send(ctx, http.MethodPost, url, w.FormDataContentType(), buf.Bytes(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
