package handler

import "posintake/internal/application/service"

type submitResponse struct {
	ReferenceNo string `json:"reference_no"`
	AccessToken string `json:"access_token"`
	StatusURL   string `json:"status_url"`
	Status      string `json:"status"`
}

type documentResponse struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	Status   string `json:"status,omitempty"`
	Uploaded bool   `json:"uploaded,omitempty"`
}

type statusResponse struct {
	ReferenceNo     string             `json:"reference_no"`
	Status          string             `json:"status"`
	StatusLabel     string             `json:"status_label"`
	StatusNote      string             `json:"status_note,omitempty"`
	Documents       []documentResponse `json:"documents"`
	ResubmissionURL string             `json:"resubmission_url,omitempty"`
	UpdatedAt       string             `json:"updated_at"`
}

func toStatusResponse(view *service.StatusView) statusResponse {
	resp := statusResponse{
		ReferenceNo:     view.ReferenceNo,
		Status:          view.Status.String(),
		StatusLabel:     view.StatusLabel,
		StatusNote:      view.StatusNote,
		ResubmissionURL: view.ResubmissionURL,
		UpdatedAt:       view.UpdatedAt,
	}
	for _, d := range view.Documents {
		resp.Documents = append(resp.Documents, documentResponse{
			Type:     d.Type,
			Label:    d.Label,
			Status:   d.Status,
			Uploaded: d.Uploaded,
		})
	}
	return resp
}

type lookupResponse struct {
	ReferenceNo string `json:"reference_no"`
	StatusURL   string `json:"status_url"`
}

type previewResponse struct {
	ReferenceNo string             `json:"reference_no"`
	Documents   []documentResponse `json:"documents"`
}

func toPreviewResponse(preview *service.TokenPreview) previewResponse {
	resp := previewResponse{ReferenceNo: preview.ReferenceNo}
	for _, d := range preview.Documents {
		resp.Documents = append(resp.Documents, documentResponse{Type: d.Type, Label: d.Label})
	}
	return resp
}

type rejectedUploadResponse struct {
	DocumentType string `json:"document_type"`
	Reason       string `json:"reason"`
}

type redeemResponse struct {
	ReferenceNo string                   `json:"reference_no"`
	Status      string                   `json:"status"`
	Accepted    []string                 `json:"accepted"`
	Rejected    []rejectedUploadResponse `json:"rejected,omitempty"`
	Remaining   []string                 `json:"remaining_deficient"`
}

func toRedeemResponse(result *service.RedeemResult) redeemResponse {
	resp := redeemResponse{
		ReferenceNo: result.ReferenceNo,
		Status:      result.Status.String(),
		Accepted:    make([]string, 0, len(result.Accepted)),
		Remaining:   make([]string, 0, len(result.Remaining)),
	}
	for _, dt := range result.Accepted {
		resp.Accepted = append(resp.Accepted, string(dt))
	}
	for _, r := range result.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedUploadResponse{DocumentType: r.DocumentType, Reason: r.Reason})
	}
	for _, dt := range result.Remaining {
		resp.Remaining = append(resp.Remaining, string(dt))
	}
	return resp
}
