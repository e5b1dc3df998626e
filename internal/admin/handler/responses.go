package handler

import (
	"time"

	"posintake/internal/admin/models"
	"posintake/internal/admin/service"
	appmodels "posintake/internal/application/models"
	appservice "posintake/internal/application/service"
	appstore "posintake/internal/application/store"
)

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      userResponse `json:"user"`
}

func toLoginResponse(result *service.LoginResult) loginResponse {
	return loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
		User:      toUserResponse(result.User),
	}
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u models.AdminUser) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

type applicationResponse struct {
	ID          string            `json:"id"`
	ReferenceNo string            `json:"reference_no"`
	Variant     string            `json:"variant"`
	Fields      map[string]string `json:"fields"`
	Status      string            `json:"status"`
	StatusNote  string            `json:"status_note,omitempty"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

func toApplicationResponse(app *appmodels.Application) applicationResponse {
	return applicationResponse{
		ID:          app.ID.String(),
		ReferenceNo: app.ReferenceNo,
		Variant:     string(app.Variant),
		Fields:      app.Fields,
		Status:      app.Status.String(),
		StatusNote:  app.StatusNote,
		CreatedAt:   app.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   app.UpdatedAt.Format(time.RFC3339),
	}
}

type summaryResponse struct {
	applicationResponse
	DocumentCount  int `json:"document_count"`
	DeficientCount int `json:"deficient_count"`
}

type listResponse struct {
	Applications []summaryResponse `json:"applications"`
}

func toListResponse(summaries []appstore.Summary) listResponse {
	resp := listResponse{Applications: make([]summaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		app := s.Application
		resp.Applications = append(resp.Applications, summaryResponse{
			applicationResponse: toApplicationResponse(&app),
			DocumentCount:       s.DocumentCount,
			DeficientCount:      s.DeficientCount,
		})
	}
	return resp
}

type documentResponse struct {
	Type         string `json:"type"`
	Label        string `json:"label"`
	Status       string `json:"status"`
	OriginalName string `json:"original_name,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Mandatory    bool   `json:"mandatory"`
	UploadedAt   string `json:"uploaded_at,omitempty"`
}

type noteResponse struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

func toNoteResponse(n appmodels.Note) noteResponse {
	return noteResponse{
		ID:        n.ID.String(),
		Author:    n.Author,
		Text:      n.Text,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

type deliveryResponse struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Template  string `json:"template"`
	Subject   string `json:"subject"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

type detailResponse struct {
	applicationResponse
	Documents     []documentResponse `json:"documents"`
	Notes         []noteResponse     `json:"notes"`
	Notifications []deliveryResponse `json:"notifications"`
}

func toDetailResponse(detail *service.ApplicationDetail) detailResponse {
	resp := detailResponse{
		applicationResponse: toApplicationResponse(&detail.Application),
		Documents:           make([]documentResponse, 0, len(detail.Documents)),
		Notes:               make([]noteResponse, 0, len(detail.Notes)),
		Notifications:       make([]deliveryResponse, 0, len(detail.Notifications)),
	}
	for _, d := range detail.Documents {
		doc := documentResponse{
			Type:         string(d.Type),
			Label:        d.Label,
			Status:       string(d.Status),
			OriginalName: d.OriginalName,
			Size:         d.Size,
			Mandatory:    d.Mandatory,
		}
		if !d.UploadedAt.IsZero() {
			doc.UploadedAt = d.UploadedAt.Format(time.RFC3339)
		}
		resp.Documents = append(resp.Documents, doc)
	}
	for _, n := range detail.Notes {
		resp.Notes = append(resp.Notes, toNoteResponse(n))
	}
	for _, e := range detail.Notifications {
		resp.Notifications = append(resp.Notifications, deliveryResponse{
			Channel:   string(e.Channel),
			Recipient: e.Recipient,
			Template:  e.Template,
			Subject:   e.Subject,
			Outcome:   e.Outcome,
			Error:     e.Error,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

type deficiencyResponse struct {
	Token           string   `json:"token"`
	ResubmissionURL string   `json:"resubmission_url"`
	ExpiresAt       string   `json:"expires_at"`
	DocumentTypes   []string `json:"document_types"`
}

func toDeficiencyResponse(result *appservice.DeficiencyResult) deficiencyResponse {
	types := make([]string, 0, len(result.DocumentTypes))
	for _, dt := range result.DocumentTypes {
		types = append(types, string(dt))
	}
	return deficiencyResponse{
		Token:           result.Token,
		ResubmissionURL: result.ResubmissionURL,
		ExpiresAt:       result.ExpiresAt.Format(time.RFC3339),
		DocumentTypes:   types,
	}
}

type statsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}
