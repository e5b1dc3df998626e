package models

import (
	"fmt"
	"net/mail"
	"strings"

	"posintake/internal/catalog"
	dErrors "posintake/pkg/domain-errors"
	platformstrings "posintake/pkg/platform/strings"
)

// SubmitRequest is a new application: free-form fields plus the initial
// document set, keyed by document type.
type SubmitRequest struct {
	Variant string
	Fields  map[string]string
	Files   []Upload
}

func (r *SubmitRequest) Normalize() {
	if r == nil {
		return
	}
	r.Variant = strings.TrimSpace(strings.ToLower(r.Variant))
	if r.Variant == "" {
		r.Variant = string(catalog.VariantStandard)
	}
	for k, v := range r.Fields {
		r.Fields[k] = strings.TrimSpace(v)
	}
}

// Validate checks the submission against the requirement catalog and
// reports every violation at once: missing fields, malformed fields,
// missing mandatory documents, and per-file problems.
func (r *SubmitRequest) Validate(cat *catalog.Catalog) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	variant := catalog.Variant(r.Variant)
	if !cat.KnownVariant(variant) {
		return dErrors.New(dErrors.CodeValidation, "unknown application variant")
	}

	var violations []string

	for _, field := range cat.RequiredFields(variant) {
		if r.Fields[field] == "" {
			violations = append(violations, "field "+field+" is required")
		}
	}
	violations = append(violations, r.formatViolations()...)

	present := make(map[catalog.DocumentType]bool, len(r.Files))
	for _, f := range r.Files {
		present[catalog.DocumentType(f.DocumentType)] = true
	}
	for _, dt := range cat.Mandatory(variant) {
		if !present[dt] {
			violations = append(violations, "document "+cat.Label(dt)+" is required")
		}
	}
	for _, f := range r.Files {
		if !cat.Known(catalog.DocumentType(f.DocumentType)) {
			violations = append(violations, fmt.Sprintf("unknown document type %q", f.DocumentType))
			continue
		}
		if err := f.Check(); err != nil {
			violations = append(violations, err.Error())
		}
	}

	if len(violations) > 0 {
		return dErrors.NewValidation("application is incomplete", violations)
	}
	return nil
}

// formatViolations applies the few format rules beyond required-presence.
func (r *SubmitRequest) formatViolations() []string {
	var out []string
	if v := r.Fields["tax_no"]; v != "" && !digitsOfLen(v, 10) {
		out = append(out, "field tax_no must be 10 digits")
	}
	if v := r.Fields["national_id"]; v != "" && !digitsOfLen(v, 11) {
		out = append(out, "field national_id must be 11 digits")
	}
	if v := r.Fields["email"]; v != "" {
		if _, err := mail.ParseAddress(v); err != nil {
			out = append(out, "field email is not a valid address")
		}
	}
	if v := r.Fields["phone"]; v != "" && countDigits(v) < 10 {
		out = append(out, "field phone must contain at least 10 digits")
	}
	return out
}

func digitsOfLen(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// ChangeStatusRequest is the staff status transition input. Reopen must be
// set explicitly to move an application out of a terminal state; the
// transition is recorded as a reopen in the status note.
type ChangeStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Reopen bool   `json:"reopen,omitempty"`
}

func (r *ChangeStatusRequest) Normalize() {
	if r == nil {
		return
	}
	r.Status = strings.TrimSpace(strings.ToLower(r.Status))
	r.Note = strings.TrimSpace(r.Note)
}

func (r *ChangeStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Note) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "note must be 1000 characters or less")
	}
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if !Status(r.Status).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid status")
	}
	return nil
}

// FlagDeficienciesRequest names the document types staff found deficient.
type FlagDeficienciesRequest struct {
	DocumentTypes []string `json:"document_types"`
	Note          string   `json:"note"`
}

func (r *FlagDeficienciesRequest) Normalize() {
	if r == nil {
		return
	}
	r.DocumentTypes = platformstrings.DedupeAndTrimLower(r.DocumentTypes)
	r.Note = strings.TrimSpace(r.Note)
}

func (r *FlagDeficienciesRequest) Validate(cat *catalog.Catalog) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Note) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "note must be 1000 characters or less")
	}
	if len(r.DocumentTypes) == 0 {
		return dErrors.New(dErrors.CodeValidation, "document_types must not be empty")
	}
	var violations []string
	for _, dt := range r.DocumentTypes {
		if !cat.Known(catalog.DocumentType(dt)) {
			violations = append(violations, fmt.Sprintf("unknown document type %q", dt))
		}
	}
	if len(violations) > 0 {
		return dErrors.NewValidation("deficiency request is invalid", violations)
	}
	return nil
}

// LookupRequest recovers an access token from the reference number plus the
// legal identifier (tax number or trade registry number).
type LookupRequest struct {
	ReferenceNo string `json:"reference_no"`
	TaxNo       string `json:"tax_no"`
}

func (r *LookupRequest) Normalize() {
	if r == nil {
		return
	}
	r.ReferenceNo = strings.TrimSpace(r.ReferenceNo)
	r.TaxNo = strings.TrimSpace(r.TaxNo)
}

func (r *LookupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.ReferenceNo == "" {
		return dErrors.New(dErrors.CodeValidation, "reference_no is required")
	}
	if r.TaxNo == "" {
		return dErrors.New(dErrors.CodeValidation, "tax_no is required")
	}
	return nil
}
