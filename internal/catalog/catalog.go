// Package catalog holds the document requirement catalog: which document
// types exist, which are mandatory per application variant, and the display
// labels for documents and statuses. The catalog is immutable configuration
// injected at construction; nothing in the workflow hard-codes a document
// type or a required field.
package catalog

import "sort"

// DocumentType keys a requirement catalog entry.
type DocumentType string

// Variant selects which requirement set applies to an application.
type Variant string

const (
	// VariantStandard is the tax-id-primary company application.
	VariantStandard Variant = "standard"
	// VariantSoleProprietor is the national-id-primary individual application.
	VariantSoleProprietor Variant = "sole_proprietor"
)

// Config is the raw catalog configuration. All maps are copied by New, so a
// Config can be reused or mutated afterwards without affecting the catalog.
type Config struct {
	DocumentLabels map[DocumentType]string
	Mandatory      map[Variant][]DocumentType
	RequiredFields map[Variant][]string
	StatusLabels   map[string]string
}

// Catalog answers requirement questions. Safe for concurrent use; never
// mutated after construction.
type Catalog struct {
	labels         map[DocumentType]string
	mandatory      map[Variant]map[DocumentType]bool
	mandatoryOrder map[Variant][]DocumentType
	requiredFields map[Variant][]string
	statusLabels   map[string]string
}

// New builds an immutable catalog from cfg.
func New(cfg Config) *Catalog {
	c := &Catalog{
		labels:         make(map[DocumentType]string, len(cfg.DocumentLabels)),
		mandatory:      make(map[Variant]map[DocumentType]bool, len(cfg.Mandatory)),
		mandatoryOrder: make(map[Variant][]DocumentType, len(cfg.Mandatory)),
		requiredFields: make(map[Variant][]string, len(cfg.RequiredFields)),
		statusLabels:   make(map[string]string, len(cfg.StatusLabels)),
	}
	for dt, label := range cfg.DocumentLabels {
		c.labels[dt] = label
	}
	for variant, types := range cfg.Mandatory {
		set := make(map[DocumentType]bool, len(types))
		order := make([]DocumentType, 0, len(types))
		for _, dt := range types {
			if !set[dt] {
				order = append(order, dt)
			}
			set[dt] = true
		}
		c.mandatory[variant] = set
		c.mandatoryOrder[variant] = order
	}
	for variant, fields := range cfg.RequiredFields {
		c.requiredFields[variant] = append([]string(nil), fields...)
	}
	for status, label := range cfg.StatusLabels {
		c.statusLabels[status] = label
	}
	return c
}

// Default returns the catalog shipped with the service: the standard
// company variant and a sole-proprietor variant that keys on national id.
func Default() *Catalog {
	return New(Config{
		DocumentLabels: map[DocumentType]string{
			"ticari_sicil":      "Trade Registry Gazette",
			"imza_sirkuleri":    "Signature Circular",
			"vergi_levhasi":     "Tax Plate",
			"kimlik_fotokopisi": "Identity Card Copy (Authorized Person)",
			"ikametgah":         "Residence Certificate",
			"faaliyet_belgesi":  "Certificate of Activity",
			"isyeri_fotografi":  "Premises Photograph",
			"kira_tapu":         "Lease Contract / Title Deed",
			"banka_hesabi":      "Bank Account Statement",
		},
		Mandatory: map[Variant][]DocumentType{
			VariantStandard: {
				"ticari_sicil", "imza_sirkuleri", "vergi_levhasi",
				"kimlik_fotokopisi", "ikametgah", "faaliyet_belgesi",
			},
			VariantSoleProprietor: {
				"vergi_levhasi", "kimlik_fotokopisi", "ikametgah", "faaliyet_belgesi",
			},
		},
		RequiredFields: map[Variant][]string{
			VariantStandard: {
				"company_name", "company_type", "tax_no", "tax_office",
				"trade_registry_no", "business_field", "address", "province",
				"district", "contact_name", "phone", "email",
				"pos_count", "pos_type", "monthly_revenue", "avg_ticket",
			},
			VariantSoleProprietor: {
				"company_name", "national_id", "business_field", "address",
				"province", "district", "contact_name", "phone", "email",
				"pos_count", "pos_type", "monthly_revenue", "avg_ticket",
			},
		},
		StatusLabels: map[string]string{
			"received":           "Application Received",
			"under_review":       "Document Review",
			"evaluation":         "Evaluation",
			"awaiting_documents": "Additional Documents Required",
			"approved":           "Approved",
			"rejected":           "Rejected",
		},
	})
}

// Label returns the display label for a document type, falling back to the
// raw type for unknown entries.
func (c *Catalog) Label(dt DocumentType) string {
	if label, ok := c.labels[dt]; ok {
		return label
	}
	return string(dt)
}

// Known reports whether the document type exists in the catalog at all.
func (c *Catalog) Known(dt DocumentType) bool {
	_, ok := c.labels[dt]
	return ok
}

// IsMandatory reports whether dt is mandatory for the given variant. Types
// absent from the mandatory set are optional and never block completeness.
func (c *Catalog) IsMandatory(variant Variant, dt DocumentType) bool {
	return c.mandatory[variant][dt]
}

// Mandatory returns the mandatory document types for a variant in
// configuration order. The returned slice is a copy.
func (c *Catalog) Mandatory(variant Variant) []DocumentType {
	return append([]DocumentType(nil), c.mandatoryOrder[variant]...)
}

// RequiredFields returns the required field names for a variant as a copy.
func (c *Catalog) RequiredFields(variant Variant) []string {
	return append([]string(nil), c.requiredFields[variant]...)
}

// KnownVariant reports whether the variant has a requirement set.
func (c *Catalog) KnownVariant(variant Variant) bool {
	_, ok := c.mandatory[variant]
	return ok
}

// Variants lists the configured variants, sorted for stable output.
func (c *Catalog) Variants() []Variant {
	out := make([]Variant, 0, len(c.mandatory))
	for v := range c.mandatory {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// StatusLabel returns the display label for a workflow status, falling back
// to the raw status string.
func (c *Catalog) StatusLabel(status string) string {
	if label, ok := c.statusLabels[status]; ok {
		return label
	}
	return status
}
