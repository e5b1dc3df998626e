// Package completeness computes which required documents an application is
// still missing and whether it qualifies for workflow advancement. It is a
// pure function of the requirement catalog and the current document set; it
// performs no I/O and holds no state.
package completeness

import (
	"posintake/internal/application/models"
	"posintake/internal/catalog"
)

// Report is the completeness verdict for one application.
type Report struct {
	// Satisfied is true when no mandatory type is missing and no document
	// is flagged deficient.
	Satisfied bool
	// Missing lists mandatory types with no document row at all, in
	// catalog order.
	Missing []catalog.DocumentType
	// Deficient lists types whose row staff explicitly flagged, in the
	// order the rows appear. Distinct from missing: a deficient document
	// may still have a prior upload visible for reference.
	Deficient []catalog.DocumentType
}

// Evaluate checks the document set against the mandatory requirements for
// the application's variant. Optional types never block completeness.
func Evaluate(cat *catalog.Catalog, variant catalog.Variant, docs []models.Document) Report {
	byType := make(map[catalog.DocumentType]models.Document, len(docs))
	for _, d := range docs {
		byType[d.Type] = d
	}

	var report Report
	for _, dt := range cat.Mandatory(variant) {
		if _, ok := byType[dt]; !ok {
			report.Missing = append(report.Missing, dt)
		}
	}
	for _, d := range docs {
		if d.Status == models.DocumentDeficient {
			report.Deficient = append(report.Deficient, d.Type)
		}
	}

	report.Satisfied = len(report.Missing) == 0 && len(report.Deficient) == 0
	return report
}
