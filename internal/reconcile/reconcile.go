package reconcile

import (
	"math"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
)

// TotalTolerance is the largest total difference still treated as equal, exclusive
const TotalTolerance = 0.01

// Status is the outcome of comparing an invoice with its purchase order
type Status string

const (
	Matched     Status = "MATCHED"
	NeedsReview Status = "NEEDS_REVIEW"
)

// Verdict is the result of Evaluate. The mismatch flags are independent.
type Verdict struct {
	Status         Status `json:"status"`
	VendorMismatch bool   `json:"vendor_mismatch"`
	TotalMismatch  bool   `json:"total_mismatch"`
}

// Reasons lists the discrepancies behind a NEEDS_REVIEW verdict
func (v Verdict) Reasons() []string {
	var reasons []string
	if v.VendorMismatch {
		reasons = append(reasons, "vendor mismatch")
	}
	if v.TotalMismatch {
		reasons = append(reasons, "total mismatch")
	}
	return reasons
}

// Evaluate matches iff the vendor names are exactly equal (case-sensitive, no
// normalization) and the totals differ by less than TotalTolerance.
func Evaluate(invoice extraction.InvoiceRecord, po extraction.PORecord) Verdict {
	v := Verdict{
		VendorMismatch: invoice.Vendor != po.Vendor,
		TotalMismatch:  !(math.Abs(invoice.Total-po.Total) < TotalTolerance),
	}
	if v.VendorMismatch || v.TotalMismatch {
		v.Status = NeedsReview
	} else {
		v.Status = Matched
	}
	return v
}
