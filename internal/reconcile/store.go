package reconcile

import (
	"sync"

	"github.com/anjanakv868/invoice-po-matching-tool/internal/extraction"
)

// Edits are partial overwrites from an interactive review. Nil fields are
// left alone; a non-nil Items replaces the whole list.
type Edits struct {
	Number *string                `json:"number,omitempty"`
	Vendor *string                `json:"vendor,omitempty"`
	Total  *float64               `json:"total,omitempty"`
	Items  *[]extraction.LineItem `json:"items,omitempty"`
}

// Store holds one session's invoice and purchase order across edits.
// Stores must not be shared between sessions.
type Store struct {
	mu      sync.Mutex
	invoice extraction.InvoiceRecord
	po      extraction.PORecord
}

// NewStore seeds a store with freshly extracted records
func NewStore(invoice extraction.InvoiceRecord, po extraction.PORecord) *Store {
	s := &Store{}
	s.Set(invoice, po)
	return s
}

// Get returns copies of the current records
func (s *Store) Get() (extraction.InvoiceRecord, extraction.PORecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoice, po := s.invoice, s.po
	invoice.Items = extraction.CloneItems(invoice.Items)
	po.Items = extraction.CloneItems(po.Items)
	return invoice, po
}

// Set replaces both records wholesale
func (s *Store) Set(invoice extraction.InvoiceRecord, po extraction.PORecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoice.Items = extraction.CloneItems(invoice.Items)
	po.Items = extraction.CloneItems(po.Items)
	s.invoice, s.po = invoice, po
}

// ApplyEdits overwrites the edited fields of each record
func (s *Store) ApplyEdits(invoiceEdits, poEdits Edits) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if invoiceEdits.Number != nil {
		s.invoice.InvoiceNo = *invoiceEdits.Number
	}
	applyCommon(invoiceEdits, &s.invoice.Vendor, &s.invoice.Total, &s.invoice.Items)

	if poEdits.Number != nil {
		s.po.PONo = *poEdits.Number
	}
	applyCommon(poEdits, &s.po.Vendor, &s.po.Total, &s.po.Items)
}

func applyCommon(e Edits, vendor *string, total *float64, items *[]extraction.LineItem) {
	if e.Vendor != nil {
		*vendor = *e.Vendor
	}
	if e.Total != nil {
		*total = *e.Total
	}
	if e.Items != nil {
		*items = extraction.CloneItems(*e.Items)
	}
}

// Evaluate runs the reconciliation rule on whatever is currently stored
func (s *Store) Evaluate() Verdict {
	invoice, po := s.Get()
	return Evaluate(invoice, po)
}
