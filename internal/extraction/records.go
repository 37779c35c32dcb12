package extraction

// Unknown is the placeholder for string fields the oracle did not supply
const Unknown = "unknown"

// LineItem is a single billed or ordered line
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// InvoiceRecord is the normalized invoice
type InvoiceRecord struct {
	InvoiceNo string     `json:"invoice_no"`
	Date      string     `json:"date"`
	Vendor    string     `json:"vendor"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
}

// PORecord is the normalized purchase order
type PORecord struct {
	PONo   string     `json:"po_no"`
	Date   string     `json:"date"`
	Vendor string     `json:"vendor"`
	Items  []LineItem `json:"items"`
	Total  float64    `json:"total"`
}

// AnalysisResult is the oracle's structured answer before any edits
type AnalysisResult struct {
	Invoice InvoiceRecord `json:"invoice_data"`
	PO      PORecord      `json:"po_data"`

	// Warnings lists schema violations that were tolerated while mapping
	Warnings []string `json:"-"`
}

// NewInvoiceRecord returns an invoice with every field at its default
func NewInvoiceRecord() InvoiceRecord {
	return InvoiceRecord{
		InvoiceNo: Unknown,
		Date:      Unknown,
		Vendor:    Unknown,
		Items:     []LineItem{},
	}
}

// NewPORecord returns a purchase order with every field at its default
func NewPORecord() PORecord {
	return PORecord{
		PONo:   Unknown,
		Date:   Unknown,
		Vendor: Unknown,
		Items:  []LineItem{},
	}
}

// EmptyResult is what callers receive when extraction fails
func EmptyResult() AnalysisResult {
	return AnalysisResult{
		Invoice: NewInvoiceRecord(),
		PO:      NewPORecord(),
	}
}

// CloneItems copies items so callers cannot alias a record's slice.
// A nil slice becomes an empty one.
func CloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
