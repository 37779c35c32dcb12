package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// StripFence removes a surrounding markdown code block, with or without a
// language tag, and trims the result
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")

	// Drop a language tag such as "json"
	end := strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '{' || r == '['
	})
	if end > 0 && isFenceTag(text[:end]) {
		text = text[end:]
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '+' {
			return false
		}
	}
	return true
}

// ParseAnalysis decodes a fence-free oracle answer. The text must be strict
// JSON; individual fields are mapped leniently and fall back to defaults.
func ParseAnalysis(text string) (AnalysisResult, error) {
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return EmptyResult(), errNotObject
	}

	var raw struct {
		InvoiceData json.RawMessage `json:"invoice_data"`
		POData      json.RawMessage `json:"po_data"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return EmptyResult(), fmt.Errorf("unmarshaling json: %w", err)
	}

	result := EmptyResult()
	result.Warnings = checkSchema([]byte(text))

	if rec, ok := decodeRecord(raw.InvoiceData); ok {
		result.Invoice = InvoiceRecord{
			InvoiceNo: rec.InvoiceNo.orUnknown(),
			Date:      rec.Date.orUnknown(),
			Vendor:    rec.Vendor.orUnknown(),
			Items:     rec.items(),
			Total:     float64(rec.Total),
		}
	}
	if rec, ok := decodeRecord(raw.POData); ok {
		result.PO = PORecord{
			PONo:   rec.PONo.orUnknown(),
			Date:   rec.Date.orUnknown(),
			Vendor: rec.Vendor.orUnknown(),
			Items:  rec.items(),
			Total:  float64(rec.Total),
		}
	}

	return result, nil
}

var errNotObject = errors.New("answer is not a JSON object")

type rawRecord struct {
	InvoiceNo flexString      `json:"invoice_no"`
	PONo      flexString      `json:"po_no"`
	Date      flexString      `json:"date"`
	Vendor    flexString      `json:"vendor"`
	Items     json.RawMessage `json:"items"`
	Total     flexNumber      `json:"total"`
}

type rawItem struct {
	Description flexString `json:"description"`
	Quantity    flexNumber `json:"quantity"`
	Price       flexNumber `json:"price"`
}

// decodeRecord returns false when the section is missing or not an object
func decodeRecord(data json.RawMessage) (rawRecord, bool) {
	var rec rawRecord
	if len(data) == 0 || string(data) == "null" {
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false
	}
	return rec, true
}

func (r rawRecord) items() []LineItem {
	var raw []json.RawMessage
	if err := json.Unmarshal(r.Items, &raw); err != nil {
		return []LineItem{}
	}

	items := make([]LineItem, 0, len(raw))
	for _, data := range raw {
		var item rawItem
		if err := json.Unmarshal(data, &item); err != nil {
			continue
		}
		items = append(items, LineItem{
			Description: item.Description.orUnknown(),
			Quantity:    float64(item.Quantity),
			Price:       float64(item.Price),
		})
	}
	return items
}

// flexString accepts strings, numbers and booleans; anything else stays unset
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = flexString(t)
	case json.Number:
		*s = flexString(t.String())
	case bool:
		*s = flexString(strconv.FormatBool(t))
	}
	return nil
}

func (s flexString) orUnknown() string {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return Unknown
	}
	return v
}

// flexNumber accepts JSON numbers and numeric strings such as "$1,250.00".
// Values that are not finite float64s leave the field unset.
type flexNumber float64

var amountCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = amountCleaner.Replace(t)
	default:
		return nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = flexNumber(f)
	return nil
}
