package domain

import (
	"encoding/json"
	"fmt"
)

// BlobShape names the known layouts of a stored link-page blob.
type BlobShape int

const (
	ShapeUnknown    BlobShape = iota
	ShapeFlat                 // {"links": [...]}
	ShapeData                 // {"data": {"links": [...]}}
	ShapeCarrierBag           // {"data": {"carrierBag": {"links": [...]}}}
)

func (s BlobShape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeData:
		return "data"
	case ShapeCarrierBag:
		return "carrierBag"
	default:
		return "unknown"
	}
}

// StoredBlob is a stored document after normalization.
type StoredBlob struct {
	Shape  BlobShape
	Title  string
	Links  []LinkRecord
	Payees []Payee
}

type rawLinksHolder struct {
	Title  string       `json:"title"`
	Links  []LinkRecord `json:"links"`
	Payees []Payee      `json:"payees"`
}

type rawBlob struct {
	rawLinksHolder
	BDO  json.RawMessage `json:"bdo"`
	Data *struct {
		rawLinksHolder
		CarrierBag *rawLinksHolder `json:"carrierBag"`
	} `json:"data"`
}

// NormalizeBlob decodes a stored blob of any known shape. A backend
// envelope of the form {"bdo": {...}} is unwrapped first.
func NormalizeBlob(raw []byte) (StoredBlob, error) {
	var rb rawBlob
	if err := json.Unmarshal(raw, &rb); err != nil {
		return StoredBlob{}, fmt.Errorf("failed to decode stored blob: %w", err)
	}

	if len(rb.BDO) > 0 && string(rb.BDO) != "null" {
		return NormalizeBlob(rb.BDO)
	}

	out := StoredBlob{Title: rb.Title, Payees: rb.Payees}
	switch {
	case len(rb.Links) > 0:
		out.Shape = ShapeFlat
		out.Links = rb.Links
	case rb.Data != nil && len(rb.Data.Links) > 0:
		out.Shape = ShapeData
		out.Links = rb.Data.Links
	case rb.Data != nil && rb.Data.CarrierBag != nil && len(rb.Data.CarrierBag.Links) > 0:
		out.Shape = ShapeCarrierBag
		out.Links = rb.Data.CarrierBag.Links
	}

	if rb.Data != nil {
		if out.Title == "" {
			out.Title = rb.Data.Title
		}
		if len(out.Payees) == 0 {
			out.Payees = rb.Data.Payees
		}
	}

	return out, nil
}
