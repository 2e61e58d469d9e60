/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package document describes the goods introduction document accepted by the CRPT registry
// ("Честный ЗНАК") and provides builders and validation for it.
package document

import "github.com/google/uuid"

// Document types accepted by the registry create call.
const (
	TypeLPIntroduceGoods = "LP_INTRODUCE_GOODS"
)

// Description holds the document description block.
type Description struct {
	ParticipantInn string `json:"participantInn" validate:"omitempty,inn"`
}

// Document is the payload of the registry create call.
// Values are immutable once built; use DocumentBuilder to construct them.
type Document struct {
	Description    *Description `json:"description,omitempty"`
	DocID          string       `json:"doc_id" validate:"required"`
	DocStatus      string       `json:"doc_status"`
	DocType        string       `json:"doc_type" validate:"required"`
	ImportRequest  bool         `json:"importRequest"`
	OwnerInn       string       `json:"owner_inn" validate:"required,inn"`
	ParticipantInn string       `json:"participant_inn" validate:"required,inn"`
	ProducerInn    string       `json:"producer_inn" validate:"required,inn"`
	ProductionDate Date         `json:"production_date,omitzero"`
	ProductionType string       `json:"production_type"`
	Products       []Product    `json:"products" validate:"dive"`
	RegDate        Date         `json:"reg_date,omitzero"`
	RegNumber      string       `json:"reg_number"`
}

// Product is a single goods item of a Document.
type Product struct {
	CertificateDocument       string `json:"certificate_document"`
	CertificateDocumentDate   Date   `json:"certificate_document_date,omitzero"`
	CertificateDocumentNumber string `json:"certificate_document_number"`
	OwnerInn                  string `json:"owner_inn" validate:"omitempty,inn"`
	ProducerInn               string `json:"producer_inn" validate:"omitempty,inn"`
	ProductionDate            Date   `json:"production_date,omitzero"`
	TnvedCode                 string `json:"tnved_code" validate:"omitempty,tnved"`
	UitCode                   string `json:"uit_code"`
	UituCode                  string `json:"uitu_code"`
}

// NewDocID returns a new random document identifier.
func NewDocID() string {
	return uuid.NewString()
}
