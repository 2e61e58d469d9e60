/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package document

// DocumentBuilder builds a Document step by step.
//
//	doc := document.NewDocumentBuilder().
//		DocID(document.NewDocID()).
//		DocType(document.TypeLPIntroduceGoods).
//		OwnerInn("7700000000").
//		AddProduct(document.NewProductBuilder().UitCode("010463...").Build()).
//		Build()
type DocumentBuilder struct {
	doc Document
}

// NewDocumentBuilder returns an empty DocumentBuilder.
func NewDocumentBuilder() *DocumentBuilder {
	return &DocumentBuilder{}
}

// Description sets the participant INN of the description block.
func (b *DocumentBuilder) Description(participantInn string) *DocumentBuilder {
	b.doc.Description = &Description{ParticipantInn: participantInn}
	return b
}

// DocID sets the document identifier.
func (b *DocumentBuilder) DocID(id string) *DocumentBuilder {
	b.doc.DocID = id
	return b
}

// DocStatus sets the document status.
func (b *DocumentBuilder) DocStatus(status string) *DocumentBuilder {
	b.doc.DocStatus = status
	return b
}

// DocType sets the document type.
func (b *DocumentBuilder) DocType(docType string) *DocumentBuilder {
	b.doc.DocType = docType
	return b
}

// ImportRequest marks the document as an import request.
func (b *DocumentBuilder) ImportRequest(importRequest bool) *DocumentBuilder {
	b.doc.ImportRequest = importRequest
	return b
}

// OwnerInn sets the owner INN.
func (b *DocumentBuilder) OwnerInn(inn string) *DocumentBuilder {
	b.doc.OwnerInn = inn
	return b
}

// ParticipantInn sets the participant INN.
func (b *DocumentBuilder) ParticipantInn(inn string) *DocumentBuilder {
	b.doc.ParticipantInn = inn
	return b
}

// ProducerInn sets the producer INN.
func (b *DocumentBuilder) ProducerInn(inn string) *DocumentBuilder {
	b.doc.ProducerInn = inn
	return b
}

// ProductionDate sets the production date.
func (b *DocumentBuilder) ProductionDate(d Date) *DocumentBuilder {
	b.doc.ProductionDate = d
	return b
}

// ProductionType sets the production type.
func (b *DocumentBuilder) ProductionType(productionType string) *DocumentBuilder {
	b.doc.ProductionType = productionType
	return b
}

// AddProduct appends products to the document.
func (b *DocumentBuilder) AddProduct(products ...Product) *DocumentBuilder {
	b.doc.Products = append(b.doc.Products, products...)
	return b
}

// RegDate sets the registration date.
func (b *DocumentBuilder) RegDate(d Date) *DocumentBuilder {
	b.doc.RegDate = d
	return b
}

// RegNumber sets the registration number.
func (b *DocumentBuilder) RegNumber(regNumber string) *DocumentBuilder {
	b.doc.RegNumber = regNumber
	return b
}

// Build returns the Document. Later changes of the builder do not affect returned values.
func (b *DocumentBuilder) Build() Document {
	doc := b.doc
	if b.doc.Description != nil {
		desc := *b.doc.Description
		doc.Description = &desc
	}
	doc.Products = append([]Product(nil), b.doc.Products...)
	return doc
}

// ProductBuilder builds a Product step by step.
type ProductBuilder struct {
	product Product
}

// NewProductBuilder returns an empty ProductBuilder.
func NewProductBuilder() *ProductBuilder {
	return &ProductBuilder{}
}

// CertificateDocument sets the certificate document type.
func (b *ProductBuilder) CertificateDocument(v string) *ProductBuilder {
	b.product.CertificateDocument = v
	return b
}

// CertificateDocumentDate sets the certificate document date.
func (b *ProductBuilder) CertificateDocumentDate(d Date) *ProductBuilder {
	b.product.CertificateDocumentDate = d
	return b
}

// CertificateDocumentNumber sets the certificate document number.
func (b *ProductBuilder) CertificateDocumentNumber(v string) *ProductBuilder {
	b.product.CertificateDocumentNumber = v
	return b
}

// OwnerInn sets the owner INN.
func (b *ProductBuilder) OwnerInn(inn string) *ProductBuilder {
	b.product.OwnerInn = inn
	return b
}

// ProducerInn sets the producer INN.
func (b *ProductBuilder) ProducerInn(inn string) *ProductBuilder {
	b.product.ProducerInn = inn
	return b
}

// ProductionDate sets the production date.
func (b *ProductBuilder) ProductionDate(d Date) *ProductBuilder {
	b.product.ProductionDate = d
	return b
}

// TnvedCode sets the commodity code.
func (b *ProductBuilder) TnvedCode(code string) *ProductBuilder {
	b.product.TnvedCode = code
	return b
}

// UitCode sets the unique identification code of the item.
func (b *ProductBuilder) UitCode(code string) *ProductBuilder {
	b.product.UitCode = code
	return b
}

// UituCode sets the unique identification code of the transport package.
func (b *ProductBuilder) UituCode(code string) *ProductBuilder {
	b.product.UituCode = code
	return b
}

// Build returns the Product.
func (b *ProductBuilder) Build() Product {
	return b.product
}
