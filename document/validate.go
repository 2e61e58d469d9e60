/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package document

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// ErrInvalidDocument is matched (via errors.Is) by every *ValidationError.
var ErrInvalidDocument = errors.New("invalid document")

// FieldError describes a single invalid field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// ValidationError is returned by Validate and ValidateStrict.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Err
	}
	return ErrInvalidDocument.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap returns ErrInvalidDocument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

type documentValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	lenientValidator = newDocumentValidator(false)
	strictValidator  = newDocumentValidator(true)
)

// Validate checks that identifiers and participant INNs of the document are present.
func Validate(doc *Document) error {
	return lenientValidator.check(doc)
}

// ValidateStrict is Validate plus format checks: INNs must consist of 10 or 12 digits
// and commodity codes of 10 digits.
func ValidateStrict(doc *Document) error {
	return strictValidator.check(doc)
}

func newDocumentValidator(strict bool) *documentValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	translator, ok := ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("document: failed to get 'en' translator")
	}
	if err := entranslations.RegisterDefaultTranslations(v, translator); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	innFn, tnvedFn := isAnything, isAnything
	if strict {
		innFn = isINN
		tnvedFn = isTnved
	}
	mustRegister(v, "inn", innFn)
	mustRegister(v, "tnved", tnvedFn)
	return &documentValidator{validate: v, translator: translator}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func (dv *documentValidator) check(doc *Document) error {
	if doc == nil {
		return &ValidationError{Fields: []FieldError{{Field: "document", Err: "must not be nil"}}}
	}
	err := dv.validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, verr := range verrs {
		fields = append(fields, FieldError{Field: trimNamespace(verr.Namespace()), Err: dv.message(verr)})
	}
	return &ValidationError{Fields: fields}
}

func (dv *documentValidator) message(verr validator.FieldError) string {
	switch verr.Tag() {
	case "required":
		return "is required"
	case "inn":
		return "must consist of 10 or 12 digits"
	case "tnved":
		return "must consist of 10 digits"
	default:
		return verr.Translate(dv.translator)
	}
}

// trimNamespace turns "Document.products[0].owner_inn" into "products[0].owner_inn".
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func isAnything(validator.FieldLevel) bool {
	return true
}

func isINN(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return (len(s) == 10 || len(s) == 12) && isDigits(s)
}

func isTnved(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) == 10 && isDigits(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
