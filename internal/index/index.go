// Package index holds the immutable, in-memory booking index.
//
// Documents are addressed by dense ordinals assigned at build time. Postings,
// stored fields and numeric keys are all indexed by ordinal, so an Index can be
// shared by any number of concurrent readers without locking.
package index

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Names of the searchable text fields
const (
	FieldBookingText     = "bookingText"
	FieldBookingTextNorm = "bookingTextNorm"
	FieldMoneyAccountID  = "moneyAccountId"
)

// TextFields lists the searchable fields in the order they are scored
var TextFields = []string{FieldBookingText, FieldBookingTextNorm, FieldMoneyAccountID}

// Document holds the stored fields of one indexed booking
type Document struct {
	ID              int64
	TransactionDate string
	Amount          decimal.Decimal
	MoneyAccountID  string
	BookingText     string
}

// Index is an immutable snapshot of indexed bookings
type Index struct {
	docs      []Document
	fields    map[string]*Field
	signed    []float64
	abs       []float64
	epochDays []int64
	builtAt   time.Time
}

// Len returns the number of indexed documents
func (ix *Index) Len() int {
	return len(ix.docs)
}

// BuiltAt returns when the index was built
func (ix *Index) BuiltAt() time.Time {
	return ix.builtAt
}

// Document returns the stored fields for an ordinal. An unknown ordinal means
// the caller and the builder disagree about the index layout, so it panics.
func (ix *Index) Document(ord uint32) Document {
	ix.mustContain(ord)
	return ix.docs[ord]
}

// SignedAmount returns the signed amount of a document
func (ix *Index) SignedAmount(ord uint32) float64 {
	ix.mustContain(ord)
	return ix.signed[ord]
}

// AbsAmount returns the absolute amount of a document
func (ix *Index) AbsAmount(ord uint32) float64 {
	ix.mustContain(ord)
	return ix.abs[ord]
}

// EpochDay returns the transaction date of a document as days since 1970-01-01
func (ix *Index) EpochDay(ord uint32) int64 {
	ix.mustContain(ord)
	return ix.epochDays[ord]
}

// Field returns a text field by name. Asking for a field the builder never
// created is a programming error and panics.
func (ix *Index) Field(name string) *Field {
	f, ok := ix.fields[name]
	if !ok {
		panic(fmt.Sprintf("index: unknown field %q", name))
	}
	return f
}

func (ix *Index) mustContain(ord uint32) {
	if int(ord) >= len(ix.docs) {
		panic(fmt.Sprintf("index: ordinal %d out of range (%d documents)", ord, len(ix.docs)))
	}
}
