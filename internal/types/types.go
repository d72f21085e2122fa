// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Address is the nested postal record stored on every student.
//
// Both fields are pointers: a nil pointer encodes to JSON null, which is
// how an unset city or country appears on the wire.
type Address struct {
	City    *string `json:"city"`
	Country *string `json:"country"`
}

// Student represents a student record as returned to API clients.
//
// ID is assigned by the store on insert and never changes afterwards.
type Student struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Age     int     `json:"age"`
	Address Address `json:"address"`
}

// NewStudent is the request body for creating a student.
//
// Name and Age are pointers so that "missing from the JSON" is a nil
// pointer, which the go-playground/validator "required" tag rejects.
// A plain int would make {"age": 0} indistinguishable from no age at all.
type NewStudent struct {
	Name    *string  `json:"name"    validate:"required"`
	Age     *int     `json:"age"     validate:"required"`
	Address *Address `json:"address"`
}

// GetAddress returns the supplied address, or an empty one when the
// client left it out.
func (n NewStudent) GetAddress() Address {
	if n.Address == nil {
		return Address{}
	}
	return *n.Address
}

// StudentPatch is the request body for a partial update.
//
// Each field records whether the client sent it at all, so only supplied
// fields are written. Address is replaced as a whole; there is no merge
// of city/country into the stored address.
type StudentPatch struct {
	Name    Optional[string]  `json:"name"`
	Age     Optional[int]     `json:"age"`
	Address Optional[Address] `json:"address"`
}

// IsEmpty reports whether the patch carries no fields.
func (p StudentPatch) IsEmpty() bool {
	return !p.Name.Set && !p.Age.Set && !p.Address.Set
}

// Validate rejects explicit nulls. A student always has a name, an age
// and an address record; clearing city or country is done by sending an
// address whose sub-fields are null.
func (p StudentPatch) Validate() error {
	var nulls []string
	if p.Name.Null {
		nulls = append(nulls, "name")
	}
	if p.Age.Null {
		nulls = append(nulls, "age")
	}
	if p.Address.Null {
		nulls = append(nulls, "address")
	}
	if len(nulls) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(nulls))
	for _, f := range nulls {
		msgs = append(msgs, fmt.Sprintf("field %s must not be null", f))
	}
	return errors.New(strings.Join(msgs, ", "))
}

// StudentFilter narrows a list query. Nil fields are not applied; the
// ones that are set are AND-combined.
type StudentFilter struct {
	// Country matches address.country exactly.
	Country *string
	// MinAge matches age >= MinAge.
	MinAge *int
}
