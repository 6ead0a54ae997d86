// Package blood provides the blood type primitive and the ABO/Rh
// compatibility rules used by matching.
package blood

import (
	"strings"

	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

// Type is a validated ABO/Rh blood type.
// Invariant: the value is one of the eight supported types.
//
// Usage: construct via ParseType at trust boundaries; direct casting bypasses
// validation.
type Type string

// Supported blood types.
const (
	APos  Type = "A+"
	ANeg  Type = "A-"
	BPos  Type = "B+"
	BNeg  Type = "B-"
	ABPos Type = "AB+"
	ABNeg Type = "AB-"
	OPos  Type = "O+"
	ONeg  Type = "O-"
)

// compatibleDonors maps a recipient blood type to the donor types whose blood
// it can receive. This is the single source of truth for compatibility; the
// reverse direction (CompatibleRecipients) is derived from it so the two can
// never drift apart.
var compatibleDonors = map[Type][]Type{
	APos:  {APos, ANeg, OPos, ONeg},
	ANeg:  {ANeg, ONeg},
	BPos:  {BPos, BNeg, OPos, ONeg},
	BNeg:  {BNeg, ONeg},
	ABPos: {APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg},
	ABNeg: {ANeg, BNeg, ABNeg, ONeg},
	OPos:  {OPos, ONeg},
	ONeg:  {ONeg},
}

// compatibleRecipients is the inversion of compatibleDonors, built once at
// init so both lookups are O(1).
var compatibleRecipients = invert(compatibleDonors)

func invert(forward map[Type][]Type) map[Type][]Type {
	reverse := make(map[Type][]Type, len(forward))
	for _, recipient := range All() {
		for _, donor := range forward[recipient] {
			reverse[donor] = append(reverse[donor], recipient)
		}
	}
	return reverse
}

// All returns the eight supported blood types in a stable order.
func All() []Type {
	return []Type{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}
}

// ParseType constructs a Type from external input. Matching is
// case-insensitive on the ABO letters ("ab+" parses as AB+); surrounding
// whitespace is rejected.
//
// Errors: CodeInvalidBloodType when the value is empty or unsupported.
func ParseType(s string) (Type, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidBloodType, "blood type cannot be empty")
	}
	t := Type(strings.ToUpper(s))
	if _, ok := compatibleDonors[t]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidBloodType, "invalid blood type: %s", s)
	}
	return t, nil
}

// IsValid checks if the blood type is one of the supported values.
func (t Type) IsValid() bool {
	_, ok := compatibleDonors[t]
	return ok
}

// String returns the string representation of the blood type.
func (t Type) String() string {
	return string(t)
}

// CompatibleDonors returns the donor blood types a recipient with type t can
// receive from. The result is a copy; callers may modify it freely.
//
// Errors: CodeInvalidBloodType when t is not a supported type.
func CompatibleDonors(t Type) ([]Type, error) {
	donors, ok := compatibleDonors[t]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidBloodType, "invalid blood type: %s", t)
	}
	out := make([]Type, len(donors))
	copy(out, donors)
	return out, nil
}

// CompatibleRecipients returns the recipient blood types a donor with type t
// can give to. The result is a copy; callers may modify it freely.
//
// Errors: CodeInvalidBloodType when t is not a supported type.
func CompatibleRecipients(t Type) ([]Type, error) {
	recipients, ok := compatibleRecipients[t]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidBloodType, "invalid blood type: %s", t)
	}
	out := make([]Type, len(recipients))
	copy(out, recipients)
	return out, nil
}

// CanDonateTo reports whether blood of type donor can be transfused to a
// recipient of type recipient. Unknown types are compatible with nothing.
func CanDonateTo(donor, recipient Type) bool {
	for _, d := range compatibleDonors[recipient] {
		if d == donor {
			return true
		}
	}
	return false
}
