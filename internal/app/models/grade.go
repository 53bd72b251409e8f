package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// MinGradeValue and MaxGradeValue bound every grade, inclusive
	MinGradeValue = decimal.Zero
	MaxGradeValue = decimal.NewFromInt(10)
	// PassingGrade is the threshold an average must reach to pass
	PassingGrade = decimal.NewFromInt(5)
)

// Grade defines one mark given within an enrollment
type Grade struct {
	ID           GradeID         `json:"id" db:"id" example:"1"`
	EnrollmentID EnrollmentID    `json:"enrollmentId" db:"enrollment_id" example:"1"`
	Value        decimal.Decimal `json:"value" db:"value_hundredths" example:"7.5"`
	Notes        string          `json:"notes,omitempty" db:"notes" example:"Final exam"`
}

// NewGrade creates a grade for an enrollment
func NewGrade(enrollmentID EnrollmentID, value decimal.Decimal, notes string) *Grade {
	return &Grade{EnrollmentID: enrollmentID, Value: value, Notes: notes}
}

// Passed reports whether the grade reaches PassingGrade
func (g *Grade) Passed() bool {
	return g.Value.GreaterThanOrEqual(PassingGrade)
}

// Validate checks the grade's value, note and reference
func (g *Grade) Validate() error {
	var v validator
	v.positive("enrollmentId", int64(g.EnrollmentID))
	if err := ValidateGradeValue(g.Value); err != nil {
		v.add("value", "%s", err.Error())
	}
	v.maxLen("notes", g.Notes, MaxNotesLength)
	return v.err()
}

// ValidateGradeValue checks that d lies in [0, 10] with at most two decimals
func ValidateGradeValue(d decimal.Decimal) error {
	if d.LessThan(MinGradeValue) || d.GreaterThan(MaxGradeValue) {
		return fmt.Errorf("must be between %s and %s", MinGradeValue.StringFixed(2), MaxGradeValue.StringFixed(2))
	}
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("must have at most two decimals")
	}
	return nil
}

// ParseGradeValue parses and validates a grade such as "7.5" or "7,50"
func ParseGradeValue(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(raw), ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid grade %q", raw)
	}
	if err := ValidateGradeValue(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ToHundredths converts a validated grade to its stored integer form
func ToHundredths(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromHundredths converts a stored integer back to a grade
func FromHundredths(h int64) decimal.Decimal {
	return decimal.New(h, -2)
}

// AverageFromHundredths divides a hundredths sum by count, rounding half away
// from zero to two places. A zero count yields zero.
func AverageFromHundredths(sum, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return decimal.New(sum, -2).DivRound(decimal.NewFromInt(count), 2)
}

// MeanReaches reports whether the exact mean of a hundredths sum over count
// is at least threshold. The comparison is done before any rounding, so 4.995
// does not reach 5. A zero count has a mean of zero.
func MeanReaches(sum, count int64, threshold decimal.Decimal) bool {
	if count <= 0 {
		return decimal.Zero.GreaterThanOrEqual(threshold)
	}
	return decimal.New(sum, -2).GreaterThanOrEqual(threshold.Mul(decimal.NewFromInt(count)))
}
