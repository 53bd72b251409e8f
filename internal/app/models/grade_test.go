package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseGradeValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{name: "integer", raw: "7", want: "7.00"},
		{name: "two decimals", raw: "7.25", want: "7.25"},
		{name: "comma separator", raw: " 4,5 ", want: "4.50"},
		{name: "lower bound", raw: "0", want: "0.00"},
		{name: "upper bound", raw: "10.00", want: "10.00"},
		{name: "above range", raw: "10.01", wantErr: "between"},
		{name: "negative", raw: "-1", wantErr: "between"},
		{name: "three decimals", raw: "7.255", wantErr: "two decimals"},
		{name: "trailing zero is fine", raw: "7.250", want: "7.25"},
		{name: "not a number", raw: "seven", wantErr: "invalid grade"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGradeValue(tt.raw)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestHundredthsRoundTrip(t *testing.T) {
	v := decimal.RequireFromString("7.55")
	require.Equal(t, int64(755), ToHundredths(v))
	require.True(t, v.Equal(FromHundredths(755)))
}

func TestAverageFromHundredths(t *testing.T) {
	require.True(t, AverageFromHundredths(0, 0).Equal(decimal.Zero))
	require.Equal(t, "7.00", AverageFromHundredths(600+800, 2).StringFixed(2))
	require.Equal(t, "5.75", AverageFromHundredths(750+400, 2).StringFixed(2))
	// 10/3 = 3.333..., 5/3 rounds up to 1.67
	require.Equal(t, "3.33", AverageFromHundredths(1000, 3).StringFixed(2))
	require.Equal(t, "1.67", AverageFromHundredths(500, 3).StringFixed(2))
	// 0.125 is a tie and rounds away from zero
	require.Equal(t, "0.13", AverageFromHundredths(25, 2).StringFixed(2))
}

func TestMeanReachesComparesBeforeRounding(t *testing.T) {
	// 4.99 and 5.00 average 4.995, displayed as 5.00 but not passing
	require.Equal(t, "5.00", AverageFromHundredths(499+500, 2).StringFixed(2))
	require.False(t, MeanReaches(499+500, 2, PassingGrade))

	require.True(t, MeanReaches(500+500, 2, PassingGrade))
	require.True(t, MeanReaches(750+400, 2, PassingGrade))
	require.False(t, MeanReaches(0, 0, PassingGrade))
	require.True(t, MeanReaches(0, 0, decimal.Zero))

	e := &EnrollmentWithGrades{Grades: []*Grade{
		NewGrade(1, decimal.RequireFromString("4.99"), ""),
		NewGrade(1, decimal.RequireFromString("5.00"), ""),
	}}
	require.Equal(t, "5.00", e.Average().StringFixed(2))
	require.False(t, e.Passed())
}

func TestGradeValidate(t *testing.T) {
	g := NewGrade(0, decimal.RequireFromString("11"), "")
	err := g.Validate()
	require.Error(t, err)

	fields, ok := AsValidationErrors(err)
	require.True(t, ok)
	require.Len(t, fields, 2)
	require.Equal(t, "enrollmentId", fields[0].Field)
	require.Equal(t, "value", fields[1].Field)

	require.NoError(t, NewGrade(1, decimal.RequireFromString("5"), "ok").Validate())
	require.True(t, NewGrade(1, PassingGrade, "").Passed())
}

func TestEntityValidation(t *testing.T) {
	require.NoError(t, NewUser("ana", "hash", "Ana", "García", RoleStudent).Validate())
	require.ErrorContains(t, NewUser(" ", "hash", "", "", RoleStudent).Validate(), "username is required")
	require.ErrorContains(t, NewUser("ana", "hash", "", "", "ADMIN").Validate(), "roleType")

	require.NoError(t, NewStudent(1, "2DAM", "A").Validate())
	require.ErrorContains(t, NewStudent(1, "2DAM", "ABCDEFGHIJK").Validate(), "group")
	require.ErrorContains(t, NewTeacher(0, "", "").Validate(), "userId")

	require.NoError(t, NewModule("Databases", "2DAM", 6).Validate())
	require.ErrorContains(t, NewModule("", "2DAM", 6).Validate(), "name is required")
	require.ErrorContains(t, NewModule("Databases", "2DAM", -1).Validate(), "weeklyHours")

	require.ErrorContains(t, NewEnrollment(1, 0).Validate(), "moduleId")
}

func TestEnrollmentWithGradesAverage(t *testing.T) {
	e := &EnrollmentWithGrades{}
	require.True(t, e.Average().IsZero())

	e.Grades = []*Grade{
		NewGrade(1, decimal.RequireFromString("7.50"), ""),
		NewGrade(1, decimal.RequireFromString("4.00"), ""),
	}
	require.Equal(t, "5.75", e.Average().StringFixed(2))
}
