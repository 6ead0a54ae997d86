// Package eligibility evaluates whether a donor may currently donate blood.
//
// Evaluation decomposes into four independent sub-checks (timing, age, weight,
// health) that are all computed, never short-circuited, so a donor sees every
// violated rule at once. Missing optional profile fields always default to
// permissive: eligibility only blocks on facts the donor has actually
// reported.
package eligibility

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Donation rules.
const (
	// MinIntervalDays is the minimum wait between whole-blood donations.
	MinIntervalDays = 56

	// MinAgeYears is the minimum donor age.
	MinAgeYears = 18

	// MinWeightKg is the minimum donor weight.
	MinWeightKg = 50.0
)

// Profile is the slice of a donor's medical record that eligibility rules
// read. All fields are optional.
type Profile struct {
	LastDonationDate *time.Time
	DateOfBirth      *time.Time
	WeightKg         *float64
	HealthConditions []string
}

// Status is the full eligibility report for a donor at a point in time.
// Derived on demand, never persisted.
type Status struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`

	Timing TimingStatus `json:"timing"`
	Age    AgeStatus    `json:"age"`
	Weight WeightStatus `json:"weight"`
	Health HealthStatus `json:"health"`
}

// TimingStatus reports the donation-interval sub-check.
type TimingStatus struct {
	Eligible          bool       `json:"eligible"`
	DaysSinceLast     *int       `json:"days_since_last,omitempty"`
	DaysUntilEligible int        `json:"days_until_eligible"`
	NextEligibleDate  *time.Time `json:"next_eligible_date,omitempty"`
}

// AgeStatus reports the minimum-age sub-check.
type AgeStatus struct {
	Eligible bool `json:"eligible"`
	Age      *int `json:"age,omitempty"`
}

// WeightStatus reports the minimum-weight sub-check.
type WeightStatus struct {
	Eligible bool     `json:"eligible"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
}

// HealthStatus reports the health-condition sub-check. Conditions echoes the
// donor's reported conditions back for review when the check fails.
type HealthStatus struct {
	Eligible   bool     `json:"eligible"`
	Conditions []string `json:"conditions,omitempty"`
}

// Evaluate computes the full eligibility report for a profile as of now.
//
// All four sub-checks run unconditionally; the overall flag is their
// conjunction. Reasons holds one human-readable string per failing sub-check.
func Evaluate(profile Profile, now time.Time) Status {
	status := Status{
		Reasons: []string{},
		Timing:  evaluateTiming(profile.LastDonationDate, now),
		Age:     evaluateAge(profile.DateOfBirth, now),
		Weight:  evaluateWeight(profile.WeightKg),
		Health:  evaluateHealth(profile.HealthConditions),
	}

	if !status.Timing.Eligible {
		status.Reasons = append(status.Reasons,
			fmt.Sprintf("Must wait %d more days (%d-day minimum interval)",
				status.Timing.DaysUntilEligible, MinIntervalDays))
	}
	if !status.Age.Eligible {
		status.Reasons = append(status.Reasons,
			fmt.Sprintf("Must be at least %d years old", MinAgeYears))
	}
	if !status.Weight.Eligible {
		status.Reasons = append(status.Reasons,
			fmt.Sprintf("Must weigh at least %d kg", int(MinWeightKg)))
	}
	if !status.Health.Eligible {
		status.Reasons = append(status.Reasons,
			"Health conditions may affect eligibility")
	}

	status.Eligible = status.Timing.Eligible &&
		status.Age.Eligible &&
		status.Weight.Eligible &&
		status.Health.Eligible
	return status
}

func evaluateTiming(lastDonation *time.Time, now time.Time) TimingStatus {
	if lastDonation == nil {
		// First-time donor.
		return TimingStatus{Eligible: true}
	}

	daysSince := int(math.Floor(now.Sub(*lastDonation).Hours() / 24))
	ts := TimingStatus{
		Eligible:      daysSince >= MinIntervalDays,
		DaysSinceLast: &daysSince,
	}
	if !ts.Eligible {
		ts.DaysUntilEligible = MinIntervalDays - daysSince
		next := lastDonation.AddDate(0, 0, MinIntervalDays)
		ts.NextEligibleDate = &next
	}
	return ts
}

func evaluateAge(dob *time.Time, now time.Time) AgeStatus {
	if dob == nil {
		return AgeStatus{Eligible: true}
	}

	days := now.Sub(*dob).Hours() / 24
	age := int(math.Floor(days / 365.25))
	return AgeStatus{Eligible: age >= MinAgeYears, Age: &age}
}

func evaluateWeight(weightKg *float64) WeightStatus {
	if weightKg == nil {
		return WeightStatus{Eligible: true}
	}
	return WeightStatus{Eligible: *weightKg >= MinWeightKg, WeightKg: weightKg}
}

func evaluateHealth(conditions []string) HealthStatus {
	if len(conditions) == 0 {
		return HealthStatus{Eligible: true}
	}
	// Any reported condition blocks the overall flag; named-condition
	// screening is the job of ClassifyConditions.
	return HealthStatus{Eligible: false, Conditions: conditions}
}

// disqualifyingConditions is the fixed screening list for named-condition
// matching. Entries cover transmissible and chronic diseases, recent
// procedures, and pregnancy.
var disqualifyingConditions = []string{
	"HIV/AIDS",
	"Hepatitis B or C",
	"Heart disease",
	"Cancer (active)",
	"Severe anemia",
	"Tuberculosis (active)",
	"Malaria (recent)",
	"Recent surgery (within 6 months)",
	"Pregnancy",
	"Recent tattoo or piercing (within 6 months)",
}

// Classification is the result of screening reported conditions against the
// disqualifying list.
type Classification struct {
	// Valid is true when no reported condition matched the list.
	Valid bool `json:"valid"`

	// Disqualifying holds the reported conditions that matched.
	Disqualifying []string `json:"disqualifying,omitempty"`

	// RequiresReview is true when conditions were reported but none matched:
	// ambiguous free text needing human review.
	RequiresReview bool `json:"requires_review"`
}

// ClassifyConditions screens free-text conditions against the disqualifying
// list. Matching is case-insensitive and substring-based in both directions:
// "HIV" matches "HIV/AIDS", and "hiv/aids (early stage)" matches too.
func ClassifyConditions(conditions []string) Classification {
	if len(conditions) == 0 {
		return Classification{Valid: true}
	}

	var matched []string
	for _, reported := range conditions {
		if matchesDisqualifying(reported) {
			matched = append(matched, reported)
		}
	}

	if len(matched) > 0 {
		return Classification{Disqualifying: matched}
	}
	return Classification{Valid: true, RequiresReview: true}
}

func matchesDisqualifying(reported string) bool {
	r := strings.ToLower(strings.TrimSpace(reported))
	if r == "" {
		return false
	}
	for _, entry := range disqualifyingConditions {
		e := strings.ToLower(entry)
		if strings.Contains(r, e) || strings.Contains(e, r) {
			return true
		}
	}
	return false
}
