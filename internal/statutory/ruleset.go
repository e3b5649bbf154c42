package statutory

import (
	"fmt"
	"net/http"

	"github.com/mozhdeveloper/NexHRMS-sub002/internal/shared/apperror"
)

// Breakdown is the statutory deduction split for one monthly gross figure.
// Every component is non-negative and Total is always the sum of the four.
type Breakdown struct {
	SocialInsurance int64 `json:"social_insurance"`
	HealthInsurance int64 `json:"health_insurance"`
	HousingFund     int64 `json:"housing_fund"`
	WithholdingTax  int64 `json:"withholding_tax"`
	Total           int64 `json:"total"`
}

// TaxBracket is one row of a monthly withholding table. Tax due is
// Base + Rate applied to the taxable amount above Over.
type TaxBracket struct {
	Over    int64
	Base    int64
	RateNum int64 // rate numerator, e.g. 20 for 20%
	RateDen int64 // rate denominator, e.g. 100
}

// RuleSet is one immutable, versioned statutory rule table. Computation is a
// pure function of the gross figure; nothing here touches the ledger.
type RuleSet struct {
	Version string

	// Per-component version identifiers, pinned into a run's policy snapshot.
	TaxTableVersion        string
	SocialInsuranceVersion string
	HealthInsuranceVersion string
	HousingFundVersion     string
	HolidayCalendarVersion string
	FormulaVersion         string

	// Contribution parameters. Percentages are expressed as numerator over
	// denominator so the arithmetic stays in int64.
	socialInsuranceRateNum int64
	socialInsuranceRateDen int64
	socialInsuranceCap     int64 // salary credit ceiling

	healthInsuranceRateNum int64
	healthInsuranceRateDen int64
	healthInsuranceFloor   int64
	healthInsuranceCap     int64

	housingFundRateNum int64
	housingFundRateDen int64
	housingFundCap     int64

	taxTable []TaxBracket // ascending by Over
}

// ComputeDeductions maps a monthly gross pay figure to its statutory
// deduction breakdown. Negative gross is treated as zero income.
func (rs RuleSet) ComputeDeductions(monthlyGross int64) Breakdown {
	if monthlyGross < 0 {
		monthlyGross = 0
	}

	si := roundDiv(min64(monthlyGross, rs.socialInsuranceCap)*rs.socialInsuranceRateNum, rs.socialInsuranceRateDen)

	hiBase := monthlyGross
	if hiBase < rs.healthInsuranceFloor {
		hiBase = rs.healthInsuranceFloor
	}
	if hiBase > rs.healthInsuranceCap {
		hiBase = rs.healthInsuranceCap
	}
	hi := roundDiv(hiBase*rs.healthInsuranceRateNum, rs.healthInsuranceRateDen)

	hf := roundDiv(min64(monthlyGross, rs.housingFundCap)*rs.housingFundRateNum, rs.housingFundRateDen)

	taxable := monthlyGross - si - hi - hf
	tax := rs.withholding(taxable)

	return Breakdown{
		SocialInsurance: si,
		HealthInsurance: hi,
		HousingFund:     hf,
		WithholdingTax:  tax,
		Total:           si + hi + hf + tax,
	}
}

func (rs RuleSet) withholding(taxable int64) int64 {
	if taxable <= 0 {
		return 0
	}

	var bracket TaxBracket
	for _, b := range rs.taxTable {
		if taxable <= b.Over {
			break
		}
		bracket = b
	}

	return bracket.Base + roundDiv((taxable-bracket.Over)*bracket.RateNum, bracket.RateDen)
}

// Resolve returns the rule set pinned under the given version identifier.
// Locked runs store this identifier so their numbers stay reproducible even
// after newer rule tables are registered.
func Resolve(version string) (RuleSet, error) {
	rs, ok := registry[version]
	if !ok {
		return RuleSet{}, apperror.New(
			apperror.CodeNotFound,
			fmt.Sprintf("statutory rule set version %q is not registered", version),
			http.StatusNotFound,
		)
	}
	return rs, nil
}

// Current returns the rule set in effect for new computations.
func Current() RuleSet {
	return registry[CurrentVersion]
}

// roundDiv divides with half-up rounding, staying in integer math so monetary
// figures never pass through floats.
func roundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	if num >= 0 {
		return (num + den/2) / den
	}
	return -((-num + den/2) / den)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
