package statutory

// CurrentVersion is the rule set applied to new computations and pinned into
// policy snapshots at run lock time.
const CurrentVersion = "2026-01"

var registry = map[string]RuleSet{
	"2023-01": {
		Version:                "2023-01",
		TaxTableVersion:        "tax-train-2023-01",
		SocialInsuranceVersion: "sss-2023-01",
		HealthInsuranceVersion: "phic-2023-01",
		HousingFundVersion:     "hdmf-2023-01",
		HolidayCalendarVersion: "hol-2023",
		FormulaVersion:         "formula-v1",

		socialInsuranceRateNum: 45, // 4.5%
		socialInsuranceRateDen: 1000,
		socialInsuranceCap:     30000,

		healthInsuranceRateNum: 2, // 2.0% member share
		healthInsuranceRateDen: 100,
		healthInsuranceFloor:   10000,
		healthInsuranceCap:     80000,

		housingFundRateNum: 2, // 2%
		housingFundRateDen: 100,
		housingFundCap:     5000,

		taxTable: []TaxBracket{
			{Over: 0, Base: 0, RateNum: 0, RateDen: 1},
			{Over: 20833, Base: 0, RateNum: 20, RateDen: 100},
			{Over: 33333, Base: 2500, RateNum: 25, RateDen: 100},
			{Over: 66667, Base: 10833, RateNum: 30, RateDen: 100},
			{Over: 166667, Base: 40833, RateNum: 32, RateDen: 100},
			{Over: 666667, Base: 200833, RateNum: 35, RateDen: 100},
		},
	},
	"2026-01": {
		Version:                "2026-01",
		TaxTableVersion:        "tax-train-2026-01",
		SocialInsuranceVersion: "sss-2026-01",
		HealthInsuranceVersion: "phic-2026-01",
		HousingFundVersion:     "hdmf-2026-01",
		HolidayCalendarVersion: "hol-2026",
		FormulaVersion:         "formula-v1",

		socialInsuranceRateNum: 5, // 5.0%
		socialInsuranceRateDen: 100,
		socialInsuranceCap:     35000,

		healthInsuranceRateNum: 25, // 2.5% member share
		healthInsuranceRateDen: 1000,
		healthInsuranceFloor:   10000,
		healthInsuranceCap:     100000,

		housingFundRateNum: 2, // 2%
		housingFundRateDen: 100,
		housingFundCap:     10000,

		taxTable: []TaxBracket{
			{Over: 0, Base: 0, RateNum: 0, RateDen: 1},
			{Over: 20833, Base: 0, RateNum: 15, RateDen: 100},
			{Over: 33333, Base: 1875, RateNum: 20, RateDen: 100},
			{Over: 66667, Base: 8542, RateNum: 25, RateDen: 100},
			{Over: 166667, Base: 33542, RateNum: 30, RateDen: 100},
			{Over: 666667, Base: 183542, RateNum: 35, RateDen: 100},
		},
	},
}
