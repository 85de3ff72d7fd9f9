package results

import (
	"fmt"
	"sort"
	"strings"
)

// Variant describes what a model formulation reports natively and the
// steps, in dependency order, that derive the rest.
type Variant struct {
	Name string
	// Native lists result entities the solver reports. NativeAll marks every
	// declared result as native.
	Native    []string
	NativeAll bool
	Order     []int
}

// IsNative reports whether the variant's solver output carries name.
func (v Variant) IsNative(name string) bool {
	if v.NativeAll {
		return true
	}
	for _, n := range v.Native {
		if n == name {
			return true
		}
	}
	return false
}

// Steps returns the variant's steps in order.
func (v Variant) Steps() []Step {
	out := make([]Step, len(v.Order))
	for i, idx := range v.Order {
		out[i] = steps[idx]
	}
	return out
}

var fastNative = []string{"NewCapacity", "RateOfActivity", "DiscountedSalvageValue", "Trade"}

var shortNative = append(append([]string(nil), fastNative...),
	"AccumulatedNewCapacity", "TotalCapacityAnnual", "AnnualEmissions", "TotalDiscountedCost")

var variants = map[string]Variant{
	"full": {
		Name:      "full",
		NativeAll: true,
	},
	"short": {
		Name:   "short",
		Native: shortNative,
		Order: []int{
			stepAnnualFixedOperatingCost,
			stepAnnualVariableOperatingCost,
			stepCapitalInvestment,
			stepDemand,
			stepAnnualTechnologyEmissionByMode,
			stepAnnualTechnologyEmission,
			stepDiscountedTechnologyEmissionsPenalty,
			stepRateOfProductionByTechnologyByMode,
			stepRateOfProductionByTechnology,
			stepProductionByTechnology,
			stepProductionByTechnologyAnnual,
			stepRateOfUseByTechnologyByMode,
			stepRateOfUseByTechnology,
			stepUseByTechnology,
			stepTotalAnnualTechnologyActivityByMode,
			stepTotalTechnologyAnnualActivity,
			stepTotalTechnologyModelPeriodActivity,
		},
	},
	"fast": {
		Name:   "fast",
		Native: fastNative,
		Order: []int{
			stepAccumulatedNewCapacity,
			stepTotalCapacityAnnual,
			stepAnnualFixedOperatingCost,
			stepAnnualVariableOperatingCost,
			stepCapitalInvestment,
			stepDemand,
			stepAnnualTechnologyEmissionByMode,
			stepAnnualTechnologyEmission,
			stepAnnualEmissions,
			stepDiscountedTechnologyEmissionsPenalty,
			stepRateOfProductionByTechnologyByMode,
			stepRateOfProductionByTechnology,
			stepProductionByTechnology,
			stepProductionByTechnologyAnnual,
			stepRateOfUseByTechnologyByMode,
			stepRateOfUseByTechnology,
			stepUseByTechnology,
			stepTotalAnnualTechnologyActivityByMode,
			stepTotalTechnologyAnnualActivity,
			stepTotalTechnologyModelPeriodActivity,
			stepTotalDiscountedCost,
		},
	},
}

// Variants lists the registered variant names, sorted.
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariantFor looks up a variant by name.
func VariantFor(name string) (Variant, error) {
	v, ok := variants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownVariant, name, strings.Join(Variants(), ", "))
	}
	return v, nil
}
