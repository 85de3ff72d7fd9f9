package results

// Formula computes a step's frame from the resolved inputs.
type Formula func(env *Env) (*Frame, error)

// Step derives one result entity.
type Step struct {
	Target string
	// Inputs must be declared and available.
	Inputs []string
	// Optional inputs are read when declared and treated as absent otherwise.
	Optional []string
	Formula  Formula
}

const (
	stepAccumulatedNewCapacity = iota
	stepTotalCapacityAnnual
	stepAnnualFixedOperatingCost
	stepAnnualVariableOperatingCost
	stepCapitalInvestment
	stepDemand
	stepAnnualTechnologyEmissionByMode
	stepAnnualTechnologyEmission
	stepAnnualEmissions
	stepDiscountedTechnologyEmissionsPenalty
	stepRateOfProductionByTechnologyByMode
	stepRateOfProductionByTechnology
	stepProductionByTechnology
	stepProductionByTechnologyAnnual
	stepRateOfUseByTechnologyByMode
	stepRateOfUseByTechnology
	stepUseByTechnology
	stepTotalAnnualTechnologyActivityByMode
	stepTotalTechnologyAnnualActivity
	stepTotalTechnologyModelPeriodActivity
	stepTotalDiscountedCost
)

// steps is the arena every variant order indexes into.
var steps = []Step{
	stepAccumulatedNewCapacity: {
		Target:  "AccumulatedNewCapacity",
		Inputs:  []string{"NewCapacity", "OperationalLife", "YEAR"},
		Formula: accumulatedNewCapacity,
	},
	stepTotalCapacityAnnual: {
		Target:  "TotalCapacityAnnual",
		Inputs:  []string{"ResidualCapacity", "AccumulatedNewCapacity"},
		Formula: totalCapacityAnnual,
	},
	stepAnnualFixedOperatingCost: {
		Target:  "AnnualFixedOperatingCost",
		Inputs:  []string{"TotalCapacityAnnual", "FixedCost"},
		Formula: annualFixedOperatingCost,
	},
	stepAnnualVariableOperatingCost: {
		Target:  "AnnualVariableOperatingCost",
		Inputs:  []string{"RateOfActivity", "YearSplit", "VariableCost"},
		Formula: annualVariableOperatingCost,
	},
	stepCapitalInvestment: {
		Target:   "CapitalInvestment",
		Inputs:   []string{"CapitalCost", "NewCapacity", "OperationalLife", "DiscountRate", "REGION", "TECHNOLOGY"},
		Optional: []string{"DiscountRateIdv"},
		Formula:  capitalInvestment,
	},
	stepDemand: {
		Target:  "Demand",
		Inputs:  []string{"SpecifiedAnnualDemand", "SpecifiedDemandProfile"},
		Formula: demand,
	},
	stepAnnualTechnologyEmissionByMode: {
		Target:  "AnnualTechnologyEmissionByMode",
		Inputs:  []string{"EmissionActivityRatio", "RateOfActivity", "YearSplit"},
		Formula: annualTechnologyEmissionByMode,
	},
	stepAnnualTechnologyEmission: {
		Target:  "AnnualTechnologyEmission",
		Inputs:  []string{"AnnualTechnologyEmissionByMode"},
		Formula: sumOf("AnnualTechnologyEmissionByMode", "REGION", "TECHNOLOGY", "EMISSION", "YEAR"),
	},
	stepAnnualEmissions: {
		Target:  "AnnualEmissions",
		Inputs:  []string{"AnnualTechnologyEmission"},
		Formula: sumOf("AnnualTechnologyEmission", "REGION", "EMISSION", "YEAR"),
	},
	stepDiscountedTechnologyEmissionsPenalty: {
		Target:  "DiscountedTechnologyEmissionsPenalty",
		Inputs:  []string{"AnnualTechnologyEmissionByMode", "EmissionsPenalty", "DiscountRate", "REGION", "YEAR"},
		Formula: discountedTechnologyEmissionsPenalty,
	},
	stepRateOfProductionByTechnologyByMode: {
		Target:  "RateOfProductionByTechnologyByMode",
		Inputs:  []string{"RateOfActivity", "OutputActivityRatio"},
		Formula: product("RateOfActivity", "OutputActivityRatio"),
	},
	stepRateOfProductionByTechnology: {
		Target:  "RateOfProductionByTechnology",
		Inputs:  []string{"RateOfProductionByTechnologyByMode"},
		Formula: sumOf("RateOfProductionByTechnologyByMode", "REGION", "TIMESLICE", "TECHNOLOGY", "FUEL", "YEAR"),
	},
	stepProductionByTechnology: {
		Target:  "ProductionByTechnology",
		Inputs:  []string{"RateOfProductionByTechnologyByMode", "YearSplit"},
		Formula: sumOfProduct("RateOfProductionByTechnologyByMode", "YearSplit", "REGION", "TIMESLICE", "TECHNOLOGY", "FUEL", "YEAR"),
	},
	stepProductionByTechnologyAnnual: {
		Target:  "ProductionByTechnologyAnnual",
		Inputs:  []string{"ProductionByTechnology"},
		Formula: sumOf("ProductionByTechnology", "REGION", "TECHNOLOGY", "FUEL", "YEAR"),
	},
	stepRateOfUseByTechnologyByMode: {
		Target:  "RateOfUseByTechnologyByMode",
		Inputs:  []string{"RateOfActivity", "InputActivityRatio"},
		Formula: product("RateOfActivity", "InputActivityRatio"),
	},
	stepRateOfUseByTechnology: {
		Target:  "RateOfUseByTechnology",
		Inputs:  []string{"RateOfUseByTechnologyByMode"},
		Formula: sumOf("RateOfUseByTechnologyByMode", "REGION", "TIMESLICE", "TECHNOLOGY", "FUEL", "YEAR"),
	},
	stepUseByTechnology: {
		Target:  "UseByTechnology",
		Inputs:  []string{"RateOfUseByTechnologyByMode", "YearSplit"},
		Formula: sumOfProduct("RateOfUseByTechnologyByMode", "YearSplit", "REGION", "TIMESLICE", "TECHNOLOGY", "FUEL", "YEAR"),
	},
	stepTotalAnnualTechnologyActivityByMode: {
		Target:  "TotalAnnualTechnologyActivityByMode",
		Inputs:  []string{"RateOfActivity", "YearSplit"},
		Formula: sumOfProduct("RateOfActivity", "YearSplit", "REGION", "TECHNOLOGY", "MODE_OF_OPERATION", "YEAR"),
	},
	stepTotalTechnologyAnnualActivity: {
		Target:  "TotalTechnologyAnnualActivity",
		Inputs:  []string{"TotalAnnualTechnologyActivityByMode"},
		Formula: sumOf("TotalAnnualTechnologyActivityByMode", "REGION", "TECHNOLOGY", "YEAR"),
	},
	stepTotalTechnologyModelPeriodActivity: {
		Target:  "TotalTechnologyModelPeriodActivity",
		Inputs:  []string{"TotalTechnologyAnnualActivity"},
		Formula: sumOf("TotalTechnologyAnnualActivity", "REGION", "TECHNOLOGY"),
	},
	stepTotalDiscountedCost: {
		Target: "TotalDiscountedCost",
		Inputs: []string{
			"AnnualFixedOperatingCost", "AnnualVariableOperatingCost", "CapitalInvestment",
			"DiscountedTechnologyEmissionsPenalty", "DiscountedSalvageValue",
			"DiscountRate", "REGION", "YEAR",
		},
		Formula: totalDiscountedCost,
	},
}

// Steps returns a copy of the step arena.
func Steps() []Step {
	return append([]Step(nil), steps...)
}
