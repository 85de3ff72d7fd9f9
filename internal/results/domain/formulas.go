package results

import (
	"strconv"

	dataset "energymodel-convert/internal/dataset/domain"
)

// Env gives formulas read access to the model being derived.
type Env struct {
	model *dataset.Model
}

// NewEnv wraps model.
func NewEnv(model *dataset.Model) *Env {
	return &Env{model: model}
}

// Members implements Universe.
func (e *Env) Members(set string) []string {
	return e.model.Members(set)
}

// Frame returns the stored table for name as a frame, or an empty frame
// carrying the entity default. Undeclared entities give nil.
func (e *Env) Frame(name string) *Frame {
	entry, ok := e.model.Registry().Entry(name)
	if !ok {
		return nil
	}
	table, _ := e.model.Table(name)
	return FrameOf(e, entry, table)
}

func product(a, b string) Formula {
	return func(env *Env) (*Frame, error) {
		return Mul(env.Frame(a), env.Frame(b)), nil
	}
}

func sumOf(name string, keep ...string) Formula {
	return func(env *Env) (*Frame, error) {
		return env.Frame(name).Sum(keep...)
	}
}

func sumOfProduct(a, b string, keep ...string) Formula {
	return func(env *Env) (*Frame, error) {
		return Mul(env.Frame(a), env.Frame(b)).Sum(keep...)
	}
}

func accumulatedNewCapacity(env *Env) (*Frame, error) {
	newCapacity := env.Frame("NewCapacity")
	life := env.Frame("OperationalLife")
	out := NewFrame(env, 0, "REGION", "TECHNOLOGY", "YEAR")

	type installed struct {
		year  int
		value float64
	}
	var order [][]string
	groups := make(map[string][]installed)
	for _, row := range newCapacity.Rows() {
		year, err := strconv.Atoi(row.Index[2])
		if err != nil {
			continue
		}
		key := dataset.Key(row.Index[:2])
		if _, ok := groups[key]; !ok {
			order = append(order, row.Index[:2])
		}
		groups[key] = append(groups[key], installed{year: year, value: row.Value})
	}

	years := env.Members("YEAR")
	for _, rt := range order {
		lifetime := life.Value(rt[0], rt[1])
		for _, member := range years {
			y, err := strconv.Atoi(member)
			if err != nil {
				continue
			}
			total := 0.0
			for _, in := range groups[dataset.Key(rt)] {
				age := float64(y - in.year)
				if age >= 0 && age < lifetime {
					total += in.value
				}
			}
			out.Set([]string{rt[0], rt[1], member}, total)
		}
	}
	return out, nil
}

func totalCapacityAnnual(env *Env) (*Frame, error) {
	return Add(env.Frame("ResidualCapacity"), env.Frame("AccumulatedNewCapacity"))
}

func annualFixedOperatingCost(env *Env) (*Frame, error) {
	return Mul(env.Frame("TotalCapacityAnnual"), env.Frame("FixedCost")), nil
}

func annualVariableOperatingCost(env *Env) (*Frame, error) {
	activity := Mul(env.Frame("RateOfActivity"), env.Frame("YearSplit"))
	return Mul(activity, env.Frame("VariableCost")).Sum("REGION", "TECHNOLOGY", "YEAR")
}

// capitalInvestment scales CapitalCost x NewCapacity by the capital recovery
// factor and the annuity present value of each (region, technology).
func capitalInvestment(env *Env) (*Frame, error) {
	cost := Mul(env.Frame("CapitalCost"), env.Frame("NewCapacity"))
	life := env.Frame("OperationalLife")
	rate := env.Frame("DiscountRate")
	individual := env.Frame("DiscountRateIdv")

	r, t := cost.position("REGION"), cost.position("TECHNOLOGY")
	factors := make(map[string]float64)
	return cost.Map(func(index []string, value float64) float64 {
		key := dataset.Key([]string{index[r], index[t]})
		factor, ok := factors[key]
		if !ok {
			lifetime := life.Value(index[r], index[t])
			regional := rate.Value(index[r])
			idv := regional
			if individual != nil {
				if v, stored := individual.Get(index[r], index[t]); stored {
					idv = v
				}
			}
			factor = capitalRecoveryFactor(idv, lifetime) * pvAnnuity(regional, lifetime)
			factors[key] = factor
		}
		return value * factor
	}), nil
}

func demand(env *Env) (*Frame, error) {
	return Mul(env.Frame("SpecifiedAnnualDemand"), env.Frame("SpecifiedDemandProfile")), nil
}

func annualTechnologyEmissionByMode(env *Env) (*Frame, error) {
	emission := Mul(env.Frame("EmissionActivityRatio"), env.Frame("RateOfActivity"))
	return Mul(emission, env.Frame("YearSplit")).Sum("REGION", "TECHNOLOGY", "EMISSION", "MODE_OF_OPERATION", "YEAR")
}

func discountedTechnologyEmissionsPenalty(env *Env) (*Frame, error) {
	penalty := Mul(env.Frame("AnnualTechnologyEmissionByMode"), env.Frame("EmissionsPenalty"))
	return Div(penalty, discountFactors(env, 0.5)).Sum("REGION", "TECHNOLOGY", "YEAR")
}

// discountFactors builds DiscountFactor[r,y] over the REGION and YEAR sets,
// measured from the first model year plus offset.
func discountFactors(env *Env, offset float64) *Frame {
	rate := env.Frame("DiscountRate")
	years := env.Members("YEAR")
	out := NewFrame(env, 1, "REGION", "YEAR")
	first, ok := firstYear(years)
	if !ok {
		return out
	}
	for _, region := range env.Members("REGION") {
		for _, member := range years {
			y, err := strconv.Atoi(member)
			if err != nil {
				continue
			}
			out.Set([]string{region, member}, discountFactor(rate.Value(region), y, first, offset))
		}
	}
	return out
}

func totalDiscountedCost(env *Env) (*Frame, error) {
	operating, err := Add(env.Frame("AnnualFixedOperatingCost"), env.Frame("AnnualVariableOperatingCost"))
	if err != nil {
		return nil, err
	}
	total, err := Add(Div(operating, discountFactors(env, 0.5)), Div(env.Frame("CapitalInvestment"), discountFactors(env, 0)))
	if err != nil {
		return nil, err
	}
	if total, err = Add(total, env.Frame("DiscountedTechnologyEmissionsPenalty")); err != nil {
		return nil, err
	}
	if total, err = Sub(total, env.Frame("DiscountedSalvageValue")); err != nil {
		return nil, err
	}
	return total.Sum("REGION", "YEAR")
}

var _ Universe = (*Env)(nil)
