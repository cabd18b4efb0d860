package engine

// AssumptionPenaltyCeiling is the maximum health points the decision-specific
// assumption penalty in Phase 3 can subtract. Fixed per deployment, not
// configurable: the spec requires the trace to stay deterministic across
// runs, which a runtime-tunable ceiling would break.
const AssumptionPenaltyCeiling = 60

// AssumptionHardFailRatio is the broken/total ratio of decision-specific
// assumptions above which Phase 3 hard-fails the decision to Invalidated,
// regardless of the proportional penalty.
const AssumptionHardFailRatio = 0.7

// ExpiryRetirementGraceDays is how far past expiryDate a decision is allowed
// to sit before Phase 4 force-retires it.
const ExpiryRetirementGraceDays = 30

const (
	stepConstraintValidation  = "constraint_validation"
	stepDependencyPropagation = "dependency_propagation"
	stepAssumptionCheck       = "assumption_check"
	stepExpiryRetirement      = "expiry_retirement"
	stepTimeDecay             = "time_decay"
	stepLifecycleDetermination = "lifecycle_determination"
)
