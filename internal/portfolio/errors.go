package portfolio

import (
	"fmt"

	"github.com/wonny/capm-optimizer/internal/contracts"
)

// OptimizationError carries the solver diagnostic of a failed solve.
// errors.Is(err, contracts.ErrOptimizationFailure) reports true.
type OptimizationError struct {
	Method     string
	Status     string
	Message    string
	Iterations int
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("%s: %s did not converge after %d iterations (status %s): %s",
		contracts.ErrOptimizationFailure, e.Method, e.Iterations, e.Status, e.Message)
}

// Is matches the shared optimization failure sentinel
func (e *OptimizationError) Is(target error) bool {
	return target == contracts.ErrOptimizationFailure
}
