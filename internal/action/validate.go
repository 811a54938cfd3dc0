package action

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks program invariants.
// Returns error if any invariant is violated.
func Validate(p *Program) error {
	if p == nil {
		return errors.New("action: nil program")
	}
	var errs []error

	if p.Params < 0 || p.Params > p.Slots {
		errs = append(errs, fmt.Errorf("params=%d outside slots=%d", p.Params, p.Slots))
	}

	for i := range p.Actions {
		if err := validateAction(p, i); err != nil {
			errs = append(errs, fmt.Errorf("a%d: %w", i, err))
		}
	}

	names := make([]string, 0, len(p.Labels))
	for name := range p.Labels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		idx := p.Labels[name]
		if idx != End && !p.InRange(idx) {
			errs = append(errs, fmt.Errorf("label %q: target a%d out of range", name, idx))
		}
	}
	return errors.Join(errs...)
}

func validateAction(p *Program, i int) error {
	a := &p.Actions[i]
	var errs []error

	checkTarget := func(what string, idx int32) {
		if idx != End && !p.InRange(idx) {
			errs = append(errs, fmt.Errorf("%s target a%d out of range", what, idx))
		}
	}
	checkTarget("next", a.Next)

	switch a.Kind {
	case KindSync:
	case KindSuspendPredicate:
		if a.Predicate == nil {
			errs = append(errs, errors.New("suspend predicate without predicate"))
		}
	case KindBranch:
		if a.Cond == nil {
			errs = append(errs, errors.New("branch without condition"))
		}
		checkTarget("else", a.Else)
	case KindAccept:
		if a.Consumer == nil {
			errs = append(errs, errors.New("accept without consumer"))
		}
	case KindYield:
		if a.Producer == nil {
			errs = append(errs, errors.New("yield without producer"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown kind %d", a.Kind))
	}

	if a.Kind != KindBranch && a.Else != End {
		errs = append(errs, fmt.Errorf("%s action with else target a%d", a.Kind, a.Else))
	}
	return errors.Join(errs...)
}
