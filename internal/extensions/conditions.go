package extensions

import "context"

// Condition is one asynchronous yes/no probe. An error counts as "no".
type Condition func(ctx context.Context) (bool, error)

// OneOf runs every condition concurrently and reports whether at least one
// holds. The remaining conditions are cancelled as soon as one does.
// With no conditions it reports false.
func OneOf(ctx context.Context, conds ...Condition) bool {
	return race(ctx, conds, true)
}

// AllOf runs every condition concurrently and reports whether all hold.
// The remaining conditions are cancelled at the first failure.
// With no conditions it reports true.
func AllOf(ctx context.Context, conds ...Condition) bool {
	return !race(ctx, conds, false)
}

// race reports whether any condition settles to want.
func race(ctx context.Context, conds []Condition, want bool) bool {
	if len(conds) == 0 {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan bool, len(conds))
	for _, c := range conds {
		go func() {
			ok, err := c(ctx)
			results <- ok && err == nil
		}()
	}

	for range conds {
		select {
		case ok := <-results:
			if ok == want {
				return true
			}
		case <-ctx.Done():
			// An abandoned check never confirms anything.
			return !want
		}
	}
	return false
}
