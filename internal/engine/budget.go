package engine

// Budget tracks how many steps a single run may still execute.
//
// A budget is per call: run(N) followed by run(M) executes the same steps
// as one run(N+M). Exhausting it is a normal outcome, never an error.
type Budget struct {
	limit int
	used  int
}

// NewBudget creates a budget allowing limit steps. Negative limits are
// treated as zero.
func NewBudget(limit int) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

// BudgetUntil creates a budget that brings the consumed total up to target.
// It is empty if consumed already reaches target.
func BudgetUntil(target, consumed int) *Budget {
	return NewBudget(target - consumed)
}

// Take consumes one step. It returns false once the budget is exhausted.
func (b *Budget) Take() bool {
	if b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

// Used returns the number of steps taken.
func (b *Budget) Used() int {
	return b.used
}

// Remaining returns the number of steps left.
func (b *Budget) Remaining() int {
	return b.limit - b.used
}

// Limit returns the total steps allowed.
func (b *Budget) Limit() int {
	return b.limit
}

// Exhausted reports whether no steps remain.
func (b *Budget) Exhausted() bool {
	return b.used >= b.limit
}
