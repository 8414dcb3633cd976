package understory

import "sync"

// storedFinding is a committed finding: the raw rule output plus its span in
// host-document coordinates. Findings from injected units are translated
// (and split per editable fragment) before they reach the store.
type storedFinding struct {
	Finding
	span          Span
	fromInjection bool
}

// ruleFindings is the batch one work item committed for one rule.
type ruleFindings struct {
	rule Rule
	meta RuleMeta
	list []storedFinding
}

// resultStore accumulates findings per SourceUnit during one pass. It is the
// only structure mutated by multiple workers: appends are per-unit and
// guarded by per-unit exclusion, so workers touching different units never
// contend. The store is discarded wholesale at pass end.
type resultStore struct {
	mu    sync.Mutex
	units map[*SourceUnit]*unitResults

	// order records first-seen unit order so finalization is stable for a
	// fixed input; callers still must not rely on cross-unit ordering.
	order []*SourceUnit
}

type unitResults struct {
	mu   sync.Mutex
	list []ruleFindings
}

func newResultStore() *resultStore {
	return &resultStore{units: make(map[*SourceUnit]*unitResults)}
}

// forUnit returns the unit's result list, creating it on first use.
func (rs *resultStore) forUnit(unit *SourceUnit) *unitResults {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	ur, ok := rs.units[unit]
	if !ok {
		ur = &unitResults{}
		rs.units[unit] = ur
		rs.order = append(rs.order, unit)
	}
	return ur
}

// append commits one rule's findings for a unit. The batch becomes visible
// atomically: readers never observe a partially appended list.
func (rs *resultStore) append(unit *SourceUnit, rule Rule, meta RuleMeta, list []storedFinding) {
	if len(list) == 0 {
		return
	}
	ur := rs.forUnit(unit)
	ur.mu.Lock()
	ur.list = append(ur.list, ruleFindings{rule: rule, meta: meta, list: list})
	ur.mu.Unlock()
}

// each invokes fn for every unit's accumulated results, in first-seen unit
// order. Intended for finalization, after all workers have completed.
func (rs *resultStore) each(fn func(unit *SourceUnit, results []ruleFindings)) {
	rs.mu.Lock()
	order := make([]*SourceUnit, len(rs.order))
	copy(order, rs.order)
	rs.mu.Unlock()

	for _, unit := range order {
		rs.mu.Lock()
		ur := rs.units[unit]
		rs.mu.Unlock()

		ur.mu.Lock()
		list := make([]ruleFindings, len(ur.list))
		copy(list, ur.list)
		ur.mu.Unlock()

		fn(unit, list)
	}
}
