package report

// Aggregator consumes validated visits ordered by practitioner and produces
// the report's row stream: optional detail rows, one subtotal row per
// practitioner group, and a final grand-total row.
//
// Totals are accumulated by practitioner key, so amounts are independent of
// the order of rows within a group; the input order only decides where rows
// and subtotal boundaries appear.
type Aggregator struct {
	detail  bool
	rows    []ReportRow
	totals  map[string]*PractitionerTotals
	current string
	started bool
	grand   GrandTotals
}

func NewAggregator(detail bool) *Aggregator {
	return &Aggregator{
		detail: detail,
		totals: make(map[string]*PractitionerTotals),
	}
}

// Add accumulates one validated visit. A change of practitioner name flushes
// the previous group's subtotal row first.
func (a *Aggregator) Add(visit *ReconciledVisit, res RowResult) {
	name := visit.Practitioner()
	if a.started && name != a.current {
		a.flush()
	}

	t := a.totals[name]
	if t == nil {
		t = &PractitionerTotals{Name: name}
		a.totals[name] = t
	}
	t.Charges += res.Charges
	t.Copays += res.Copays
	if visit.EncounterID != nil {
		t.Encounters++
	}

	if a.detail {
		row := ReportRow{Kind: RowDetail, Visit: visit, Result: &res}
		if !a.started || name != a.current {
			row.Practitioner = name
		}
		a.rows = append(a.rows, row)
	}

	a.current = name
	a.started = true
}

// flush emits the subtotal row for the current group and folds it into the
// grand total.
func (a *Aggregator) flush() {
	t := a.totals[a.current]
	if t == nil {
		return
	}
	a.rows = append(a.rows, ReportRow{
		Kind:         RowSubtotal,
		Practitioner: t.Name,
		Charges:      t.Charges,
		Copays:       t.Copays,
		Encounters:   t.Encounters,
	})
	a.grand.Charges += t.Charges
	a.grand.Copays += t.Copays
	a.grand.Encounters += t.Encounters
	delete(a.totals, a.current)
}

// Finish flushes the last open group, appends the grand-total row, and
// returns the complete row stream with the accumulated grand totals.
func (a *Aggregator) Finish() ([]ReportRow, GrandTotals) {
	if a.started {
		a.flush()
	}
	a.rows = append(a.rows, ReportRow{
		Kind:       RowGrandTotal,
		Charges:    a.grand.Charges,
		Copays:     a.grand.Copays,
		Encounters: a.grand.Encounters,
	})
	return a.rows, a.grand
}
