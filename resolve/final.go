package resolve

import (
	"errors"
	"strconv"
	"strings"

	"patchconv/patch"
)

// Allocation describes one matrix slot used by a conversion.
type Allocation struct {
	Slot    string   `json:"slot"`
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// trial realizes one assignment on the target: hardwired connections
// first, then multi destination slots, then single destination slots and
// parameters. A trial either succeeds completely or leaves the slot pool
// as it found it.
type trial struct {
	source, target *patch.Patch
	pool           *patch.Pool
	assign         Assignment
	multiFallback  bool

	jacks   map[*patch.InputJack]*patch.InputJack
	outputs map[*patch.OutputJack]*patch.OutputJack
	params  map[*patch.Parameter]*patch.Parameter
	claimed map[*patch.InputJack]bool
	bound   []*patch.InputJack
	queue   []*patch.InputJack
	allocs  []Allocation
	fail    permutationFailure
}

func newTrial(source, target *patch.Patch, a Assignment, multiFallback bool) *trial {
	return &trial{
		source:        source,
		target:        target,
		pool:          target.Matrix(),
		assign:        a,
		multiFallback: multiFallback,
		jacks:         map[*patch.InputJack]*patch.InputJack{},
		outputs:       map[*patch.OutputJack]*patch.OutputJack{},
		params:        map[*patch.Parameter]*patch.Parameter{},
		claimed:       map[*patch.InputJack]bool{},
	}
}

// run resolves the assignment. A returned error is fatal to the whole
// conversion; a permutation failure is reported through t.fail with the
// pool already rolled back.
func (t *trial) run() error {
	t.pool.Reset()
	t.mapOutputs()

	steps := []func() error{t.hardwired, t.multiDest, t.singleDest, t.matchParams}
	for _, step := range steps {
		if err := step(); err != nil {
			t.rollback()
			return err
		}
		if t.fail.failed() {
			t.rollback()
			return nil
		}
	}
	return nil
}

func (t *trial) rollback() {
	t.pool.Reset()
}

func (t *trial) mapOutputs() {
	for _, sm := range t.source.Modules() {
		tm, ok := t.assign[sm]
		if !ok {
			continue
		}
		for _, oj := range sm.OutputJacks() {
			if toj := tm.FindOutputJack(oj.Name()); toj != nil {
				t.outputs[oj] = toj
			}
		}
	}
}

// inputs lists the source input jacks that carry a signal, in patch order.
func (t *trial) inputs() []*patch.InputJack {
	var out []*patch.InputJack
	for _, sm := range t.source.Modules() {
		if _, ok := t.assign[sm]; !ok {
			continue
		}
		for _, ij := range sm.InputJacks() {
			src := ij.Source()
			if !ij.Used() || src == nil {
				continue
			}
			if _, ok := t.assign[src.Module()]; !ok {
				continue
			}
			out = append(out, ij)
		}
	}
	return out
}

// upstream returns the target output jack standing in for the jack that
// feeds ij.
func (t *trial) upstream(ij *patch.InputJack) *patch.OutputJack {
	return t.outputs[ij.Source()]
}

func sameAttenuation(a, b *patch.InputJack) bool {
	return (a.Attenuator() != nil) == (b.Attenuator() != nil)
}

func (t *trial) bind(ij, tij *patch.InputJack) {
	t.jacks[ij] = tij
	t.claimed[tij] = true
	t.bound = append(t.bound, ij)
	if ij.Attenuator() != nil && tij.Attenuator() != nil {
		t.params[ij.Attenuator()] = tij.Attenuator()
	}
}

func (t *trial) hardwired() error {
	for _, ij := range t.inputs() {
		tm := t.assign[ij.Module()]
		tOut := t.upstream(ij)
		if tOut == nil {
			t.fail.add("%s: no target output for %s", jackName(ij), ij.Source().Name())
			continue
		}
		var match *patch.InputJack
		for _, tij := range tm.InputJacks() {
			if t.claimed[tij] || tij.Source() != tOut {
				continue
			}
			if strings.EqualFold(tij.Prefix(), ij.Prefix()) && sameAttenuation(ij, tij) {
				match = tij
				break
			}
		}
		if match == nil {
			t.queue = append(t.queue, ij)
			continue
		}
		t.bind(ij, match)
	}
	return nil
}

type destGroup struct {
	out    *patch.OutputJack
	prefix string
	jacks  []*patch.InputJack
}

// groups collects queued jacks fed from one output into the same prefix on
// different target modules. Such a group needs a multi destination slot
// whether or not the pool offers one.
func (t *trial) groups() []*destGroup {
	var out []*destGroup
	for _, ij := range t.queue {
		tOut := t.upstream(ij)
		var g *destGroup
		for _, x := range out {
			if x.out == tOut && strings.EqualFold(x.prefix, ij.Prefix()) {
				g = x
				break
			}
		}
		if g == nil {
			g = &destGroup{out: tOut, prefix: ij.Prefix()}
			out = append(out, g)
		}
		g.jacks = append(g.jacks, ij)
	}

	var multi []*destGroup
	for _, g := range out {
		if len(g.jacks) < 2 {
			continue
		}
		seen := map[*patch.Module]bool{}
		distinct := true
		for _, ij := range g.jacks {
			tm := t.assign[ij.Module()]
			if seen[tm] {
				distinct = false
				break
			}
			seen[tm] = true
		}
		if distinct {
			multi = append(multi, g)
		}
	}
	return multi
}

func (t *trial) multiDest() error {
	for _, g := range t.groups() {
		dsts := make([]*patch.Module, len(g.jacks))
		for i, ij := range g.jacks {
			dsts[i] = t.assign[ij.Module()]
		}
		done := false
		for _, s := range t.pool.Slots() {
			if !s.Multi() || s.Allocated() {
				continue
			}
			tjs, err := s.AllocateMulti(g.out.Module(), g.out.Name(), dsts, g.prefix)
			if errors.Is(err, patch.ErrNoRoute) {
				continue
			}
			if err != nil {
				return err
			}
			if !allSameAttenuation(g.jacks, tjs) {
				s.Release()
				continue
			}
			for i, ij := range g.jacks {
				t.bind(ij, tjs[i])
			}
			t.record(s, tjs)
			t.dequeue(g.jacks)
			done = true
			break
		}
		if !done && !t.multiFallback {
			names := make([]string, len(dsts))
			for i, m := range dsts {
				names[i] = m.Name()
			}
			t.fail.add("no multi destination slot routes %s to %q on %s",
				outName(g.out), g.prefix, strings.Join(names, ", "))
		}
	}
	return nil
}

func allSameAttenuation(src, dst []*patch.InputJack) bool {
	for i := range src {
		if src[i].Attenuator() != nil && dst[i].Attenuator() == nil {
			return false
		}
	}
	return true
}

func (t *trial) dequeue(jacks []*patch.InputJack) {
	drop := map[*patch.InputJack]bool{}
	for _, j := range jacks {
		drop[j] = true
	}
	q := t.queue[:0]
	for _, j := range t.queue {
		if !drop[j] {
			q = append(q, j)
		}
	}
	t.queue = q
}

func (t *trial) singleDest() error {
	for _, ij := range t.queue {
		tm := t.assign[ij.Module()]
		tOut := t.upstream(ij)
		done := false
		for _, s := range t.pool.Slots() {
			if s.Allocated() {
				continue
			}
			tij, err := s.AllocateSingle(tOut.Module(), tOut.Name(), tm, ij.Prefix())
			if errors.Is(err, patch.ErrNoRoute) {
				continue
			}
			if err != nil {
				return err
			}
			if ij.Attenuator() != nil && tij.Attenuator() == nil {
				s.Release()
				continue
			}
			t.bind(ij, tij)
			t.record(s, []*patch.InputJack{tij})
			done = true
			break
		}
		if !done {
			t.fail.add("no slot routes %s to %s", outName(tOut), jackName(ij))
		}
	}
	t.queue = nil
	return nil
}

func (t *trial) matchParams() error {
	for _, sm := range t.source.Modules() {
		tm, ok := t.assign[sm]
		if !ok {
			continue
		}
		for _, p := range sm.Parameters() {
			if !p.Used() || p.AttenuatedJack() != nil {
				continue
			}
			tp := tm.FindParameter(p.Name())
			if tp == nil {
				t.fail.add("%s: no parameter %q on %s", sm.Name(), p.Name(), tm.Name())
				continue
			}
			t.params[p] = tp
		}
	}
	return nil
}

func (t *trial) record(s *patch.Slot, tjs []*patch.InputJack) {
	a := Allocation{Slot: s.Name, Source: outName(s.Source())}
	for _, j := range tjs {
		a.Targets = append(a.Targets, jackName(j))
	}
	t.allocs = append(t.allocs, a)
}

// commit copies values onto the target and marks what the conversion used.
// It returns the warnings raised on the way.
func (t *trial) commit() []error {
	var warns []error
	matched := map[*patch.Parameter]bool{}

	for _, sm := range t.source.Modules() {
		tm, ok := t.assign[sm]
		if !ok {
			continue
		}
		if sm.State() > tm.State() {
			tm.SetState(sm.State())
		}
		for _, sp := range sm.Parameters() {
			tp, ok := t.params[sp]
			if !ok {
				continue
			}
			matched[tp] = true
			if err := tp.Validate(sp.Value()); err != nil {
				warns = append(warns, &ValueOutOfRangeWarning{Module: tm.Name(), Parameter: tp.Name(), Value: sp.Value(), Err: err})
			}
			tp.SetValue(sp.Value())
			tp.SetUsed(true)
			if w := copyMorph(sp, tp, tm); w != nil {
				warns = append(warns, w)
			}
		}
		for _, oj := range sm.OutputJacks() {
			if toj, ok := t.outputs[oj]; ok && oj.Used() {
				toj.SetUsed(true)
			}
		}
	}

	for _, ij := range t.bound {
		tij := t.jacks[ij]
		tij.SetUsed(true)
		if src := tij.Source(); src != nil {
			src.SetUsed(true)
		}
		if att := tij.Attenuator(); att != nil && ij.Attenuator() == nil {
			// the source modulates at full depth
			if r, ok := att.Validator().(patch.Range); ok {
				att.SetValue(strconv.FormatFloat(r.High, 'f', -1, 64))
			}
			att.SetUsed(true)
		}
	}

	for _, tm := range t.target.Modules() {
		for _, tp := range tm.Parameters() {
			if tp.Link == nil || tp.Link.Master == nil || !tp.Link.Master.Used() {
				continue
			}
			master := tp.Link.Master
			if matched[tp] && tp.Value() != master.Value() {
				warns = append(warns, &ParameterWarning{
					Module:    tm.Name(),
					Parameter: tp.Name(),
					Message:   "linked to " + master.Name() + ", value " + tp.Value() + " replaced by " + master.Value(),
				})
			}
			tp.SetValue(master.Value())
			tp.SetUsed(true)
		}
	}

	patch.Prune(t.target, patch.FinalOutput(t.target))
	return warns
}

func copyMorph(sp, tp *patch.Parameter, tm *patch.Module) error {
	if sp.Morph == nil || !sp.Morph.Used {
		return nil
	}
	if tp.Morph == nil {
		return &ParameterWarning{Module: tm.Name(), Parameter: tp.Name(), Message: "target has no morph, morph dropped"}
	}
	tp.Morph.Max = sp.Morph.Max
	tp.Morph.Source = sp.Morph.Source
	tp.Morph.Control = sp.Morph.Control
	tp.Morph.Used = true
	if err := tp.Validate(sp.Morph.Max); err != nil {
		return &ValueOutOfRangeWarning{Module: tm.Name(), Parameter: tp.Name() + " morph", Value: sp.Morph.Max, Err: err}
	}
	return nil
}

func jackName(j *patch.InputJack) string {
	if j.Module() == nil {
		return j.Name()
	}
	return j.Module().Name() + "/" + j.Name()
}

func outName(j *patch.OutputJack) string {
	if j == nil {
		return "<none>"
	}
	if j.Module() == nil {
		return j.Name()
	}
	return j.Module().Name() + "/" + j.Name()
}
