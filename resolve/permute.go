package resolve

import "patchconv/patch"

// Assignment maps every used source module to its target module.
type Assignment map[*patch.Module]*patch.Module

// Permutations enumerates injective assignments over candidate lists.
// Modules with a single candidate are fixed; the others are walked
// odometer style, last module fastest, skipping any target that is
// already taken. The sequence is finite and cannot be restarted.
type Permutations struct {
	forced    []Candidates
	ambiguous []Candidates

	claimed map[*patch.Module]bool
	cur     []int
	started bool
	done    bool
}

func NewPermutations(cands []Candidates) *Permutations {
	p := &Permutations{claimed: map[*patch.Module]bool{}}
	for _, c := range cands {
		if len(c.Targets) == 1 {
			p.forced = append(p.forced, c)
		} else {
			p.ambiguous = append(p.ambiguous, c)
		}
	}
	for _, c := range p.forced {
		t := c.Targets[0]
		if p.claimed[t] {
			// two modules can only go to the same target
			p.done = true
		}
		p.claimed[t] = true
	}
	p.cur = make([]int, len(p.ambiguous))
	for i := range p.cur {
		p.cur[i] = -1
	}
	return p
}

// Ambiguous returns the number of source modules with a choice of target.
func (p *Permutations) Ambiguous() int { return len(p.ambiguous) }

// Next returns the next assignment or ErrExhausted.
func (p *Permutations) Next() (Assignment, error) {
	if p.done {
		return nil, ErrExhausted
	}
	n := len(p.ambiguous)
	if n == 0 {
		p.done = true
		return p.assignment(), nil
	}

	d := 0
	if p.started {
		d = n - 1
	}
	p.started = true
	for d >= 0 {
		if p.advance(d) {
			if d == n-1 {
				return p.assignment(), nil
			}
			d++
			continue
		}
		p.cur[d] = -1
		d--
	}
	p.done = true
	return nil, ErrExhausted
}

// advance moves position d to its next target not claimed by a forced
// module or an earlier position.
func (p *Permutations) advance(d int) bool {
	targets := p.ambiguous[d].Targets
	for i := p.cur[d] + 1; i < len(targets); i++ {
		if p.taken(targets[i], d) {
			continue
		}
		p.cur[d] = i
		return true
	}
	return false
}

func (p *Permutations) taken(t *patch.Module, d int) bool {
	if p.claimed[t] {
		return true
	}
	for k := 0; k < d; k++ {
		if p.ambiguous[k].Targets[p.cur[k]] == t {
			return true
		}
	}
	return false
}

func (p *Permutations) assignment() Assignment {
	a := make(Assignment, len(p.forced)+len(p.ambiguous))
	for _, c := range p.forced {
		a[c.Source] = c.Targets[0]
	}
	for i, c := range p.ambiguous {
		a[c.Source] = c.Targets[p.cur[i]]
	}
	return a
}
