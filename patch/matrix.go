package patch

import (
	"errors"
	"fmt"
)

// Target is one destination of a slot route. For a routing slot Jack names
// an input jack that already exists on Module. For an injecting slot Jack
// is the prefix of the jack to create and Attenuator the prefix of its
// attenuator parameter ("" for none).
type Target struct {
	Module     *Module
	Jack       string
	Attenuator string
	Type       JackType
	Validator  Validator
}

func (t Target) prefix() string {
	return prefixOf(t.Jack)
}

// Route is one legal destination choice of a slot. A route with more than
// one target modulates all of them from a single source.
type Route []Target

// SlotState is the allocation state of a slot, as returned by Pool.Snapshot.
type SlotState struct {
	Name        string
	Source      int
	Route       int
	GroupSource string
}

// Slot is a matrix modulation resource: it can connect one of its sources
// to one of its routes. Slots sharing a Group always select the same
// source.
type Slot struct {
	Name  string
	Group string

	inject  bool
	sources []*OutputJack
	routes  []Route

	pool     *Pool
	source   int
	route    int
	conns    []*Connection
	injected []*InputJack
}

// NewRoutingSlot creates a slot that connects sources to existing jacks.
func NewRoutingSlot(name string, sources []*OutputJack, routes ...Route) *Slot {
	return &Slot{Name: name, sources: sources, routes: routes, source: -1, route: -1}
}

// NewInjectingSlot creates a slot that adds a fresh jack (and attenuator)
// to the destination module on allocation.
func NewInjectingSlot(name string, sources []*OutputJack, routes ...Route) *Slot {
	s := NewRoutingSlot(name, sources, routes...)
	s.inject = true
	return s
}

// InGroup puts the slot into a source group.
func (s *Slot) InGroup(group string) *Slot {
	s.Group = group
	return s
}

func (s *Slot) Injecting() bool { return s.inject }
func (s *Slot) Sources() []*OutputJack { return s.sources }
func (s *Slot) Routes() []Route { return s.routes }
func (s *Slot) Allocated() bool { return s.route >= 0 }
func (s *Slot) SourceIndex() int { return s.source }
func (s *Slot) RouteIndex() int { return s.route }
func (s *Slot) Connections() []*Connection { return s.conns }

// Source returns the allocated source jack, or nil.
func (s *Slot) Source() *OutputJack {
	if s.source < 0 {
		return nil
	}
	return s.sources[s.source]
}

// Route returns the allocated route, or nil.
func (s *Slot) Route() Route {
	if s.route < 0 {
		return nil
	}
	return s.routes[s.route]
}

// Multi reports whether the slot offers a route with several targets.
func (s *Slot) Multi() bool {
	for _, r := range s.routes {
		if len(r) > 1 {
			return true
		}
	}
	return false
}

// CanRoute reports whether the slot lists a source of kind srcKind with
// prefix srcPrefix and a destination of kind dstKind with prefix dstPrefix.
func (s *Slot) CanRoute(srcKind Kind, srcPrefix string, dstKind Kind, dstPrefix string) bool {
	if !s.hasSource(srcKind, srcPrefix) {
		return false
	}
	for _, r := range s.routes {
		for _, t := range r {
			if t.Module.kind == dstKind && sameName(t.prefix(), dstPrefix) {
				return true
			}
		}
	}
	return false
}

// CanRouteTo reports whether the slot can connect a srcKind/srcPrefix
// source to an existing dstPrefix jack on dst.
func (s *Slot) CanRouteTo(srcKind Kind, srcPrefix string, dst *Module, dstPrefix string) bool {
	if s.inject || !s.hasSource(srcKind, srcPrefix) {
		return false
	}
	for _, r := range s.routes {
		for _, t := range r {
			if t.Module == dst && sameName(t.prefix(), dstPrefix) {
				return true
			}
		}
	}
	return false
}

// CanInject reports whether the slot can create a dstPrefix jack on dst fed
// from a srcKind/srcPrefix source.
func (s *Slot) CanInject(srcKind Kind, srcPrefix string, dst *Module, dstPrefix string) bool {
	if !s.inject || !s.hasSource(srcKind, srcPrefix) {
		return false
	}
	for _, r := range s.routes {
		for _, t := range r {
			if t.Module == dst && sameName(t.prefix(), dstPrefix) {
				return true
			}
		}
	}
	return false
}

func (s *Slot) hasSource(kind Kind, prefix string) bool {
	for _, src := range s.sources {
		if src.module != nil && src.module.kind == kind && sameName(src.Prefix(), prefix) {
			return true
		}
	}
	return false
}

func (s *Slot) findSource(m *Module, jack string) int {
	for i, src := range s.sources {
		if src.module == m && sameName(src.name, jack) {
			return i
		}
	}
	return -1
}

// sourceFor picks the source index for an allocation, honoring the group's
// shared source.
func (s *Slot) sourceFor(m *Module, jack string) (int, error) {
	if s.Allocated() {
		return -1, ErrNoRoute
	}
	i := s.findSource(m, jack)
	if i < 0 {
		return -1, ErrNoRoute
	}
	if s.Group != "" && s.pool != nil {
		if shared := s.pool.GroupSource(s.Group); shared != nil && shared != s.sources[i] {
			return -1, ErrNoRoute
		}
	}
	return i, nil
}

// AllocateSingle connects srcJack on src to a dstPrefix jack on dst. The
// returned jack is the one now fed by the slot. ErrNoRoute means the slot
// cannot serve the request; nothing has changed in that case.
func (s *Slot) AllocateSingle(src *Module, srcJack string, dst *Module, dstPrefix string) (*InputJack, error) {
	jacks, err := s.allocate(src, srcJack, []*Module{dst}, dstPrefix)
	if err != nil {
		return nil, err
	}
	return jacks[0], nil
}

// AllocateMulti connects srcJack on src to a dstPrefix jack on every module
// of dsts through one route. Jacks are returned in dsts order.
func (s *Slot) AllocateMulti(src *Module, srcJack string, dsts []*Module, dstPrefix string) ([]*InputJack, error) {
	if len(dsts) < 2 {
		return nil, ErrNoRoute
	}
	return s.allocate(src, srcJack, dsts, dstPrefix)
}

func (s *Slot) allocate(src *Module, srcJack string, dsts []*Module, dstPrefix string) ([]*InputJack, error) {
	si, err := s.sourceFor(src, srcJack)
	if err != nil {
		return nil, err
	}
	for ri, r := range s.routes {
		order, ok := matchRoute(r, dsts, dstPrefix)
		if !ok {
			continue
		}
		jacks, err := s.realize(si, order)
		if errors.Is(err, ErrNoRoute) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.source = si
		s.route = ri
		return jacks, nil
	}
	return nil, ErrNoRoute
}

// matchRoute maps each of dsts onto a distinct target of r with prefix.
func matchRoute(r Route, dsts []*Module, prefix string) ([]Target, bool) {
	if len(r) != len(dsts) {
		return nil, false
	}
	order := make([]Target, len(dsts))
	taken := make([]bool, len(r))
	for i, m := range dsts {
		found := false
		for k, t := range r {
			if !taken[k] && t.Module == m && sameName(t.prefix(), prefix) {
				order[i] = t
				taken[k] = true
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return order, true
}

// realize makes the connections of one route. On failure everything made
// so far is undone.
func (s *Slot) realize(si int, order []Target) ([]*InputJack, error) {
	var jacks []*InputJack
	for _, t := range order {
		j, err := s.realizeTarget(s.sources[si], t)
		if err != nil {
			s.undo()
			return nil, err
		}
		jacks = append(jacks, j)
	}
	return jacks, nil
}

func (s *Slot) realizeTarget(src *OutputJack, t Target) (*InputJack, error) {
	p := s.patch()
	if p == nil {
		return nil, fmt.Errorf("slot %s is not in a pool", s.Name)
	}
	if !s.inject {
		j := t.Module.FindInputJack(t.Jack)
		if j == nil {
			return nil, structural("allocate "+s.Name, t.Module, t.Jack, ErrMissingJack)
		}
		if j.Connected() {
			return nil, ErrNoRoute
		}
		c, err := p.Connect(src, j)
		if err != nil {
			return nil, err
		}
		s.conns = append(s.conns, c)
		return j, nil
	}

	typ := t.Type
	if typ == "" {
		typ = ControlInput
	}
	j := NewInputJack(t.prefix(), typ)
	var att *Parameter
	if t.Attenuator != "" {
		att = NewParameter(prefixOf(t.Attenuator), t.Validator, "0")
	}
	t.Module.InjectInputJack(j, att)
	s.injected = append(s.injected, j)
	c, err := p.Connect(src, j)
	if err != nil {
		return nil, err
	}
	s.conns = append(s.conns, c)
	return j, nil
}

// Release undoes the slot's allocation. Releasing a free slot is a no-op.
func (s *Slot) Release() {
	s.undo()
	s.source = -1
	s.route = -1
}

func (s *Slot) undo() {
	p := s.patch()
	for i := len(s.conns) - 1; i >= 0; i-- {
		if p != nil {
			p.Disconnect(s.conns[i])
		}
	}
	s.conns = nil
	for i := len(s.injected) - 1; i >= 0; i-- {
		j := s.injected[i]
		if m := j.module; m != nil {
			m.RemoveInputJack(j)
			m.RenumberJacks()
		}
	}
	s.injected = nil
}

func (s *Slot) patch() *Patch {
	if s.pool == nil {
		return nil
	}
	return s.pool.patch
}

// Pool is the set of matrix modulation slots of a patch.
type Pool struct {
	patch *Patch
	slots []*Slot
}

// AddSlot appends s to the pool. Slots are tried in the order added.
func (p *Pool) AddSlot(s *Slot) *Slot {
	s.pool = p
	p.slots = append(p.slots, s)
	return s
}

func (p *Pool) Slots() []*Slot { return p.slots }

// Reset releases every slot, newest allocations first.
func (p *Pool) Reset() {
	for i := len(p.slots) - 1; i >= 0; i-- {
		p.slots[i].Release()
	}
}

// Allocated returns the allocated slots in pool order.
func (p *Pool) Allocated() []*Slot {
	var out []*Slot
	for _, s := range p.slots {
		if s.Allocated() {
			out = append(out, s)
		}
	}
	return out
}

// GroupSource returns the source shared by the allocated members of group,
// or nil when none is allocated.
func (p *Pool) GroupSource(group string) *OutputJack {
	if group == "" {
		return nil
	}
	for _, s := range p.slots {
		if s.Group == group && s.Allocated() {
			return s.Source()
		}
	}
	return nil
}

// Snapshot captures the allocation state of every slot.
func (p *Pool) Snapshot() []SlotState {
	out := make([]SlotState, len(p.slots))
	for i, s := range p.slots {
		st := SlotState{Name: s.Name, Source: s.source, Route: s.route}
		if gs := p.GroupSource(s.Group); gs != nil {
			st.GroupSource = moduleName(gs.module) + "/" + gs.name
		}
		out[i] = st
	}
	return out
}

func (p *Pool) CanRoute(srcKind Kind, srcPrefix string, dstKind Kind, dstPrefix string) bool {
	for _, s := range p.slots {
		if s.CanRoute(srcKind, srcPrefix, dstKind, dstPrefix) {
			return true
		}
	}
	return false
}

func (p *Pool) CanRouteTo(srcKind Kind, srcPrefix string, dst *Module, dstPrefix string) bool {
	for _, s := range p.slots {
		if s.CanRouteTo(srcKind, srcPrefix, dst, dstPrefix) {
			return true
		}
	}
	return false
}

func (p *Pool) CanInject(srcKind Kind, srcPrefix string, dst *Module, dstPrefix string) bool {
	for _, s := range p.slots {
		if s.CanInject(srcKind, srcPrefix, dst, dstPrefix) {
			return true
		}
	}
	return false
}
