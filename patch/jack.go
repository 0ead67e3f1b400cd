package patch

// InputJack receives at most one connection. It may carry an attenuator
// parameter scaling the incoming signal.
type InputJack struct {
	name       string
	typ        JackType
	used       bool
	module     *Module
	attenuator *Parameter
	conn       *Connection
}

// OutputJack feeds any number of connections.
type OutputJack struct {
	name     string
	typ      JackType
	polarity Polarity
	used     bool
	module   *Module
	conns    []*Connection
}

func NewInputJack(name string, typ JackType) *InputJack {
	return &InputJack{name: name, typ: typ}
}

func NewOutputJack(name string, typ JackType) *OutputJack {
	return &OutputJack{name: name, typ: typ, polarity: Bipolar}
}

// WithPolarity sets the output polarity.
func (j *OutputJack) WithPolarity(p Polarity) *OutputJack {
	j.polarity = p
	return j
}

func (j *InputJack) Name() string { return j.name }
func (j *InputJack) Prefix() string { return prefixOf(j.name) }
func (j *InputJack) Number() int { return numberOf(j.name) }
func (j *InputJack) Type() JackType { return j.typ }
func (j *InputJack) Used() bool { return j.used }
func (j *InputJack) SetUsed(b bool) { j.used = b }
func (j *InputJack) Module() *Module { return j.module }
func (j *InputJack) Attenuator() *Parameter { return j.attenuator }
func (j *InputJack) Connection() *Connection { return j.conn }
func (j *InputJack) Connected() bool { return j.conn != nil }

func (j *InputJack) setNumber(n int) {
	j.name = withNumber(j.name, n)
	if j.attenuator != nil {
		j.attenuator.setNumber(n)
	}
}

// Source returns the output jack feeding this jack, or nil.
func (j *InputJack) Source() *OutputJack {
	if j.conn == nil {
		return nil
	}
	return j.conn.source
}

// ConnectedToUsed reports whether the feeding jack and its module are in use.
func (j *InputJack) ConnectedToUsed() bool {
	src := j.Source()
	return src != nil && src.used && src.module != nil && src.module.state > Unused
}

func (j *OutputJack) Name() string { return j.name }
func (j *OutputJack) Prefix() string { return prefixOf(j.name) }
func (j *OutputJack) Type() JackType { return j.typ }
func (j *OutputJack) Polarity() Polarity { return j.polarity }
func (j *OutputJack) Used() bool { return j.used }
func (j *OutputJack) SetUsed(b bool) { j.used = b }
func (j *OutputJack) Module() *Module { return j.module }

// Connections returns the fan-out of the jack in creation order.
func (j *OutputJack) Connections() []*Connection {
	return append([]*Connection(nil), j.conns...)
}

// ConnectedToUsed reports whether any fed jack and its module are in use.
func (j *OutputJack) ConnectedToUsed() bool {
	for _, c := range j.conns {
		t := c.target
		if t.used && t.module != nil && t.module.state > Unused {
			return true
		}
	}
	return false
}

func (j *OutputJack) removeConn(c *Connection) {
	for i, x := range j.conns {
		if x == c {
			j.conns = append(j.conns[:i], j.conns[i+1:]...)
			return
		}
	}
}
