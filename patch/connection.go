package patch

import "fmt"

// Connection is a patch cord from an output jack to an input jack.
type Connection struct {
	source *OutputJack
	target *InputJack
}

func (c *Connection) Source() *OutputJack { return c.source }
func (c *Connection) Target() *InputJack { return c.target }

func (c *Connection) String() string {
	return fmt.Sprintf("%s/%s -> %s/%s",
		moduleName(c.source.module), c.source.name,
		moduleName(c.target.module), c.target.name)
}

func moduleName(m *Module) string {
	if m == nil {
		return "<detached>"
	}
	return m.name
}
