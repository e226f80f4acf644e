package bind

import (
	stderrors "errors"

	"github.com/ygrebnov/bind/command"
	"github.com/ygrebnov/bind/notify"
)

var errTest = stderrors.New("test failure")

// Shared observable fixtures. Setters raise Changed so chains can react.

type testAddress struct {
	notify.Emitter
	city string
}

func (a *testAddress) City() string { return a.city }

func (a *testAddress) SetCity(v string) {
	a.city = v
	a.Changed("City")
}

type testPerson struct {
	notify.Emitter
	name    string
	address *testAddress
}

func (p *testPerson) Name() string { return p.name }

func (p *testPerson) SetName(v string) {
	p.name = v
	p.Changed("Name")
}

func (p *testPerson) Address() *testAddress { return p.address }

func (p *testPerson) SetAddress(a *testAddress) {
	p.address = a
	p.Changed("Address")
}

type testViewModel struct {
	notify.Emitter
	person *testPerson
	save   command.Command
	count  int
	item   any
}

func (m *testViewModel) Person() *testPerson { return m.person }

func (m *testViewModel) SetPerson(p *testPerson) {
	m.person = p
	m.Changed("Person")
}

func (m *testViewModel) Save() command.Command { return m.save }

func (m *testViewModel) SetSave(c command.Command) {
	m.save = c
	m.Changed("Save")
}

func (m *testViewModel) Item() any { return m.item }

func (m *testViewModel) SetItem(v any) {
	m.item = v
	m.Changed("Item")
}

func (m *testViewModel) Count() int { return m.count }

func (m *testViewModel) SetCount(v int) {
	m.count = v
	m.Changed("Count")
}

// plainBox has no change notification capability.
type plainBox struct {
	Label string
}

// textBox is a property-style binding target.
type textBox struct {
	notify.Emitter
	text string
}

func (t *textBox) Text() string { return t.text }

func (t *textBox) SetText(v string) {
	t.text = v
	t.Changed("Text")
}

// counter is a numeric binding target.
type counter struct {
	notify.Emitter
	value int
}

func (c *counter) Count() int { return c.value }

func (c *counter) SetCount(v int) {
	c.value = v
	c.Changed("Count")
}

// propButton exposes the Command and CommandParameter members the property
// command binder looks for.
type propButton struct {
	cmd   command.Command
	param any
}

func (b *propButton) Command() command.Command     { return b.cmd }
func (b *propButton) SetCommand(c command.Command) { b.cmd = c }
func (b *propButton) CommandParameter() any        { return b.param }
func (b *propButton) SetCommandParameter(v any)    { b.param = v }

// eventButton is an EventSource exposing a single Click event.
type eventButton struct {
	handlers map[int]func()
	seq      int
	connects int
}

func (b *eventButton) HasEvent(name string) bool { return name == "Click" }

func (b *eventButton) Connect(name string, fn func()) (func(), error) {
	if !b.HasEvent(name) {
		return nil, stderrors.New("no such event: " + name)
	}
	if b.handlers == nil {
		b.handlers = make(map[int]func())
	}
	b.seq++
	id := b.seq
	b.handlers[id] = fn
	b.connects++
	return func() { delete(b.handlers, id) }, nil
}

func (b *eventButton) Click() {
	for _, fn := range b.handlers {
		fn()
	}
}

// dualButton supports both binding styles at once.
type dualButton struct {
	eventButton
	cmd   command.Command
	param any
}

func (b *dualButton) Command() command.Command     { return b.cmd }
func (b *dualButton) SetCommand(c command.Command) { b.cmd = c }
func (b *dualButton) CommandParameter() any        { return b.param }
func (b *dualButton) SetCommandParameter(v any)    { b.param = v }

func newTestCommand(executed *[]any) command.Command {
	return command.New(func(param any) (any, error) {
		*executed = append(*executed, param)
		return param, nil
	})
}
