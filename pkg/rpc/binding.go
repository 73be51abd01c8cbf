package rpc

// NamedParameter is one caller-bound `@p`-style RPC parameter, encoded by
// the (out of scope) value codec before it reaches the Builder.
type NamedParameter struct {
	Direction Direction
	Encoded   interface{}
}

// Binding is the ordered set of named parameters for one query execution,
// plus the textual formal parameter declaration (`@p1 int, @p2 varchar(10)
// output, ...`) sp_executesql/sp_cursorprepexec require alongside the
// query text. Binding is also the unit of prepared-statement fingerprinting
// (see pkg/prepcache): two bindings with the same query text and the same
// ordered formal parameter types are considered the same prepared statement
// regardless of the bound values.
type Binding struct {
	FormalParameters string
	names            []string
	params           map[string]NamedParameter
}

// NewBinding returns an empty binding with the given formal parameter
// declaration text (empty for queries with no parameters).
func NewBinding(formalParameters string) *Binding {
	return &Binding{FormalParameters: formalParameters, params: make(map[string]NamedParameter)}
}

// Add appends a named parameter, preserving first-seen order for ForEach.
func (b *Binding) Add(name string, dir Direction, encoded interface{}) *Binding {
	if _, exists := b.params[name]; !exists {
		b.names = append(b.names, name)
	}
	b.params[name] = NamedParameter{Direction: dir, Encoded: encoded}
	return b
}

// IsEmpty reports whether the binding carries no parameters at all
// (distinct from a binding with an empty formal-parameter-defn string but
// positional parameters only, which cannot occur for named RPC calls). A
// nil binding is treated as empty, matching direct sp_executesql calls with
// no parameters.
func (b *Binding) IsEmpty() bool {
	return b == nil || len(b.names) == 0
}

// FormalParams returns the formal parameter declaration text, or "" for a
// nil binding.
func (b *Binding) FormalParams() string {
	if b == nil {
		return ""
	}
	return b.FormalParameters
}

// ForEach visits parameters in the order they were Added.
func (b *Binding) ForEach(fn func(name string, param NamedParameter)) {
	for _, name := range b.names {
		fn(name, b.params[name])
	}
}

// AppendTo adds every bound named parameter to the builder, in binding
// order, each tagged with its own direction — used by the positional
// procedure constructors after the fixed prefix parameters. A nil binding
// appends nothing.
func (b *Binding) AppendTo(builder *Builder) {
	if b == nil {
		return
	}
	b.ForEach(func(name string, p NamedParameter) {
		builder.WithNamedParam(p.Direction, name, p.Encoded)
	})
}
