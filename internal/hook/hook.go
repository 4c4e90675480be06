// Package hook provides the extension bus: fire-and-forget hooks and
// value-transforming filters.
package hook

// Func is a fire-and-forget hook callback.
type Func func(args ...any)

// FilterFunc transforms a value; the result is passed to the next filter
// registered under the same name.
type FilterFunc func(value any, args ...any) any

// Bus dispatches hooks and filters by name. The zero value is not usable;
// call NewBus.
type Bus struct {
	hooks   map[string][]Func
	filters map[string][]FilterFunc
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{
		hooks:   map[string][]Func{},
		filters: map[string][]FilterFunc{},
	}
}

// AddHook registers a hook callback under name.
func (b *Bus) AddHook(name string, fn Func) {
	b.hooks[name] = append(b.hooks[name], fn)
}

// AddFilter registers a filter under name.
func (b *Bus) AddFilter(name string, fn FilterFunc) {
	b.filters[name] = append(b.filters[name], fn)
}

// RunHook invokes every hook registered under name.
func (b *Bus) RunHook(name string, args ...any) {
	for _, fn := range b.hooks[name] {
		fn(args...)
	}
}

// RunFilter threads value through every filter registered under name and
// returns the final result. With no filters registered the value is
// returned unchanged.
func (b *Bus) RunFilter(name string, value any, args ...any) any {
	for _, fn := range b.filters[name] {
		value = fn(value, args...)
	}
	return value
}
