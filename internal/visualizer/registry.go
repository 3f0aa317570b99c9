package visualizer

import "fmt"

// RegistrationReport lists what RegisterAll accepted and rejected.
type RegistrationReport struct {
	Registered []string
	Rejected   []*ConfigurationError
}

// OK reports whether every candidate was accepted.
func (r RegistrationReport) OK() bool { return len(r.Rejected) == 0 }

// Registry indexes modules by id. It holds factories and metadata only,
// never live instances.
type Registry struct {
	order   []string
	modules map[string]Module
	schemas map[string]ConfigSchema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
		schemas: make(map[string]ConfigSchema),
	}
}

// RegisterAll validates and indexes each module. Invalid or duplicate
// modules are skipped and reported; the first registration of an id wins.
func (r *Registry) RegisterAll(modules ...Module) RegistrationReport {
	var report RegistrationReport
	for _, m := range modules {
		if err := r.validate(m); err != nil {
			report.Rejected = append(report.Rejected, &ConfigurationError{ID: m.Meta.ID, Err: err})
			continue
		}
		r.modules[m.Meta.ID] = m
		r.order = append(r.order, m.Meta.ID)
		report.Registered = append(report.Registered, m.Meta.ID)
	}
	return report
}

func (r *Registry) validate(m Module) error {
	switch {
	case m.Meta.ID == "":
		return ErrEmptyID
	case !m.Meta.Renderer.Valid():
		return fmt.Errorf("%w: %q", ErrUnknownRenderer, m.Meta.Renderer)
	case !m.Meta.Transition.Valid():
		return fmt.Errorf("%w: %q", ErrUnknownTransition, m.Meta.Transition)
	case m.New == nil:
		return ErrNilFactory
	}
	if _, exists := r.modules[m.Meta.ID]; exists {
		return ErrDuplicateID
	}
	return nil
}

// Create builds a fresh instance of id and runs its Init with the module's
// schema defaults overlaid by initial. If Init fails or panics the instance
// is destroyed once before the error is returned.
func (r *Registry) Create(id string, c Container, initial Config) (v Visualization, err error) {
	m, ok := r.modules[id]
	if !ok {
		return nil, &LookupError{ID: id}
	}
	v = m.New()
	if v == nil {
		return nil, fmt.Errorf("creating %s: factory returned nil", id)
	}

	defer func() {
		if p := recover(); p != nil {
			destroyQuietly(v)
			v, err = nil, fmt.Errorf("initializing %s: panic: %v", id, p)
		}
	}()

	schema := v.ConfigSchema()
	if _, cached := r.schemas[id]; !cached {
		r.schemas[id] = schema
	}
	cfg := schema.Defaults()
	cfg.Merge(initial)
	if err := v.Init(c, cfg); err != nil {
		destroyQuietly(v)
		return nil, fmt.Errorf("initializing %s: %w", id, err)
	}
	return v, nil
}

func destroyQuietly(v Visualization) {
	defer func() { _ = recover() }()
	v.Destroy()
}

// Lookup returns the metadata registered under id.
func (r *Registry) Lookup(id string) (Meta, bool) {
	m, ok := r.modules[id]
	return m.Meta, ok
}

// Schema returns the config schema of id. It is cached from the first
// instance Create builds; before that a throwaway instance is created,
// read and destroyed.
func (r *Registry) Schema(id string) (ConfigSchema, bool) {
	if schema, ok := r.schemas[id]; ok {
		return schema, true
	}
	m, ok := r.modules[id]
	if !ok {
		return nil, false
	}
	schema, ok := readSchema(m)
	if ok {
		r.schemas[id] = schema
	}
	return schema, ok
}

func readSchema(m Module) (schema ConfigSchema, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			schema, ok = nil, false
		}
	}()
	v := m.New()
	if v == nil {
		return nil, false
	}
	defer destroyQuietly(v)
	return v.ConfigSchema(), true
}

// List returns module metadata in registration order.
func (r *Registry) List() []Meta {
	out := make([]Meta, len(r.order))
	for i, id := range r.order {
		out[i] = r.modules[id].Meta
	}
	return out
}

// IDs returns module ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int { return len(r.order) }
