package permission

// Evaluator answers allow/deny questions from a role name and a list of
// explicit grants. It performs no I/O and is safe for concurrent use once
// its registry and role manager are frozen.
type Evaluator struct {
	registry     *Registry
	roles        *RoleManager
	rootReserved bool
}

// NewEvaluator builds an evaluator. Either argument may be nil, in which
// case only explicit grants are honoured.
func NewEvaluator(registry *Registry, roles *RoleManager) *Evaluator {
	e := &Evaluator{
		registry: registry,
		roles:    roles,
	}
	if registry != nil {
		_, e.rootReserved = registry.RootBit()
	}
	return e
}

// Allowed reports whether role or grants permit action on resource.
// Empty resource or action is always denied.
func (e *Evaluator) Allowed(role string, grants []string, resource, action string) bool {
	if resource == "" || action == "" {
		return false
	}
	name := Name(resource, action)

	if grantsAllow(grants, resource, name) {
		return true
	}
	if e == nil || e.registry == nil || e.roles == nil || role == "" {
		return false
	}

	mask, ok := e.roles.GetMask(role)
	if !ok {
		return false
	}
	if root, ok := e.registry.RootBit(); ok && mask.Has(root, false) {
		return true
	}
	bit, ok := e.registry.Bit(name)
	if !ok {
		return false
	}
	return mask.Has(bit, e.rootReserved)
}

func grantsAllow(grants []string, resource, name string) bool {
	wildcard := Name(resource, "*")
	for _, g := range grants {
		if g == RootGrant || g == name || g == wildcard {
			return true
		}
	}
	return false
}
