package permission

import (
	"errors"
	"sync"
)

// RootGrant in a role's permission list sets the root bit. It requires a
// registry created with root reservation.
const RootGrant = "*"

// RoleManager holds the compiled mask for every role.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]Mask
	frozen bool
}

// NewRoleManager creates a role manager over a registry.
func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string]Mask),
	}
}

// RegisterRole compiles permissionNames into a mask for roleName. Every
// name must already be registered, except [RootGrant].
func (rm *RoleManager) RegisterRole(roleName string, permissionNames []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return errors.New("role manager frozen")
	}

	if roleName == "" {
		return errors.New("role name empty")
	}

	if _, exists := rm.roles[roleName]; exists {
		return errors.New("role already registered")
	}

	mask, err := NewMask(rm.registry.MaxBits())
	if err != nil {
		return err
	}

	for _, perm := range permissionNames {
		if perm == RootGrant {
			root, ok := rm.registry.RootBit()
			if !ok {
				return errors.New("root grant requires root bit reservation")
			}
			mask.Set(root)
			continue
		}

		bit, ok := rm.registry.Bit(perm)
		if !ok {
			return errors.New("permission not registered: " + perm)
		}
		mask.Set(bit)
	}

	rm.roles[roleName] = mask
	return nil
}

// GetMask returns the compiled mask for roleName.
func (rm *RoleManager) GetMask(roleName string) (Mask, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	mask, ok := rm.roles[roleName]
	return mask, ok
}

// Freeze prevents further role registrations.
func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

// Count returns the number of registered roles.
func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
