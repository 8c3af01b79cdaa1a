package relay

import "fmt"

// maxNameSuffix bounds the suffix search so a pathological topic cannot spin
// forever. Hitting it surfaces ErrNameExhausted instead of looping.
const maxNameSuffix = 1 << 20

// nameRegistry arbitrates display names within a single topic. A requested
// name that collides with a reserved one gets the lowest free "#k" suffix
// (k >= 2). Names are released when their session leaves, making the suffix
// available to later joiners again.
//
// The registry is not safe for concurrent use on its own; callers hold the
// owning topic's lock, which makes resolution and reservation one atomic step.
type nameRegistry struct {
	reserved  map[string]struct{}
	maxSuffix int
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{
		reserved:  make(map[string]struct{}),
		maxSuffix: maxNameSuffix,
	}
}

// resolve returns the requested name unchanged if it is free, otherwise the
// requested name with the lowest unused suffix. The returned name is reserved.
func (r *nameRegistry) resolve(requested string) (string, error) {
	if _, taken := r.reserved[requested]; !taken {
		r.reserved[requested] = struct{}{}
		return requested, nil
	}

	for k := 2; k <= r.maxSuffix; k++ {
		candidate := fmt.Sprintf("%s#%d", requested, k)
		if _, taken := r.reserved[candidate]; !taken {
			r.reserved[candidate] = struct{}{}
			return candidate, nil
		}
	}

	return "", ErrNameExhausted
}

// release frees a previously reserved name for reuse. Releasing an unknown
// name is a no-op.
func (r *nameRegistry) release(name string) {
	delete(r.reserved, name)
}
