// Package implementor constructs permissive instances of trust interfaces
// inside the target runtime: a trust manager that accepts every chain and a
// hostname verifier that accepts every host. Instances are built lazily,
// once, and reused across every installation site that needs them.
package implementor

import (
	"context"
	"fmt"
	"sync"

	"github.com/joss/unpin/internal/bridge"
	"github.com/joss/unpin/internal/target"
)

type spec struct {
	iface    string
	behavior bridge.Behavior
}

// roleSpecs maps each role to the interface it implements and the canned
// behavior of its capability methods.
var roleSpecs = map[target.Role]spec{
	target.RoleTrustManager: {
		iface: "javax.net.ssl.X509TrustManager",
		behavior: bridge.Behavior{
			"checkClientTrusted": bridge.ResultVoid,
			"checkServerTrusted": bridge.ResultVoid,
			"getAcceptedIssuers": bridge.ResultEmptyArray,
		},
	},
	target.RoleHostnameVerifier: {
		iface: "javax.net.ssl.HostnameVerifier",
		behavior: bridge.Behavior{
			"verify": bridge.ResultTrue,
		},
	},
}

// Factory builds and caches permissive instances per role.
type Factory struct {
	bridge bridge.Bridge

	mu    sync.Mutex
	cache map[target.Role]bridge.ObjectHandle
}

// New creates a factory over the given bridge.
func New(b bridge.Bridge) *Factory {
	return &Factory{
		bridge: b,
		cache:  make(map[target.Role]bridge.ObjectHandle),
	}
}

// Instance returns the permissive instance for a role, constructing it on
// first use. A failed construction is not cached, so a later attempt can
// succeed once the interface class loads.
func (f *Factory) Instance(ctx context.Context, role target.Role) (bridge.ObjectHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if obj, ok := f.cache[role]; ok {
		return obj, nil
	}

	s, ok := roleSpecs[role]
	if !ok {
		return bridge.ObjectHandle{}, fmt.Errorf("unknown implementor role %q", role)
	}

	iface, err := f.bridge.ResolveClass(ctx, s.iface)
	if err != nil {
		return bridge.ObjectHandle{}, err
	}
	obj, err := f.bridge.Construct(ctx, iface, s.behavior)
	if err != nil {
		return bridge.ObjectHandle{}, err
	}

	f.cache[role] = obj
	return obj, nil
}

// TrustManager returns the universally-trusting trust manager instance.
func (f *Factory) TrustManager(ctx context.Context) (bridge.ObjectHandle, error) {
	return f.Instance(ctx, target.RoleTrustManager)
}

// HostnameVerifier returns the always-verified hostname verifier instance.
func (f *Factory) HostnameVerifier(ctx context.Context) (bridge.ObjectHandle, error) {
	return f.Instance(ctx, target.RoleHostnameVerifier)
}
