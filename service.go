package w3o

import (
	"fmt"
	"sort"
	"strings"

	"github.com/layer-3/w3o/core"
)

// ServiceTree is the nested lookup of registered services keyed by the
// dot separated segments of their paths.
type ServiceTree struct {
	service  Service
	children map[string]*ServiceTree
}

// NewServiceTree composes services into a tree. A later service with the
// same path replaces the earlier one.
func NewServiceTree(services ...Service) (*ServiceTree, error) {
	root := &ServiceTree{children: make(map[string]*ServiceTree)}
	for _, s := range services {
		if err := root.insert(s); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", core.ErrInvalidServicePath)
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w %q: empty segment", core.ErrInvalidServicePath, path)
		}
	}
	return parts, nil
}

func (t *ServiceTree) insert(s Service) error {
	parts, err := splitPath(s.Path())
	if err != nil {
		return err
	}
	node := t
	for _, part := range parts {
		child, ok := node.children[part]
		if !ok {
			child = &ServiceTree{children: make(map[string]*ServiceTree)}
			node.children[part] = child
		}
		node = child
	}
	node.service = s
	return nil
}

// Lookup returns the service registered at path.
func (t *ServiceTree) Lookup(path string) (Service, error) {
	node, err := t.Sub(path)
	if err != nil {
		return nil, err
	}
	if node.service == nil {
		return nil, fmt.Errorf("service %s: %w", path, core.ErrServiceNotFound)
	}
	return node.service, nil
}

// Sub returns the subtree at path.
func (t *ServiceTree) Sub(path string) (*ServiceTree, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	node := t
	for _, part := range parts {
		child, ok := node.children[part]
		if !ok {
			return nil, fmt.Errorf("service %s: %w", path, core.ErrServiceNotFound)
		}
		node = child
	}
	return node, nil
}

// Paths returns the paths of every service in the tree, sorted.
func (t *ServiceTree) Paths() []string {
	var paths []string
	t.walk(func(s Service) { paths = append(paths, s.Path()) })
	sort.Strings(paths)
	return paths
}

func (t *ServiceTree) walk(fn func(Service)) {
	if t.service != nil {
		fn(t.service)
	}
	for _, child := range t.children {
		child.walk(fn)
	}
}

// Snapshot implements Snapshotter. Leaves hold the service snapshots.
func (t *ServiceTree) Snapshot() any {
	out := make(map[string]any, len(t.children))
	for name, child := range t.children {
		if len(child.children) == 0 {
			out[name] = snapshotService(child.service)
			continue
		}
		sub := child.Snapshot().(map[string]any)
		if child.service != nil {
			sub["_self"] = snapshotService(child.service)
		}
		out[name] = sub
	}
	return out
}

func snapshotService(s Service) any {
	if sn, ok := s.(Snapshotter); ok {
		return sn.Snapshot()
	}
	return map[string]any{"module": SnapshotModule(s), "path": s.Path()}
}

// BaseService provides the Service identity for embedding structs.
type BaseService struct {
	BaseModule
	path string
}

// NewBaseService returns a service at path registered as name@version.
func NewBaseService(path, name, version string, requires ...string) BaseService {
	return BaseService{BaseModule: NewBaseModule(name, version, requires...), path: path}
}

// Path implements Service.
func (s BaseService) Path() string { return s.path }
