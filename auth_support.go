package w3o

// BaseAuthSupport carries the identity shared by every AuthSupport.
// Concrete backends embed it and implement the login flow.
type BaseAuthSupport struct {
	BaseModule
	name        string
	networkType string
	readOnly    bool
}

// NewBaseAuthSupport returns the identity of backend name for networkType,
// registered as module name@version.
func NewBaseAuthSupport(name, networkType, version string, readOnly bool, requires ...string) BaseAuthSupport {
	return BaseAuthSupport{
		BaseModule:  NewBaseModule(name, version, requires...),
		name:        name,
		networkType: networkType,
		readOnly:    readOnly,
	}
}

// Name implements AuthSupport.
func (s BaseAuthSupport) Name() string { return s.name }

// NetworkType implements AuthSupport.
func (s BaseAuthSupport) NetworkType() string { return s.networkType }

// IsReadOnly implements AuthSupport.
func (s BaseAuthSupport) IsReadOnly() bool { return s.readOnly }

// Snapshot implements Snapshotter.
func (s BaseAuthSupport) Snapshot() any {
	return map[string]any{
		"module":   SnapshotModule(s),
		"name":     s.name,
		"type":     s.networkType,
		"readOnly": s.readOnly,
	}
}
