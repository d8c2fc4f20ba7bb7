package core

// Settings are the global runtime settings passed to Init.
type Settings struct {
	// MultiSession keeps several live sessions; only one is ever current.
	MultiSession bool `json:"multiSession"`
	// AutoLogin restores the persisted current session through its backend.
	AutoLogin bool `json:"autoLogin"`
	// AppName identifies the application to backends and stores.
	AppName string `json:"appName"`
}

// DefaultSettings mirrors what an application gets when it passes nothing.
func DefaultSettings() Settings {
	return Settings{AppName: "w3o-app", MultiSession: false, AutoLogin: true}
}

// NetworkLinks are useful links shown for a network.
type NetworkLinks struct {
	Explorer  string `json:"explorer,omitempty"`
	Bridge    string `json:"bridge,omitempty"`
	Ecosystem string `json:"ecosystem,omitempty"`
	Website   string `json:"website,omitempty"`
	Wallet    string `json:"wallet,omitempty"`
}

// NetworkSettings is the immutable configuration of a network.
type NetworkSettings struct {
	Type        string       `json:"type"`
	Name        string       `json:"name"`
	ChainID     string       `json:"chainId"`
	DisplayName string       `json:"displayName"`
	Links       NetworkLinks `json:"links"`
	RPCURL      string       `json:"rpcUrl"`
	TokensURL   string       `json:"tokensUrl"`

	// Module identity. A network without ModuleVersion is not registered
	// as a module.
	ModuleName     string   `json:"w3oName,omitempty"`
	ModuleVersion  string   `json:"w3oVersion,omitempty"`
	ModuleRequires []string `json:"w3oRequire,omitempty"`
}

// ModuleID returns the module identity of the network, defaulting the
// name to "<type>.network.<name>".
func (s NetworkSettings) ModuleID() ModuleID {
	name := s.ModuleName
	if name == "" {
		name = s.Type + ".network." + s.Name
	}
	return ModuleID{Name: name, Version: s.ModuleVersion}
}
