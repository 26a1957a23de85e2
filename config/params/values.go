package params

const (
	Mainnet ConfigName = iota
	Minimal
)

// ConfigNames provides network configuration names.
var ConfigNames = map[ConfigName]string{
	Mainnet: "mainnet",
	Minimal: "minimal",
}

// ConfigName enum describes the type of known network in use.
type ConfigName int

func (n ConfigName) String() string {
	s, ok := ConfigNames[n]
	if !ok {
		return "undefined"
	}
	return s
}

// ByName returns a copy of the named config.
func ByName(name string) (*BeaconChainConfig, bool) {
	switch name {
	case ConfigNames[Mainnet]:
		return MainnetConfig(), true
	case ConfigNames[Minimal]:
		return MinimalSpecConfig(), true
	}
	return nil, false
}
