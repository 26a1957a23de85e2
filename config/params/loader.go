package params

import (
	"encoding/hex"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	types "github.com/prysmaticlabs/beacon-transition/consensus-types/primitives"
	"github.com/prysmaticlabs/beacon-transition/math"
	"gopkg.in/yaml.v2"
)

// LoadChainConfigFile reads a chain config yaml file and applies it on top of base.
// When base is nil the mainnet config is used, unless the file declares a minimal preset.
func LoadChainConfigFile(chainConfigFileName string, base *BeaconChainConfig) (*BeaconChainConfig, error) {
	yamlFile, err := os.ReadFile(chainConfigFileName) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "failed to read chain config file")
	}
	return UnmarshalConfig(yamlFile, base)
}

// UnmarshalConfig converts 0x hex values into a yaml friendly format and unmarshals the
// result on top of a copy of base. The returned config never aliases base.
func UnmarshalConfig(yamlFile []byte, base *BeaconChainConfig) (*BeaconChainConfig, error) {
	var conf *BeaconChainConfig
	if base != nil {
		conf = base.Copy()
	} else {
		conf = MainnetConfig()
	}
	hasConfigName := false
	lines := strings.Split(string(yamlFile), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "DEPOSIT_CONTRACT_ADDRESS") {
			continue
		}
		if strings.HasPrefix(line, "CONFIG_NAME") {
			hasConfigName = true
		}
		if base == nil && isMinimalPresetLine(line) {
			conf = MinimalSpecConfig()
		}
		if !strings.HasPrefix(line, "#") && strings.Contains(line, ": 0x") {
			replaced, err := ReplaceHexStringWithYAMLFormat(line)
			if err != nil {
				return nil, errors.Wrapf(err, "could not convert line %d", i+1)
			}
			lines[i] = replaced
		}
	}
	yamlFile = []byte(strings.Join(lines, "\n"))
	if err := yaml.UnmarshalStrict(yamlFile, conf); err != nil {
		if _, ok := err.(*yaml.TypeError); !ok {
			return nil, errors.Wrap(err, "failed to parse chain config yaml file")
		}
		log.WithError(err).Error("There were some issues parsing the config from a yaml file")
	}
	if !hasConfigName {
		conf.ConfigName = "devnet"
	}
	// Recompute to handle non standard values of SlotsPerEpoch.
	conf.SqrRootSlotsPerEpoch = types.Slot(math.IntegerSquareRoot(uint64(conf.SlotsPerEpoch)))
	log.Debugf("Config file values: %+v", conf)
	return conf, nil
}

func isMinimalPresetLine(line string) bool {
	return strings.HasPrefix(line, "PRESET_BASE: 'minimal'") ||
		strings.HasPrefix(line, `PRESET_BASE: "minimal"`) ||
		strings.HasPrefix(line, "PRESET_BASE: minimal") ||
		strings.HasPrefix(line, "# Minimal preset")
}

// ReplaceHexStringWithYAMLFormat rewrites a `KEY: 0x...` line into a form the yaml parser
// understands. Single bytes become integers, longer values become byte sequences.
func ReplaceHexStringWithYAMLFormat(line string) (string, error) {
	parts := strings.SplitN(line, "0x", 2)
	raw := parts[1]
	if idx := strings.Index(raw, "#"); idx >= 0 {
		raw = raw[:idx]
	}
	raw = strings.Trim(strings.TrimSpace(raw), `'"`)
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode hex string")
	}
	key := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(parts[0]), `'"`))
	if len(decoded) == 1 {
		return fmt.Sprintf("%s %d", key, decoded[0]), nil
	}
	items := make([]string, len(decoded))
	for i, b := range decoded {
		items[i] = fmt.Sprintf("%d", b)
	}
	return fmt.Sprintf("%s [%s]", key, strings.Join(items, ", ")), nil
}

// ConfigToYaml takes a provided config and outputs its contents
// in yaml. Byte values are rendered as 0x prefixed hex strings.
func ConfigToYaml(cfg *BeaconChainConfig) []byte {
	var lines []string
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" {
			continue
		}
		f := v.Field(i)
		var val string
		switch {
		case f.Kind() == reflect.Array && f.Type().Elem().Kind() == reflect.Uint8:
			b := make([]byte, f.Len())
			reflect.Copy(reflect.ValueOf(b), f)
			val = "0x" + hex.EncodeToString(b)
		case f.Kind() == reflect.Slice && f.Type().Elem().Kind() == reflect.Uint8:
			val = "0x" + hex.EncodeToString(f.Bytes())
		case f.Kind() == reflect.Uint8:
			val = "0x" + hex.EncodeToString([]byte{uint8(f.Uint())})
		case f.Kind() == reflect.String:
			val = fmt.Sprintf("%q", f.String())
		default:
			val = fmt.Sprintf("%d", f.Uint())
		}
		lines = append(lines, fmt.Sprintf("%s: %s", tag, val))
	}
	return []byte(strings.Join(lines, "\n"))
}
