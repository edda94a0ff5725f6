package qpu

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/common"
	"github.com/oqtopus-team/qsim/core"
	"github.com/oqtopus-team/qsim/gate"
	"github.com/oqtopus-team/qsim/qmath"
	"github.com/oqtopus-team/qsim/sim"
)

const (
	DefaultDeviceName   = "qsim"
	DefaultProviderName = "oqtopus"
	DefaultDeviceType   = "simulator"
	DefaultMaxShots     = 1_000_000
)

// DeviceSetting describes the limits the simulator advertises. It is read
// from the device setting file.
type DeviceSetting struct {
	DeviceName   string       `toml:"device_name"`
	DeviceType   string       `toml:"device_type"`
	ProviderName string       `toml:"provider_name"`
	MaxQubits    int          `toml:"max_qubits"`
	MaxShots     int          `toml:"max_shots"`
	GateSupport  *GateSupport `toml:"gate_support"`
}

type GateSupport struct {
	AllowList *GateFilter `toml:"allow_list"`
	DenyList  *GateFilter `toml:"deny_list"`
}

type GateFilter struct {
	Enabled bool     `toml:"enabled"`
	Gates   []string `toml:"gates"`
}

func (f *GateFilter) contains(k gate.Kind) bool {
	for _, g := range f.Gates {
		if g == k.String() {
			return true
		}
	}
	return false
}

// LoadDeviceSetting reads the device setting at path. A missing file yields
// the default setting.
func LoadDeviceSetting(path string) (*DeviceSetting, error) {
	blob, assetErr := common.ReadFile(path)
	ds := NewDeviceSetting()
	if assetErr != nil {
		zap.L().Info(fmt.Sprintf("Failed to read file:%s Reason:%s", path, assetErr))
		return ds, nil
	}
	if _, err := toml.Decode(blob, ds); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode blob:%s", blob))
		return &DeviceSetting{}, err
	}
	if ds.MaxQubits <= 0 || ds.MaxQubits > circuit.DefaultMaxQubits {
		return &DeviceSetting{}, fmt.Errorf("max_qubits(%d) must be in [1, %d]",
			ds.MaxQubits, circuit.DefaultMaxQubits)
	}
	if ds.MaxShots <= 0 {
		return &DeviceSetting{}, fmt.Errorf("max_shots(%d) must be greater than 0", ds.MaxShots)
	}
	return ds, nil
}

func NewDeviceSetting() *DeviceSetting {
	return &DeviceSetting{
		DeviceName:   DefaultDeviceName,
		DeviceType:   DefaultDeviceType,
		ProviderName: DefaultProviderName,
		MaxQubits:    circuit.DefaultMaxQubits,
		MaxShots:     DefaultMaxShots,
		GateSupport:  NewGateSupport(),
	}
}

func NewGateSupport() *GateSupport {
	return &GateSupport{
		AllowList: &GateFilter{},
		DenyList:  &GateFilter{},
	}
}

// check rejects circuits using a gate outside the allow list or inside the
// deny list. Disabled lists are ignored.
func (s *GateSupport) check(c *circuit.Circuit) error {
	if s == nil {
		return nil
	}
	for _, op := range c.Operations() {
		k := op.Gate.Kind()
		if s.AllowList != nil && s.AllowList.Enabled && !s.AllowList.contains(k) {
			return fmt.Errorf("gate %s is not in the allow list", k)
		}
		if s.DenyList != nil && s.DenyList.Enabled && s.DenyList.contains(k) {
			return fmt.Errorf("gate %s is in the deny list", k)
		}
	}
	return nil
}

// SimulatorSetting is the [com.simulator] section of the setting file.
type SimulatorSetting struct {
	DenseLimit int     `toml:"dense_limit"`
	Tolerance  float64 `toml:"tolerance"`
}

// GetSimulatorSetting returns the registered [com.simulator] setting or the
// defaults when none is registered.
func GetSimulatorSetting() *SimulatorSetting {
	if s, ok := core.GetComponentSetting(SIMULATOR_SETTING); ok {
		if ss, ok := s.(*SimulatorSetting); ok {
			return ss
		}
	}
	return NewDefaultSimulatorSetting()
}

func NewDefaultSimulatorSetting() *SimulatorSetting {
	return &SimulatorSetting{
		DenseLimit: sim.DefaultDenseLimit,
		Tolerance:  qmath.Tolerance,
	}
}
