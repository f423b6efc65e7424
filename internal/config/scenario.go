package config

import (
	"encoding/json"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// DatasetType selects the engine's bootstrapping mode (§4.6).
type DatasetType string

const (
	DatasetMulti         DatasetType = "multi"
	DatasetSingleSwitch  DatasetType = "single_switch"
	DatasetSingleLocked  DatasetType = "single_locked"
	DatasetSingleAwake   DatasetType = "single_awake"
	DatasetSingleActive  DatasetType = "single_active"
	DatasetSingleStatic  DatasetType = "single_static"
)

// MACRotationMode selects when a device's MAC address is replaced (§3, §4.3).
type MACRotationMode string

const (
	RotationPerBurst MACRotationMode = "per_burst"
	RotationPerPhase MACRotationMode = "per_phase"
	RotationInterval MACRotationMode = "interval"
)

// Scenario holds every tunable named in spec §6 "Scenario parameters",
// loadable from YAML or JSON by file extension exactly as the teacher's
// ExpCfg.WriteToFile/ReadExpCfg pair does, simplified to a flat struct
// since this domain has no need for ExpCfg's attribute-matching machinery
// (see DESIGN.md).
type Scenario struct {
	DatasetType DatasetType `yaml:"datasetType" json:"datasetType"`

	DurationSeconds float64 `yaml:"durationSeconds" json:"durationSeconds"`
	Realtime        bool    `yaml:"realtime" json:"realtime"`
	Seed            string  `yaml:"seed" json:"seed"`

	// multi-device bootstrapping
	CreationCount         int     `yaml:"creationCount" json:"creationCount"`
	CreationIntervalMean  float64 `yaml:"creationIntervalMean" json:"creationIntervalMean"`
	PermanenceMean        float64 `yaml:"permanenceMean" json:"permanenceMean"`

	// single-device bootstrapping
	SingleVendor       string `yaml:"singleVendor" json:"singleVendor"`
	SingleModel        string `yaml:"singleModel" json:"singleModel"`
	SinglePhase        int    `yaml:"singlePhase" json:"singlePhase"`
	AllowStateSwitch   bool   `yaml:"allowStateSwitch" json:"allowStateSwitch"`

	// global multipliers and knobs, §6
	CreationIntervalMultiplier float64         `yaml:"creationIntervalMultiplier" json:"creationIntervalMultiplier"`
	BurstIntervalMultiplier    float64         `yaml:"burstIntervalMultiplier" json:"burstIntervalMultiplier"`
	DwellMultiplier            float64         `yaml:"dwellMultiplier" json:"dwellMultiplier"`
	EnvFactor                  float64         `yaml:"envFactor" json:"envFactor"`
	InterferenceProb           float64         `yaml:"interferenceProb" json:"interferenceProb"`
	QASampleRate               float64         `yaml:"qaSampleRate" json:"qaSampleRate"`
	MACRotationMode            MACRotationMode `yaml:"macRotationMode" json:"macRotationMode"`
	RotationIntervalSeconds    float64         `yaml:"rotationIntervalSeconds" json:"rotationIntervalSeconds"`
	MobilitySpeedMultiplier    float64         `yaml:"mobilitySpeedMultiplier" json:"mobilitySpeedMultiplier"`

	// auto-tune search space, §4.8
	ScaleBetween  float64 `yaml:"scaleBetween" json:"scaleBetween"`
	SpreadBetween float64 `yaml:"spreadBetween" json:"spreadBetween"`
	BurstGamma    float64 `yaml:"burstGamma" json:"burstGamma"`

	// file paths
	HardwareFile string `yaml:"hardwareFile" json:"hardwareFile"`
	BehaviorFile string `yaml:"behaviorFile" json:"behaviorFile"`
	OUIFile      string `yaml:"ouiFile" json:"ouiFile"`
	OutputPrefix string `yaml:"outputPrefix" json:"outputPrefix"`
}

// Default returns a Scenario with every multiplier and tunable at its
// spec-named default value.
func Default() *Scenario {
	return &Scenario{
		DatasetType:                DatasetMulti,
		DurationSeconds:            60,
		CreationCount:              10,
		CreationIntervalMean:       5,
		PermanenceMean:             60,
		SinglePhase:                2,
		AllowStateSwitch:           true,
		CreationIntervalMultiplier: 1.0,
		BurstIntervalMultiplier:    1.0,
		DwellMultiplier:            1.0,
		EnvFactor:                  1.0,
		InterferenceProb:           0.0,
		QASampleRate:               0.0,
		MACRotationMode:            RotationPerBurst,
		RotationIntervalSeconds:    5.0,
		MobilitySpeedMultiplier:    1.0,
		ScaleBetween:               1.0,
		SpreadBetween:              1.0,
		BurstGamma:                 1.0,
		OutputPrefix:               "wifisim_run",
	}
}

// WriteToFile stores the Scenario to the file whose name is given.
// Serialization to json or yaml is selected by the extension, mirroring
// the teacher's ExpCfg.WriteToFile.
func (s *Scenario) WriteToFile(filename string) error {
	ext := path.Ext(filename)
	var bytes []byte
	var err error

	switch ext {
	case ".yaml", ".YAML", ".yml":
		bytes, err = yaml.Marshal(*s)
	case ".json", ".JSON":
		bytes, err = json.MarshalIndent(*s, "", "\t")
	default:
		return Newf(InvalidConfig, filename, 0, "unrecognized scenario file extension %q", ext)
	}
	if err != nil {
		return Newf(IOFailure, filename, 0, "marshal scenario: %v", err)
	}
	if err := os.WriteFile(filename, bytes, 0o644); err != nil {
		return Newf(IOFailure, filename, 0, "write scenario: %v", err)
	}
	return nil
}

// ReadScenario deserializes a Scenario from the named file, selecting
// json/yaml by extension.
func ReadScenario(filename string) (*Scenario, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, Newf(MissingResource, filename, 0, "%v", err)
	}

	s := Default()
	ext := path.Ext(filename)
	switch ext {
	case ".yaml", ".YAML", ".yml":
		err = yaml.Unmarshal(raw, s)
	case ".json", ".JSON":
		err = json.Unmarshal(raw, s)
	default:
		return nil, Newf(InvalidConfig, filename, 0, "unrecognized scenario file extension %q", ext)
	}
	if err != nil {
		return nil, Newf(InvalidConfig, filename, 0, "parse scenario: %v", err)
	}
	return s, nil
}
