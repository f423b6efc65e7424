package store

import (
	"bufio"
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/cyicz123/wifisim/internal/config"
	"github.com/cyicz123/wifisim/internal/distribution"
	"github.com/iti/rngstream"
)

// Store is the read-only, load-once device parameter table. Models are
// held in file order so RandomDevice samples uniformly and reproducibly
// off the same table a fixed seed would draw from in the source.
type Store struct {
	hardware map[string]*HardwareProfile
	behavior map[string]map[Phase]*BehaviorProfile
	order    []string
}

// Load reads the hardware and behavior parameter files and cross-checks
// that every model has a behavior row for phases 0, 1 and 2.
func Load(hardwareFile, behaviorFile string) (*Store, error) {
	s := &Store{
		hardware: make(map[string]*HardwareProfile),
		behavior: make(map[string]map[Phase]*BehaviorProfile),
	}

	if err := s.loadHardware(hardwareFile); err != nil {
		return nil, err
	}
	if err := s.loadBehavior(behaviorFile); err != nil {
		return nil, err
	}

	for _, model := range s.order {
		phases, ok := s.behavior[model]
		if !ok {
			return nil, config.Newf(config.InvalidConfig, behaviorFile, 0,
				"model %q has no behavior rows at all", model)
		}
		for _, p := range []Phase{Locked, Awake, Active} {
			if _, ok := phases[p]; !ok {
				return nil, config.Newf(config.InvalidConfig, behaviorFile, 0,
					"model %q missing behavior row for phase %d", model, p)
			}
		}
	}
	return s, nil
}

func (s *Store) loadHardware(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return config.Newf(config.MissingResource, path, 0, "%v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for len(fields) < 9 {
			fields = append(fields, "")
		}

		vendor := strings.TrimSpace(fields[0])
		model := strings.TrimSpace(fields[1])
		if vendor == "" || model == "" {
			return config.Newf(config.InvalidConfig, path, lineNo, "missing vendor or model")
		}

		burst, err := distribution.Parse(fields[2])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "burst_lengths: %v", err)
		}

		policyInt, err := strconv.Atoi(strings.TrimSpace(fields[3]))
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "mac_policy: %v", err)
		}
		policy := MACPolicy(policyInt)
		if !policy.Valid() {
			return config.Newf(config.InvalidConfig, path, lineNo, "mac_policy %d outside 0..3", policyInt)
		}

		vht, err := decodeCapHex(fields[4])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "vht_cap: %v", err)
		}
		extCap, err := decodeCapHex(fields[5])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "ext_cap: %v", err)
		}
		htCap, err := decodeCapHex(fields[6])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "ht_cap: %v", err)
		}
		rates, err := decodeCapHex(fields[7])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "rates: %v", err)
		}
		extRates, err := decodeCapHex(fields[8])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "ext_rates: %v", err)
		}

		if _, present := s.hardware[model]; !present {
			s.order = append(s.order, model)
		}
		s.hardware[model] = &HardwareProfile{
			Vendor:      vendor,
			Model:       model,
			BurstLength: burst,
			MACPolicy:   policy,
			VHTCap:      vht,
			ExtCap:      extCap,
			HTCap:       htCap,
			Rates:       rates,
			ExtRates:    extRates,
		}
	}
	if err := scanner.Err(); err != nil {
		return config.Newf(config.IOFailure, path, lineNo, "%v", err)
	}
	if len(s.hardware) == 0 {
		return config.Newf(config.InvalidConfig, path, 0, "hardware file has no records")
	}
	return nil
}

// decodeCapHex decodes a lowercase hex capability field. "?" and "" both
// mean the field is absent (nil), matching vht_cap's documented meaning
// and the "missing trailing fields default to empty" rule for the rest.
func decodeCapHex(field string) ([]byte, error) {
	field = strings.TrimSpace(field)
	if field == "" || field == "?" {
		return nil, nil
	}
	return hex.DecodeString(field)
}

func (s *Store) loadBehavior(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return config.Newf(config.MissingResource, path, 0, "%v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 6 {
			return config.Newf(config.InvalidConfig, path, lineNo, "expected 6 fields, got %d", len(fields))
		}

		model := strings.TrimSpace(fields[0])
		phaseInt, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || phaseInt < 0 || phaseInt > 2 {
			return config.Newf(config.InvalidConfig, path, lineNo, "phase must be 0, 1 or 2")
		}

		intra, err := distribution.Parse(fields[2])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "intra_burst: %v", err)
		}
		inter, err := distribution.Parse(fields[3])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "inter_burst: %v", err)
		}
		dwell, err := distribution.Parse(fields[4])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "state_dwell: %v", err)
		}
		jitter, err := distribution.Parse(fields[5])
		if err != nil {
			return config.Newf(config.InvalidConfig, path, lineNo, "jitter: %v", err)
		}

		if _, present := s.behavior[model]; !present {
			s.behavior[model] = make(map[Phase]*BehaviorProfile)
		}
		s.behavior[model][Phase(phaseInt)] = &BehaviorProfile{
			Model:  model,
			Phase:  Phase(phaseInt),
			Intra:  intra,
			Inter:  inter,
			Dwell:  dwell,
			Jitter: jitter,
		}
	}
	if err := scanner.Err(); err != nil {
		return config.Newf(config.IOFailure, path, lineNo, "%v", err)
	}
	return nil
}

// Hardware returns the hardware profile for a model.
func (s *Store) Hardware(model string) (*HardwareProfile, bool) {
	hp, ok := s.hardware[model]
	return hp, ok
}

// Behavior returns the behavior profile for a (model, phase).
func (s *Store) Behavior(model string, phase Phase) (*BehaviorProfile, bool) {
	phases, ok := s.behavior[model]
	if !ok {
		return nil, false
	}
	bp, ok := phases[phase]
	return bp, ok
}

// RandomDevice picks a model uniformly at random across the whole table,
// grounded on the source's get_random_device.
func (s *Store) RandomDevice(rng *rngstream.RngStream) *HardwareProfile {
	idx := rng.RandInt(0, len(s.order)-1)
	return s.hardware[s.order[idx]]
}

// PickByVendor resolves a (vendor, model) query case/space-insensitively,
// falling back to a random model within the vendor, and finally to a
// random model across the whole table — grounded on the source's
// _pick_model_by_vendor.
func (s *Store) PickByVendor(rng *rngstream.RngStream, vendor, model string) *HardwareProfile {
	normVendor := normalize(vendor)
	normModel := normalize(model)

	var vendorMatches []string
	for _, m := range s.order {
		hp := s.hardware[m]
		if normalize(hp.Vendor) != normVendor {
			continue
		}
		vendorMatches = append(vendorMatches, m)
		if normModel != "" && normalize(hp.Model) == normModel {
			return hp
		}
	}
	if len(vendorMatches) > 0 {
		idx := rng.RandInt(0, len(vendorMatches)-1)
		return s.hardware[vendorMatches[idx]]
	}
	return s.RandomDevice(rng)
}

// Models returns every loaded model name, in file order.
func (s *Store) Models() []string {
	return append([]string{}, s.order...)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
