// Package ouireg loads the IEEE OUI database and resolves vendor names to
// their 24-bit Organizationally Unique Identifier.
package ouireg

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/cyicz123/wifisim/internal/config"
)

// Entry is one vendor -> OUI mapping, in the order it was first seen in the
// source file (first-match-wins on both exact and prefix queries).
type Entry struct {
	OUI    [3]byte
	Vendor string
}

// Registry is a read-only, load-once mapping from normalized vendor name to
// OUI, plus the original-order list needed for first-match prefix queries.
type Registry struct {
	entries  []Entry
	byVendor map[string]Entry
}

func normalize(vendor string) string {
	return strings.Join(strings.Fields(strings.ToLower(vendor)), " ")
}

// Load reads an OUI database file. Two line formats are accepted on a
// per-line basis: the IEEE-published text form "HH-HH-HH   (hex)   Vendor
// Name", and a reduced tab-separated "HH-HH-HH\tVendor Name" projection —
// the latter is what the source's own oui_hex.txt actually uses. Blank
// lines and lines starting with '#' are skipped. On conflict the first
// entry for a vendor wins.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, config.Newf(config.MissingResource, path, 0, "%v", err)
	}
	defer f.Close()

	reg := &Registry{byVendor: make(map[string]Entry)}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var ouiStr, vendor string
		if tabFields := strings.Split(line, "\t"); len(tabFields) >= 2 {
			ouiStr = strings.TrimSpace(tabFields[0])
			if lead := strings.Fields(ouiStr); len(lead) > 0 {
				ouiStr = lead[0] // drop the IEEE form's "(hex)" column
			}
			vendor = strings.TrimSpace(tabFields[len(tabFields)-1])
		} else {
			fields := strings.Fields(line)
			if len(fields) < 3 {
				return nil, config.Newf(config.InvalidConfig, path, lineNo, "malformed OUI record %q", line)
			}
			ouiStr = fields[0]
			vendor = strings.Join(fields[2:], " ")
		}

		oui, err := parseOUI(ouiStr)
		if err != nil {
			return nil, config.Newf(config.InvalidConfig, path, lineNo, "%v", err)
		}

		entry := Entry{OUI: oui, Vendor: vendor}
		reg.entries = append(reg.entries, entry)

		key := normalize(vendor)
		if _, present := reg.byVendor[key]; !present {
			reg.byVendor[key] = entry
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, config.Newf(config.IOFailure, path, lineNo, "%v", err)
	}
	if len(reg.entries) == 0 {
		return nil, config.Newf(config.InvalidConfig, path, 0, "OUI database is empty")
	}
	return reg, nil
}

func parseOUI(s string) ([3]byte, error) {
	hexOnly := strings.ReplaceAll(strings.ReplaceAll(s, "-", ""), ":", "")
	if len(hexOnly) != 6 {
		return [3]byte{}, fmt.Errorf("OUI %q is not 3 octets", s)
	}
	raw, err := hex.DecodeString(hexOnly)
	if err != nil {
		return [3]byte{}, fmt.Errorf("OUI %q is not valid hex: %w", s, err)
	}
	return [3]byte{raw[0], raw[1], raw[2]}, nil
}

// Lookup resolves a vendor name, exact after normalization.
func (r *Registry) Lookup(vendor string) ([3]byte, string, bool) {
	entry, ok := r.byVendor[normalize(vendor)]
	if !ok {
		return [3]byte{}, "", false
	}
	return entry.OUI, entry.Vendor, true
}

// LookupPrefix performs the substring/prefix-tolerant vendor query described
// in §4.2: the first entry (in file order) whose normalized vendor name
// starts with the normalized query string wins. Falls back to a substring
// match if no prefix match exists, since the source's get_oui effectively
// behaves this way for multi-word vendor strings like "Samsung Electronics".
func (r *Registry) LookupPrefix(query string) ([3]byte, string, bool) {
	q := normalize(query)
	if q == "" {
		return [3]byte{}, "", false
	}
	for _, entry := range r.entries {
		if strings.HasPrefix(normalize(entry.Vendor), q) {
			return entry.OUI, entry.Vendor, true
		}
	}
	for _, entry := range r.entries {
		if strings.Contains(normalize(entry.Vendor), q) {
			return entry.OUI, entry.Vendor, true
		}
	}
	return [3]byte{}, "", false
}

// Len reports the number of distinct vendor entries loaded.
func (r *Registry) Len() int {
	return len(r.byVendor)
}
