package vpn

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yllada/tunnel-tray/common"
)

// DiscoverInstances returns the sorted, de-duplicated instance names found
// by pattern. Each match contributes its file name without extension.
func DiscoverInstances(pattern string) ([]string, error) {
	matches, err := filepath.Glob(common.ExpandHome(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid config location %q: %w", pattern, err)
	}

	seen := make(map[string]bool, len(matches))
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		base := filepath.Base(match)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// HasInstance reports whether name is among the instances found by pattern.
func HasInstance(pattern, name string) (bool, error) {
	names, err := DiscoverInstances(pattern)
	if err != nil {
		return false, err
	}
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name, nil
}
