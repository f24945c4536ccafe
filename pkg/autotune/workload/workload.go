// Package workload resolves operator workload and storage hints into
// canonical values and the per-workload tuning table the calculator uses.
package workload

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/pgautotune/pkg/autotune/types"
)

// RawHints holds hint values exactly as the operator supplied them.
type RawHints struct {
	Workload string
	Storage  string
}

var workloadAliases = map[string]types.WorkloadType{
	"mixed":      types.WorkloadMixed,
	"hybrid":     types.WorkloadMixed,
	"web":        types.WorkloadWeb,
	"webapp":     types.WorkloadWeb,
	"oltp":       types.WorkloadOLTP,
	"analytical": types.WorkloadAnalytical,
	"analytics":  types.WorkloadAnalytical,
	"olap":       types.WorkloadAnalytical,
	"dw":         types.WorkloadAnalytical,
}

var storageAliases = map[string]types.StorageType{
	"ssd":              types.StorageSSD,
	"nvme":             types.StorageSSD,
	"flash":            types.StorageSSD,
	"hdd":              types.StorageHDD,
	"spinning":         types.StorageHDD,
	"disk":             types.StorageHDD,
	"network-attached": types.StorageNetwork,
	"network":          types.StorageNetwork,
	"san":              types.StorageNetwork,
	"nas":              types.StorageNetwork,
	"ebs":              types.StorageNetwork,
}

// Classify resolves raw hints. It never fails: missing or unrecognized values
// resolve to the defaults and each such substitution is described in the
// returned notes.
func Classify(raw RawHints) (types.WorkloadHints, []string) {
	hints := types.DefaultHints()
	var notes []string

	if key := normalize(raw.Workload); key != "" {
		if w, ok := workloadAliases[key]; ok {
			hints.Workload = w
		} else {
			notes = append(notes, fmt.Sprintf("unrecognized workload %q, using %s", raw.Workload, hints.Workload))
		}
	}

	if key := normalize(raw.Storage); key != "" {
		if s, ok := storageAliases[key]; ok {
			hints.Storage = s
		} else {
			notes = append(notes, fmt.Sprintf("unrecognized storage %q, using %s", raw.Storage, hints.Storage))
		}
	}

	return hints, notes
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", "-")
}
