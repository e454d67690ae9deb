package reclaim

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// engineProcessName is the substring identifying the storage engine in
// the process table.
const engineProcessName = "scylla"

// EngineRunning reports whether a storage engine process is currently
// running. Reclamation must never proceed while the engine owns the
// table directory. Processes whose name cannot be read (racing exits,
// permission boundaries) are skipped rather than treated as the engine.
func EngineRunning() (bool, error) {
	procs, err := process.Processes()
	if err != nil {
		return false, err
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if strings.Contains(name, engineProcessName) {
			return true, nil
		}
	}
	return false, nil
}
