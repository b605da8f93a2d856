// File path: internal/governor/governor.go
package governor

import (
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/activitylens/lens/internal/common"
)

// Sampler reports system memory utilization as a percentage.
type Sampler func() (float64, error)

// Governor gates work admission on system memory pressure. A caller that
// receives false must skip the current unit, not fail it; the unit stays
// eligible for a later pass.
type Governor struct {
	sample Sampler
}

// New returns a governor backed by gopsutil's virtual memory statistics.
func New() *Governor {
	return &Governor{sample: systemSample}
}

// NewWithSampler returns a governor with a caller-supplied sampler.
func NewWithSampler(sample Sampler) *Governor {
	return &Governor{sample: sample}
}

func systemSample() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// Healthy samples memory utilization and reports whether work should
// proceed. If the sampling facility is unavailable the governor fails open.
func (g *Governor) Healthy() bool {
	if g == nil || g.sample == nil {
		return true
	}
	percent, err := g.sample()
	if err != nil {
		return true
	}
	logger := common.Logger()
	switch {
	case percent > 95:
		logger.Warn("governor: very high memory usage", "percent", percent)
		return false
	case percent > 85:
		logger.Warn("governor: high memory usage", "percent", percent)
	case percent > 75:
		logger.Info("governor: elevated memory usage", "percent", percent)
	}
	return true
}
