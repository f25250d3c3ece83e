package utils

import (
	"errors"
	"fmt"
	"os/exec"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// CheckDeps resolves every tool on PATH and returns the resolved paths. All
// missing tools are reported together.
func CheckDeps(names ...string) (map[string]string, error) {
	resolved := make([]string, len(names))
	missing := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			p, err := exec.LookPath(name)
			if err != nil {
				missing[i] = fmt.Errorf("%s: not found on PATH", name)
				return nil
			}
			resolved[i] = p
			return nil
		})
	}
	_ = g.Wait()

	found := make(map[string]string, len(names))
	for i, name := range names {
		if resolved[i] != "" {
			found[name] = resolved[i]
		}
	}
	return found, errors.Join(missing...)
}

// ToolNames lists the distinct executables configured for a run.
func (c RunConfig) ToolNames() []string {
	names := lo.Uniq(lo.Compact([]string{
		c.Tools.Basecaller, c.Tools.Barcoder, c.Tools.Aligner, c.Tools.Minimap2, c.Tools.VSearch,
		c.Tools.Trimmer, c.Tools.QC, c.Tools.Plotter,
	}))
	sort.Strings(names)
	return names
}
