package plan

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/soapywu/pbxedit/internal/config"
	"github.com/soapywu/pbxedit/manifest"
	"github.com/soapywu/pbxedit/pbxproj"
)

// fileEnv is what a where expression sees for each file reference.
type fileEnv struct {
	ID   string `expr:"id"`
	Kind string `expr:"kind"`
	Name string `expr:"name"`
	Path string `expr:"path"`
}

// Select resolves a selector to file reference ids: named files first, in
// the order given, then every other file the where expression accepts.
func Select(files []pbxproj.FileInfo, sel config.Selector) ([]string, error) {
	var ids []string
	picked := make(map[string]struct{})
	pick := func(id string) {
		if _, ok := picked[id]; ok {
			return
		}
		picked[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, name := range sel.Files {
		found := false
		for _, f := range files {
			if f.Name == name {
				pick(f.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: file %q", manifest.ErrUnknownEntry, name)
		}
	}

	if sel.Where == "" {
		return ids, nil
	}
	program, err := expr.Compile(sel.Where, expr.Env(fileEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: where %q: %w", config.ErrInvalidPlan, sel.Where, err)
	}
	for _, f := range files {
		out, err := expr.Run(program, fileEnv{ID: f.ID, Kind: f.Kind, Name: f.Name, Path: f.Path})
		if err != nil {
			return nil, fmt.Errorf("where %q on %s: %w", sel.Where, f.Name, err)
		}
		if out.(bool) {
			pick(f.ID)
		}
	}
	return ids, nil
}
