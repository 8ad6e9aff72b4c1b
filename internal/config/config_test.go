package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
project = " ios/App.xcodeproj/project.pbxproj "
strict = true

[[dedupe]]
group = "Extensions"
collapse = true

[[add]]
path = "Sources/Call.swift"
group = "SDK"
targets = ["TelnyxRTC", " "]
compiler_flags = "-w"

[[group]]
files = ["TxClient.swift"]
group = "UITests"

[[assign]]
where = 'name endsWith "UITests.swift"'
targets = ["TelnyxWebRTCDemoUITests"]

[[remove]]
path = "Old.swift"
group = "SDK"
`

func TestParse(t *testing.T) {
	plan, err := Parse(samplePlan)
	require.NoError(t, err)

	assert.Equal(t, "ios/App.xcodeproj/project.pbxproj", plan.Project)
	assert.True(t, plan.Strict)
	assert.Equal(t, []DedupeStep{{Group: "Extensions", Collapse: true}}, plan.Dedupe)
	require.Len(t, plan.Add, 1)
	assert.Equal(t, []string{"TelnyxRTC"}, plan.Add[0].Targets)
	assert.Equal(t, "-w", plan.Add[0].CompilerFlags)
	assert.Equal(t, []string{"TxClient.swift"}, plan.Group[0].Files)
	assert.Equal(t, `name endsWith "UITests.swift"`, plan.Assign[0].Where)
	assert.Equal(t, 5, plan.Steps())
}

func TestParseDropsRepeatedNames(t *testing.T) {
	plan, err := Parse(`
[[assign]]
files = ["TxClient.swift", " TxClient.swift"]
targets = ["TelnyxRTC", "TelnyxRTC ", "TelnyxWebRTCDemo"]
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"TxClient.swift"}, plan.Assign[0].Files)
	assert.Equal(t, []string{"TelnyxRTC", "TelnyxWebRTCDemo"}, plan.Assign[0].Targets)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.toml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0644))

	plan, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "SDK", plan.Remove[0].Group)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "projekt = \"x\"",
		"add without group": "[[add]]\npath = \"a.swift\"",
		"add without path":  "[[add]]\ngroup = \"SDK\"",
		"assign no targets": "[[assign]]\nfiles = [\"a.swift\"]",
		"assign no files":   "[[assign]]\ntargets = [\"App\"]",
		"group no selector": "[[group]]\ngroup = \"SDK\"",
		"collapse no group": "[[dedupe]]\ncollapse = true",
		"remove no group":   "[[remove]]\npath = \"a.swift\"",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src)
			assert.True(t, errors.Is(err, ErrInvalidPlan), "%v", err)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse("[[add]\npath = ")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidPlan))
}
