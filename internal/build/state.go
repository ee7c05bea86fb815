package build

import (
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/assemble"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/stage"
)

// ArtifactDirName is the directory under the output root where SiteBuilder
// keeps its own artifacts: emitted stage configurations and build reports.
// The clean plugin spares dot entries, so artifacts survive cleaning.
const ArtifactDirName = ".sitebuilder"

// BuildState carries everything phases share during one run.
type BuildState struct {
	ID        string
	Project   *config.Config
	Assembler *assemble.Assembler
	OutputDir string
	Stages    []stage.Stage
	// Resolved holds the finalized configuration per stage once the
	// assembly phase ran.
	Resolved map[stage.Stage]assemble.Resolved
	// Manifest is the asset manifest produced by the asset pass, consumed
	// by post-processing.
	Manifest map[string]string
	Report   *Report
	Recorder metrics.Recorder
	Observer BuildObserver
}

// ArtifactDir returns the artifact directory for this run.
func (bs *BuildState) ArtifactDir() string { return filepath.Join(bs.OutputDir, ArtifactDirName) }

// hasStage reports whether this run covers st.
func (bs *BuildState) hasStage(st stage.Stage) bool {
	for _, s := range bs.Stages {
		if s == st {
			return true
		}
	}
	return false
}
