package status

import "time"

// SourcePhase is the outcome of one source in a run
type SourcePhase string

const (
	// SourcePhasePublished means the feed file was written and indexed
	SourcePhasePublished SourcePhase = "Published"

	// SourcePhaseFailed means the source was skipped
	SourcePhaseFailed SourcePhase = "Failed"
)

// SourceStatus records what happened to one source
type SourceStatus struct {
	Name  string      `json:"name"`
	Phase SourcePhase `json:"phase"`

	// URL is the published location of the feed
	URL string `json:"url,omitempty"`

	// Hash is the sha256 of the raw upstream bytes
	Hash string `json:"hash,omitempty"`

	SiteCount     int  `json:"siteCount,omitempty"`
	SitesRemoved  int  `json:"sitesRemoved,omitempty"`
	AssetMirrored bool `json:"assetMirrored,omitempty"`

	// Stage, Reason and Message describe a failure
	Stage   string `json:"stage,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// RunStatus is the report of the most recent run over an output directory
type RunStatus struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// CommitHash is set when the run committed its output
	CommitHash string `json:"commitHash,omitempty"`

	// Sources are in configured order
	Sources []SourceStatus `json:"sources"`
}

// Counts returns the number of published and failed sources
func (s *RunStatus) Counts() (published, failed int) {
	for _, src := range s.Sources {
		switch src.Phase {
		case SourcePhasePublished:
			published++
		case SourcePhaseFailed:
			failed++
		}
	}
	return published, failed
}
