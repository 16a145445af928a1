package types

import "errors"

// Case folding modes for grouping keys.
const (
	FoldAuto = "auto" // follow the OS convention: fold on windows and darwin
	FoldOn   = "on"
	FoldOff  = "off"
)

// Config holds the registry settings loaded by the CLI.
type Config struct {
	ExtraRoots []string `json:"extra_roots" yaml:"extra_roots"`
	ZedEnabled bool     `json:"zed_enabled" yaml:"zed_enabled"`
	ZedDBDir   string   `json:"zed_db_dir" yaml:"zed_db_dir"`
	FoldCase   string   `json:"fold_case" yaml:"fold_case"`
}

// Config validation errors.
var (
	ErrFoldCaseUnknown = errors.New("unknown fold_case value")
)

var knownFoldModes = map[string]bool{
	"":       true,
	FoldAuto: true,
	FoldOn:   true,
	FoldOff:  true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if !knownFoldModes[c.FoldCase] {
		return ErrFoldCaseUnknown
	}
	return nil
}
