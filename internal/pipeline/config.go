package pipeline

// RunConfiguration is the input of one run. Start takes a copy, so later
// changes never reach a run in progress.
type RunConfiguration struct {
	InputDir  string
	OutputDir string
	Filter    string // name filter, see NewGlobFilter
	Tool      string
	ToolArgs  string
}
