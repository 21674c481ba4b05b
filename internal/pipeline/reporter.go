package pipeline

// Reporter receives operator-facing progress from a run.
type Reporter interface {
	// Progress is called after every successful stage transition.
	Progress(stage Stage, detail string)

	// Warn surfaces a recovered failure. err is the underlying cause.
	Warn(message string, err error)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Progress(Stage, string) {}
func (NopReporter) Warn(string, error)     {}
