package xldash

// StepListener is notified around each pipeline step. Use it for progress
// reporting or per-step logging.
type StepListener interface {
	// BeforeStep is called before step index (0-based) of total starts.
	BeforeStep(name string, index, total int)

	// AfterStep is called when the step finished; err is nil on success.
	AfterStep(name string, index, total int, err error)
}
