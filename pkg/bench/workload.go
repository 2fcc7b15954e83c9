package bench

// Case is a labelled benchmark that can be run by a Runner. Workload
// implements it for any argument type, so cases with different argument
// shapes can share a slice.
type Case interface {
	Label() string
	Run(r *Runner, iterations int) (Result, error)
}

// Workload binds an operation to the argument value it is invoked with.
type Workload[A any] struct {
	Name string
	Op   Operation[A]
	Args A
}

// NewWorkload returns a Workload named name that calls op(args).
func NewWorkload[A any](name string, op Operation[A], args A) *Workload[A] {
	return &Workload[A]{Name: name, Op: op, Args: args}
}

func (w *Workload[A]) Label() string {
	return w.Name
}

// Run times iterations invocations of the workload.
func (w *Workload[A]) Run(r *Runner, iterations int) (Result, error) {
	return run(r, w.Name, w.Op, iterations, w.Args)
}
