package core

// JumpTarget is an explicit routing directive emitted by a middleware hook. It
// overrides the statically wired successor of the emitting node.
type JumpTarget string

const (
	// JumpModel re-enters the model phase at the pipeline's first node.
	JumpModel JumpTarget = "model"
	// JumpTools routes to the tool execution node.
	JumpTools JumpTarget = "tools"
	// JumpEnd terminates the turn. Its value equals graph.END.
	JumpEnd JumpTarget = "__end__"
)

// IsZero reports whether no directive is present.
func (j JumpTarget) IsZero() bool { return j == "" }

// String implements fmt.Stringer.
func (j JumpTarget) String() string { return string(j) }
