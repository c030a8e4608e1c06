package ir

// Executable is a loaded Program. Execute runs Body once.
type Executable interface {
	Execute() error
}

// Backend compiles a Program into an Executable. Init runs during Compile.
type Backend interface {
	Compile(p *Program) (Executable, error)
}
