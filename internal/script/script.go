package script

import "prun/internal/value"

// Script is the fully parsed, immutable (after parse) model of one
// `process.parallel` source file plus everything it `@include`d/
// `@import`ed (§3, §5: "script model ... is immutable after parse; shared
// read-only").
type Script struct {
	Flags Flags

	Scopes  *value.Scopes
	Dynamic value.DynamicSet

	Shells map[string]*Shell

	processOrder []string
	Processes    map[string]*Process

	executionOrder []string
	Executions     map[string]*Execution

	Verbosity string
}

// NewScript returns an empty Script with the default shell and the
// built-in dynamic variable names installed.
func NewScript() *Script {
	s := &Script{
		Scopes:     value.NewScopes(),
		Dynamic:    value.NewDynamicSet(),
		Shells:     map[string]*Shell{},
		Processes:  map[string]*Process{},
		Executions: map[string]*Execution{},
		Verbosity:  "WARN",
	}
	def := NewDefaultShell()
	s.Shells[def.ID] = def
	return s
}

func (s *Script) AddProcess(p *Process) error {
	if _, exists := s.Processes[p.ID]; exists {
		return newSyntaxError(p.Line, "duplicate process id %q", p.ID)
	}
	s.Processes[p.ID] = p
	s.processOrder = append(s.processOrder, p.ID)
	return nil
}

func (s *Script) AddExecution(e *Execution) error {
	if _, exists := s.Executions[e.ID]; exists {
		return newSyntaxError(e.Line, "duplicate execution id %q", e.ID)
	}
	s.Executions[e.ID] = e
	s.executionOrder = append(s.executionOrder, e.ID)
	return nil
}

// ProcessIDs returns process ids in declaration order.
func (s *Script) ProcessIDs() []string { return append([]string(nil), s.processOrder...) }

// ExecutionIDs returns execution ids in declaration order.
func (s *Script) ExecutionIDs() []string { return append([]string(nil), s.executionOrder...) }
