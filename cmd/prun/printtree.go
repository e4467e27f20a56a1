package main

import (
	"gopkg.in/yaml.v3"

	"prun/internal/graph"
)

// yamlTransition is the --print-only rendering of one Transition: just
// enough to inspect what would run and why, not a full round-trippable
// dump of the internal PathLiteral/Command structures.
type yamlTransition struct {
	Process  string   `yaml:"process"`
	Reason   string   `yaml:"reason"`
	Inputs   []string `yaml:"inputs,omitempty"`
	Outputs  []string `yaml:"outputs,omitempty"`
	Commands []string `yaml:"commands,omitempty"`
}

type yamlNode struct {
	Leaf       *yamlLeaf   `yaml:"leaf,omitempty"`
	Parallel   []*yamlNode `yaml:"parallel,omitempty"`
	Sequential []*yamlNode `yaml:"sequential,omitempty"`
}

type yamlLeaf struct {
	ID          string           `yaml:"id"`
	Transitions []yamlTransition `yaml:"transitions,omitempty"`
}

// printTree renders p the way the teacher's printDerivedFromRoot dumped a
// resolved devshell node tree to YAML: an internal model walked once into
// a plain, display-oriented shape and marshalled with yaml.v3.
func printTree(p *graph.Prepared, globalForce bool) ([]byte, error) {
	return yaml.Marshal(map[string]*yamlNode{p.ExecutionID: toYAMLNode(p.Root, globalForce)})
}

func toYAMLNode(n *graph.PreparedNode, globalForce bool) *yamlNode {
	if n == nil {
		return nil
	}
	out := &yamlNode{}
	if n.IsLeaf() {
		out.Leaf = toYAMLLeaf(n.Leaf, globalForce)
		return out
	}
	for _, c := range n.Parallel {
		out.Parallel = append(out.Parallel, toYAMLNode(c, globalForce))
	}
	for _, c := range n.Sequential {
		out.Sequential = append(out.Sequential, toYAMLNode(c, globalForce))
	}
	return out
}

func toYAMLLeaf(l *graph.PreparedLeaf, globalForce bool) *yamlLeaf {
	out := &yamlLeaf{ID: l.ID}
	for _, t := range l.Transitions {
		build, reason := graph.MustBuild(t, globalForce)
		if !build {
			continue
		}
		yt := yamlTransition{Process: t.ProcessID, Reason: reason.Tag()}
		for _, in := range t.Inputs {
			yt.Inputs = append(yt.Inputs, in.Path())
		}
		for _, o := range t.Outputs {
			yt.Outputs = append(yt.Outputs, o.Path())
		}
		for _, c := range t.Commands {
			yt.Commands = append(yt.Commands, c.Command.GetString())
		}
		out.Transitions = append(out.Transitions, yt)
	}
	return out
}
