// Package loader reads program documents for the CLI host. The core stays
// free of file IO; this package plays the host role, constructing the
// Program value from a YAML document via the builder.
//
// Document shape:
//
//	name: graph
//	relations:
//	  - name: edge
//	    columns:
//	      - {name: from, type: int}
//	      - {name: to, type: int}
//	facts:
//	  - {relation: edge, values: [1, 2]}
//	rules:
//	  - head: {relation: path, args: ["?f", "?t"]}
//	    body:
//	      - {relation: edge, args: ["?f", "?t"]}
//	outputs: [path]
//
// Inside rule arguments, "?name" denotes a variable and "_" a wildcard;
// every other scalar is a constant coerced against the declared column.
package loader

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/StarGazerM/datalchemy/ast"
	"github.com/StarGazerM/datalchemy/builder"
)

type programDoc struct {
	Name      string        `yaml:"name"`
	Relations []relationDoc `yaml:"relations"`
	Facts     []factDoc     `yaml:"facts"`
	Rules     []ruleDoc     `yaml:"rules"`
	Outputs   []string      `yaml:"outputs"`
}

type relationDoc struct {
	Name    string      `yaml:"name"`
	Columns []columnDoc `yaml:"columns"`
}

type columnDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type factDoc struct {
	Relation string `yaml:"relation"`
	Values   []any  `yaml:"values"`
}

type ruleDoc struct {
	Head literalDoc   `yaml:"head"`
	Body []literalDoc `yaml:"body"`
}

type literalDoc struct {
	Relation string `yaml:"relation"`
	Args     []any  `yaml:"args"`
}

// Load reads and parses the program document at path.
func Load(path string) (ast.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ast.Program{}, fmt.Errorf("read program: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Program from YAML document bytes.
func Parse(raw []byte) (ast.Program, error) {
	var doc programDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return ast.Program{}, fmt.Errorf("parse program: %w", err)
	}

	b := builder.New(doc.Name)
	for _, rel := range doc.Relations {
		cols := make([]ast.Column, len(rel.Columns))
		for i, c := range rel.Columns {
			t, ok := ast.ConstTypeFromString(c.Type)
			if !ok {
				return ast.Program{}, fmt.Errorf("relation %s, column %s: unknown type %q", rel.Name, c.Name, c.Type)
			}
			cols[i] = builder.Col(c.Name, t)
		}
		b.Decl(rel.Name, cols...)
	}
	for _, f := range doc.Facts {
		b.Fact(f.Relation, f.Values...)
	}
	for _, r := range doc.Rules {
		b.Rule(toLit(r.Head), toLits(r.Body)...)
	}
	b.Output(doc.Outputs...)
	return b.Program()
}

func toLits(docs []literalDoc) []builder.Lit {
	lits := make([]builder.Lit, len(docs))
	for i, d := range docs {
		lits[i] = toLit(d)
	}
	return lits
}

func toLit(d literalDoc) builder.Lit {
	args := make([]any, len(d.Args))
	for i, a := range d.Args {
		if s, ok := a.(string); ok {
			switch {
			case s == ast.Wildcard:
				args[i] = builder.W()
				continue
			case strings.HasPrefix(s, "?"):
				args[i] = builder.V(strings.TrimPrefix(s, "?"))
				continue
			}
		}
		args[i] = a
	}
	return builder.L(d.Relation, args...)
}
