// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenario describes a tree of painted nodes and a sequence of
// paint passes that mutate it, and runs them against a paint.Controller.
//
// Scenarios are written in YAML or TOML:
//
//	name: list
//	nodes:
//	  - name: list
//	    kind: group
//	    subsequence: true
//	    children:
//	      - {name: row1, kind: box, rect: [0, 0, 100, 20], color: [1, 0, 0, 1]}
//	      - {name: row2, kind: text, rect: [0, 20, 100, 40], text: "hello"}
//	passes:
//	  - name: initial
//	  - name: reorder
//	    mutations:
//	      - {op: move, node: row2, index: 0}
//	    expect: {out_of_order: 2}
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownFormat is returned for files that are neither YAML nor TOML.
	ErrUnknownFormat = errors.New("scenario: unknown format")
	// ErrUnknownNode is returned for a mutation naming a node that does
	// not exist when it is applied.
	ErrUnknownNode = errors.New("scenario: unknown node")
	// ErrInvalid is returned for scenarios that fail validation.
	ErrInvalid = errors.New("scenario: invalid")
	// ErrExpectation is returned when a pass's statistics differ from its
	// expectation.
	ErrExpectation = errors.New("scenario: expectation failed")
)

// Format is a scenario file syntax.
type Format string

// Supported formats.
const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Node kinds.
const (
	KindGroup = "group"
	KindBox   = "box"
	KindText  = "text"
	KindImage = "image"
)

// Mutation operations.
const (
	OpInvalidate    = "invalidate"
	OpUpdate        = "update"
	OpMove          = "move"
	OpRemove        = "remove"
	OpAdd           = "add"
	OpInvalidateAll = "invalidate_all"
	OpSkipCache     = "skip_cache"
)

// Node is a painted element. Rect is [x0, y0, x1, y1] in the parent's
// space and Color is [r, g, b, a].
type Node struct {
	Name        string    `yaml:"name" toml:"name"`
	Kind        string    `yaml:"kind" toml:"kind"`
	Rect        []int     `yaml:"rect" toml:"rect"`
	Color       []float64 `yaml:"color" toml:"color"`
	Text        string    `yaml:"text" toml:"text"`
	Image       uint32    `yaml:"image" toml:"image"`
	Subsequence bool      `yaml:"subsequence" toml:"subsequence"`
	SkipCache   bool      `yaml:"skip_cache" toml:"skip_cache"`

	// Translate moves the node and its children by [dx, dy].
	Translate []float64 `yaml:"translate" toml:"translate"`
	// Clip, in the node's space, clips the children.
	Clip    []int    `yaml:"clip" toml:"clip"`
	Opacity *float32 `yaml:"opacity" toml:"opacity"`

	Children []*Node `yaml:"children" toml:"children"`
}

// Mutation changes the tree before a pass is painted.
type Mutation struct {
	Op   string `yaml:"op" toml:"op"`
	Node string `yaml:"node" toml:"node"`

	// Parent and Index place moved and added nodes. An empty parent is the
	// root list; an index out of range appends.
	Parent string `yaml:"parent" toml:"parent"`
	Index  *int   `yaml:"index" toml:"index"`
	Add    *Node  `yaml:"add" toml:"add"`

	// Update fields. Silent leaves the node's cache valid, simulating a
	// painter that forgot to invalidate.
	Text   *string   `yaml:"text" toml:"text"`
	Color  []float64 `yaml:"color" toml:"color"`
	Silent bool      `yaml:"silent" toml:"silent"`

	// Value is the new skip-cache state for OpSkipCache.
	Value bool `yaml:"value" toml:"value"`
}

// Expect lists the statistics a pass must produce. Nil fields are not
// checked.
type Expect struct {
	Sequential *int `yaml:"sequential" toml:"sequential"`
	OutOfOrder *int `yaml:"out_of_order" toml:"out_of_order"`
	Cached     *int `yaml:"cached" toml:"cached"`
	Items      *int `yaml:"items" toml:"items"`
}

// Pass is one paint pass.
type Pass struct {
	Name      string     `yaml:"name" toml:"name"`
	Mutations []Mutation `yaml:"mutations" toml:"mutations"`
	Expect    *Expect    `yaml:"expect" toml:"expect"`
}

// Scenario is a node tree and the passes painted over it.
type Scenario struct {
	Name   string  `yaml:"name" toml:"name"`
	Nodes  []*Node `yaml:"nodes" toml:"nodes"`
	Passes []Pass  `yaml:"passes" toml:"passes"`
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read: %w", err)
	}
	sc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario. Unknown fields are errors.
func Parse(data []byte, format Format) (*Scenario, error) {
	var sc Scenario
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&sc); err != nil {
			return nil, fmt.Errorf("scenario: decode yaml: %w", err)
		}
	case TOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&sc); err != nil {
			return nil, fmt.Errorf("scenario: decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks node definitions and mutation operations. Node
// references in mutations are checked when the pass runs.
func (sc *Scenario) Validate() error {
	seen := make(map[string]bool)
	var checkNode func(n *Node) error
	checkNode = func(n *Node) error {
		if n == nil || n.Name == "" {
			return fmt.Errorf("%w: node without name", ErrInvalid)
		}
		if seen[n.Name] {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalid, n.Name)
		}
		seen[n.Name] = true
		if err := n.validate(); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := checkNode(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range sc.Nodes {
		if err := checkNode(n); err != nil {
			return err
		}
	}

	for i, p := range sc.Passes {
		for j, m := range p.Mutations {
			if err := m.validate(); err != nil {
				return fmt.Errorf("pass %d mutation %d: %w", i, j, err)
			}
			if m.Op == OpAdd {
				if err := checkNode(m.Add); err != nil {
					return fmt.Errorf("pass %d mutation %d: %w", i, j, err)
				}
			}
		}
	}
	return nil
}

func (n *Node) validate() error {
	switch n.Kind {
	case "", KindGroup, KindBox, KindText, KindImage:
	default:
		return fmt.Errorf("%w: node %q: unknown kind %q", ErrInvalid, n.Name, n.Kind)
	}
	if n.Rect != nil && len(n.Rect) != 4 {
		return fmt.Errorf("%w: node %q: rect needs 4 values", ErrInvalid, n.Name)
	}
	if n.Clip != nil && len(n.Clip) != 4 {
		return fmt.Errorf("%w: node %q: clip needs 4 values", ErrInvalid, n.Name)
	}
	if n.Color != nil && len(n.Color) != 4 {
		return fmt.Errorf("%w: node %q: color needs 4 values", ErrInvalid, n.Name)
	}
	if n.Translate != nil && len(n.Translate) != 2 {
		return fmt.Errorf("%w: node %q: translate needs 2 values", ErrInvalid, n.Name)
	}
	if n.Opacity != nil && (*n.Opacity < 0 || *n.Opacity > 1) {
		return fmt.Errorf("%w: node %q: opacity out of [0, 1]", ErrInvalid, n.Name)
	}
	return nil
}

func (m *Mutation) validate() error {
	switch m.Op {
	case OpInvalidateAll:
		return nil
	case OpAdd:
		if m.Add == nil {
			return fmt.Errorf("%w: add without node", ErrInvalid)
		}
		return nil
	case OpInvalidate, OpUpdate, OpMove, OpRemove, OpSkipCache:
		if m.Node == "" {
			return fmt.Errorf("%w: %s without node", ErrInvalid, m.Op)
		}
		if m.Color != nil && len(m.Color) != 4 {
			return fmt.Errorf("%w: color needs 4 values", ErrInvalid)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalid, m.Op)
}

// clone deep-copies n so a run never modifies the parsed scenario.
func (n *Node) clone() *Node {
	c := *n
	c.Rect = append([]int(nil), n.Rect...)
	c.Color = append([]float64(nil), n.Color...)
	c.Translate = append([]float64(nil), n.Translate...)
	c.Clip = append([]int(nil), n.Clip...)
	if n.Opacity != nil {
		o := *n.Opacity
		c.Opacity = &o
	}
	c.Children = make([]*Node, len(n.Children))
	for i, ch := range n.Children {
		c.Children[i] = ch.clone()
	}
	return &c
}
