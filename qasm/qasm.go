//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

// Package qasm reads and writes circuits in a subset of OpenQASM 2.0:
// register declarations, the gates of the operation set, measure, and
// reset. Classical control, barriers, and custom gate definitions are
// out of scope.
package qasm

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/teroka/qdag/circuit"
)

var gateKinds = map[string]circuit.Kind{
	"id":    circuit.Noop,
	"h":     circuit.H,
	"x":     circuit.X,
	"y":     circuit.Y,
	"z":     circuit.Z,
	"s":     circuit.S,
	"t":     circuit.T,
	"cx":    circuit.CX,
	"CX":    circuit.CX,
	"cz":    circuit.CZ,
	"rx":    circuit.Rx,
	"ry":    circuit.Ry,
	"rz":    circuit.Rz,
	"rzz":   circuit.ZZPhase,
	"reset": circuit.Reset,
}

var kindGates = map[circuit.Kind]string{
	circuit.Noop:    "id",
	circuit.H:       "h",
	circuit.X:       "x",
	circuit.Y:       "y",
	circuit.Z:       "z",
	circuit.S:       "s",
	circuit.T:       "t",
	circuit.CX:      "cx",
	circuit.CZ:      "cz",
	circuit.Rx:      "rx",
	circuit.Ry:      "ry",
	circuit.Rz:      "rz",
	circuit.ZZPhase: "rzz",
	circuit.Reset:   "reset",
}

type register struct {
	wt   circuit.WireType
	base int
	size int
}

type parser struct {
	b     *circuit.Builder
	regs  map[string]*register
	wires int
	err   error
}

// Parse reads an OpenQASM 2.0 program into a circuit. Recoverable
// statement errors are collected and reported together; unsupported
// constructs (barrier, if, gate, opaque) abort the parse.
func Parse(in io.Reader) (*circuit.Circuit, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data))
}

// ParseString parses an OpenQASM 2.0 program from a string.
func ParseString(source string) (*circuit.Circuit, error) {
	p := &parser{
		b:    circuit.NewBuilder(),
		regs: make(map[string]*register),
	}

	// Strip comments, then split the program into statements.
	var sb strings.Builder
	for _, line := range strings.Split(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	for idx, stmt := range strings.Split(sb.String(), ";") {
		stmt = strings.Join(strings.Fields(stmt), " ")
		if len(stmt) == 0 {
			continue
		}
		if p.fatal(stmt) {
			return nil, fmt.Errorf("statement %d: '%s' is not supported",
				idx, strings.Fields(stmt)[0])
		}
		if err := p.statement(stmt); err != nil {
			p.err = multierr.Append(p.err,
				fmt.Errorf("statement %d: %w", idx, err))
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.b.Finish()
}

func (p *parser) fatal(stmt string) bool {
	switch strings.Fields(stmt)[0] {
	case "barrier", "gate", "opaque":
		return true
	}
	return strings.HasPrefix(stmt, "if")
}

func (p *parser) statement(stmt string) error {
	head := strings.Fields(stmt)[0]
	switch head {
	case "OPENQASM":
		if stmt != "OPENQASM 2.0" {
			return fmt.Errorf("unsupported version: %s", stmt)
		}
		return nil
	case "include":
		return nil
	case "qreg":
		return p.declare(stmt[len(head):], circuit.Quantum)
	case "creg":
		return p.declare(stmt[len(head):], circuit.Classical)
	case "measure":
		return p.measure(stmt[len(head):])
	}
	return p.gate(stmt)
}

func (p *parser) declare(arg string, wt circuit.WireType) error {
	name, index, err := parseIndexed(arg)
	if err != nil {
		return err
	}
	if _, ok := p.regs[name]; ok {
		return fmt.Errorf("register %s already declared", name)
	}
	reg := &register{
		wt:   wt,
		base: p.wires,
		size: index,
	}
	p.regs[name] = reg
	p.wires += index
	for i := 0; i < index; i++ {
		if wt == circuit.Quantum {
			p.b.AddUnit(circuit.NewQubit(name, i))
		} else {
			p.b.AddUnit(circuit.NewBit(name, i))
		}
	}
	return nil
}

func (p *parser) wire(arg string) (int, error) {
	name, index, err := parseIndexed(arg)
	if err != nil {
		return 0, err
	}
	reg, ok := p.regs[name]
	if !ok {
		return 0, fmt.Errorf("unknown register %s", name)
	}
	if index < 0 || index >= reg.size {
		return 0, fmt.Errorf("index %d out of range for %s[%d]",
			index, name, reg.size)
	}
	return reg.base + index, nil
}

func (p *parser) measure(arg string) error {
	parts := strings.Split(arg, "->")
	if len(parts) != 2 {
		return fmt.Errorf("malformed measure: %s", arg)
	}
	q, err := p.wire(strings.TrimSpace(parts[0]))
	if err != nil {
		return err
	}
	c, err := p.wire(strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}
	_, err = p.b.Add(circuit.Gate(circuit.Measure), q, c)
	return err
}

func (p *parser) gate(stmt string) error {
	name := stmt
	var param float64
	if idx := strings.IndexByte(stmt, '('); idx >= 0 {
		end := strings.IndexByte(stmt, ')')
		if end < idx {
			return fmt.Errorf("malformed parameter list: %s", stmt)
		}
		var err error
		param, err = parseAngle(stmt[idx+1 : end])
		if err != nil {
			return err
		}
		name = stmt[:idx] + stmt[end+1:]
	}
	fields := strings.Fields(name)
	kind, ok := gateKinds[fields[0]]
	if !ok {
		return fmt.Errorf("unknown gate %s", fields[0])
	}
	if kind.NumParams() == 0 && param != 0 {
		return fmt.Errorf("gate %s takes no parameter", fields[0])
	}
	var wires []int
	for _, arg := range strings.Split(strings.Join(fields[1:], ""), ",") {
		w, err := p.wire(arg)
		if err != nil {
			return err
		}
		wires = append(wires, w)
	}
	_, err := p.b.Add(circuit.Op{Kind: kind, Param: param}, wires...)
	return err
}

// parseIndexed parses a subscripted name "name[index]".
func parseIndexed(arg string) (string, int, error) {
	arg = strings.TrimSpace(arg)
	open := strings.IndexByte(arg, '[')
	if open <= 0 || !strings.HasSuffix(arg, "]") {
		return "", 0, fmt.Errorf("malformed argument: %s", arg)
	}
	index, err := strconv.Atoi(arg[open+1 : len(arg)-1])
	if err != nil {
		return "", 0, fmt.Errorf("malformed argument %s: %w", arg, err)
	}
	return arg[:open], index, nil
}

// parseAngle evaluates an angle expression of literals and pi joined
// by * and /, and returns the angle in half-turns. Tracking the power
// of pi symbolically keeps expressions like 0.75*pi exact instead of
// going through radians and back.
func parseAngle(expr string) (float64, error) {
	expr = strings.Join(strings.Fields(expr), "")
	neg := false
	if strings.HasPrefix(expr, "-") {
		neg = true
		expr = expr[1:]
	}
	if len(expr) == 0 {
		return 0, fmt.Errorf("empty angle expression")
	}

	coef := 1.0
	pipow := 0
	op := byte('*')
	for len(expr) > 0 {
		end := strings.IndexAny(expr, "*/")
		if end < 0 {
			end = len(expr)
		} else if end == 0 {
			return 0, fmt.Errorf("malformed angle expression")
		}
		token := expr[:end]
		var value float64
		var pow int
		if token == "pi" {
			value, pow = 1, 1
		} else {
			var err error
			value, err = strconv.ParseFloat(token, 64)
			if err != nil {
				return 0, fmt.Errorf("malformed angle %s: %w", token, err)
			}
		}
		if op == '*' {
			coef *= value
			pipow += pow
		} else {
			coef /= value
			pipow -= pow
		}
		if end < len(expr) {
			op = expr[end]
			end++
		}
		expr = expr[end:]
	}

	var halfturns float64
	switch pipow {
	case 1:
		halfturns = coef
	case 0:
		halfturns = coef / math.Pi
	default:
		return 0, fmt.Errorf("unsupported power of pi: %d", pipow)
	}
	if neg {
		halfturns = -halfturns
	}
	return halfturns, nil
}

// Marshal writes the circuit as an OpenQASM 2.0 program in linearized
// order.
func Marshal(out io.Writer, c *circuit.Circuit) error {
	cmds, err := c.Commands()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "OPENQASM 2.0;\n")
	fmt.Fprintf(out, "include \"qelib1.inc\";\n")

	var names []string
	sizes := make(map[string]int)
	types := make(map[string]circuit.WireType)
	for _, uid := range c.Units() {
		if _, ok := sizes[uid.Name]; !ok {
			names = append(names, uid.Name)
			types[uid.Name] = uid.Type
		} else if types[uid.Name] != uid.Type {
			return fmt.Errorf("register %s has mixed wire types", uid.Name)
		}
		if uid.Index >= sizes[uid.Name] {
			sizes[uid.Name] = uid.Index + 1
		}
	}
	for _, name := range names {
		decl := "qreg"
		if types[name] == circuit.Classical {
			decl = "creg"
		}
		fmt.Fprintf(out, "%s %s[%d];\n", decl, name, sizes[name])
	}

	for _, cmd := range cmds {
		if err := marshalCommand(out, cmd); err != nil {
			return err
		}
	}
	return nil
}

func marshalCommand(out io.Writer, cmd circuit.Command) error {
	op := cmd.Op
	if op.Kind == circuit.Measure {
		fmt.Fprintf(out, "measure %s -> %s;\n", cmd.Args[0], cmd.Args[1])
		return nil
	}
	if op.Kind == circuit.ZZMax {
		op = circuit.Rotation(circuit.ZZPhase, 0.5)
	}
	name, ok := kindGates[op.Kind]
	if !ok {
		return fmt.Errorf("cannot marshal %s", op)
	}
	if op.Kind.NumParams() > 0 {
		name += "(" + formatAngle(op.Param) + ")"
	}
	args := make([]string, len(cmd.Args))
	for i, arg := range cmd.Args {
		args[i] = arg.String()
	}
	fmt.Fprintf(out, "%s %s;\n", name, strings.Join(args, ","))
	return nil
}

func formatAngle(halfturns float64) string {
	return strconv.FormatFloat(halfturns, 'g', -1, 64) + "*pi"
}
