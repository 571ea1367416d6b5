//
// Copyright (c) 2025-2026 Tero Kallio
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"math"
	"strconv"
)

// WireType classifies a circuit wire.
type WireType byte

// Wire types.
const (
	Quantum WireType = iota
	Classical
)

func (t WireType) String() string {
	switch t {
	case Quantum:
		return "Quantum"
	case Classical:
		return "Classical"
	default:
		return fmt.Sprintf("{WireType %d}", t)
	}
}

// Kind specifies the operation kind.
type Kind byte

// Operation kinds. Rotation parameters are expressed in half-turns
// i.e. multiples of pi radians.
const (
	Input Kind = iota
	Output
	Noop
	H
	X
	Y
	Z
	S
	T
	CX
	CZ
	ZZMax
	ZZPhase
	Rx
	Ry
	Rz
	Measure
	Reset
)

var kindNames = map[Kind]string{
	Input:   "Input",
	Output:  "Output",
	Noop:    "Noop",
	H:       "H",
	X:       "X",
	Y:       "Y",
	Z:       "Z",
	S:       "S",
	T:       "T",
	CX:      "CX",
	CZ:      "CZ",
	ZZMax:   "ZZMax",
	ZZPhase: "ZZPhase",
	Rx:      "Rx",
	Ry:      "Ry",
	Rz:      "Rz",
	Measure: "Measure",
	Reset:   "Reset",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("{Kind %d}", byte(k))
	}
	return name
}

// NumParams returns the number of parameters the kind carries.
func (k Kind) NumParams() int {
	switch k {
	case Rx, Ry, Rz, ZZPhase:
		return 1
	default:
		return 0
	}
}

// Op is an operation tag: a kind and its parameter. Kinds without
// parameters leave Param zero.
type Op struct {
	Kind  Kind
	Param float64
}

// Gate creates a parameterless operation tag.
func Gate(kind Kind) Op {
	return Op{Kind: kind}
}

// Rotation creates a rotation operation about the argument axis with
// the parameter in half-turns.
func Rotation(kind Kind, param float64) Op {
	return Op{Kind: kind, Param: param}
}

func (op Op) String() string {
	if op.Kind.NumParams() == 0 {
		return op.Kind.String()
	}
	return op.Kind.String() +
		"(" + strconv.FormatFloat(op.Param, 'g', -1, 64) + ")"
}

var signatures = map[Kind][]WireType{
	Noop:    {Quantum},
	H:       {Quantum},
	X:       {Quantum},
	Y:       {Quantum},
	Z:       {Quantum},
	S:       {Quantum},
	T:       {Quantum},
	CX:      {Quantum, Quantum},
	CZ:      {Quantum, Quantum},
	ZZMax:   {Quantum, Quantum},
	ZZPhase: {Quantum, Quantum},
	Rx:      {Quantum},
	Ry:      {Quantum},
	Rz:      {Quantum},
	Measure: {Quantum, Classical},
	Reset:   {Quantum},
}

// Signature returns the operation's linear wire signature: position i
// names the wire type of both input and output port i. The boundary
// kinds Input and Output have no fixed signature and return nil.
func (op Op) Signature() []WireType {
	return signatures[op.Kind]
}

// SelfInverse tests if two adjacent instances of the operation cancel.
func (op Op) SelfInverse() bool {
	switch op.Kind {
	case H, X, Y, Z, CX, CZ:
		return true
	default:
		return false
	}
}

// IsRotation tests if the operation is a single-parameter rotation.
// Two adjacent rotations of the same kind fuse by parameter addition.
func (op Op) IsRotation() bool {
	return op.Kind.NumParams() == 1
}

// Dagger returns the inverse operation, or false if the operation has
// no inverse in the operation set.
func (op Op) Dagger() (Op, bool) {
	switch op.Kind {
	case Noop, H, X, Y, Z, CX, CZ:
		return op, true
	case Rx, Ry, Rz, ZZPhase:
		return Op{Kind: op.Kind, Param: -op.Param}, true
	case ZZMax:
		return Op{Kind: ZZPhase, Param: -0.5}, true
	default:
		return Op{}, false
	}
}

// Identity tests if the operation is trivial: a no-op, or a rotation
// whose parameter is congruent to zero modulo one full turn. The
// returned phase is the global phase, in half-turns, that removing
// the operation contributes.
func (op Op) Identity() (phase float64, ok bool) {
	switch op.Kind {
	case Noop:
		return 0, true
	case Rx, Ry, Rz, ZZPhase:
		if approxEq(op.Param, 0, 4) {
			return 0, true
		}
		if approxEq(op.Param, 2, 4) {
			return 1, true
		}
		return 0, false
	default:
		return 0, false
	}
}

const paramTolerance = 1e-11

// approxEq tests x == y modulo the argument modulus within tolerance.
func approxEq(x, y, modulo float64) bool {
	d := (x - y) / modulo
	d = d - math.Floor(d)
	r := modulo * d
	return r < paramTolerance || r > modulo-paramTolerance
}
