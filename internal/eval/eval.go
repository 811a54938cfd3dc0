// Package eval implements operator semantics for IR expression values.
//
// Integers of every width are carried as int64 and floats as float64;
// callers feed host values through Normalize before arithmetic.
package eval

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"coflow/internal/ir"
)

// ErrDivByZero is returned for integer division or modulo by zero.
var ErrDivByZero = errors.New("eval: division by zero")

// Normalize widens host numeric values to int64/float64.
func Normalize(v ir.Value) (ir.Value, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint:
		return safecast.Conv[int64](n)
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return safecast.Conv[int64](n)
	case float32:
		return float64(n), nil
	default:
		return v, nil
	}
}

// Truth interprets v as a branch condition.
func Truth(v ir.Value) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("eval: condition is %s, want bool", typeName(v))
	}
	return b, nil
}

// Unary applies op to x.
func Unary(op ir.UnaryOp, x ir.Value) (ir.Value, error) {
	x, err := Normalize(x)
	if err != nil {
		return nil, err
	}
	switch op {
	case ir.OpNeg:
		switch n := x.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
	case ir.OpNot:
		if b, ok := x.(bool); ok {
			return !b, nil
		}
	}
	return nil, fmt.Errorf("eval: operator %s not defined on %s", op, typeName(x))
}

// Binary applies a non-short-circuit operator to x and y. OpAnd and OpOr are
// accepted here with both operands already evaluated.
func Binary(op ir.BinaryOp, x, y ir.Value) (ir.Value, error) {
	x, err := Normalize(x)
	if err != nil {
		return nil, err
	}
	y, err = Normalize(y)
	if err != nil {
		return nil, err
	}

	switch op {
	case ir.OpEq:
		return equal(x, y), nil
	case ir.OpNe:
		return !equal(x, y), nil
	case ir.OpAnd, ir.OpOr:
		a, aok := x.(bool)
		b, bok := y.(bool)
		if !aok || !bok {
			return nil, mismatch(op, x, y)
		}
		if op == ir.OpAnd {
			return a && b, nil
		}
		return a || b, nil
	}

	switch a := x.(type) {
	case int64:
		b, ok := y.(int64)
		if !ok {
			if fb, isFloat := y.(float64); isFloat {
				return floatOp(op, float64(a), fb)
			}
			return nil, mismatch(op, x, y)
		}
		return intOp(op, a, b)
	case float64:
		switch b := y.(type) {
		case float64:
			return floatOp(op, a, b)
		case int64:
			return floatOp(op, a, float64(b))
		}
	case string:
		b, ok := y.(string)
		if !ok {
			break
		}
		switch op {
		case ir.OpAdd:
			return a + b, nil
		case ir.OpLt:
			return a < b, nil
		case ir.OpLe:
			return a <= b, nil
		case ir.OpGt:
			return a > b, nil
		case ir.OpGe:
			return a >= b, nil
		}
	}
	return nil, mismatch(op, x, y)
}

func intOp(op ir.BinaryOp, a, b int64) (ir.Value, error) {
	switch op {
	case ir.OpAdd:
		return a + b, nil
	case ir.OpSub:
		return a - b, nil
	case ir.OpMul:
		return a * b, nil
	case ir.OpDiv:
		if b == 0 {
			return nil, ErrDivByZero
		}
		return a / b, nil
	case ir.OpMod:
		if b == 0 {
			return nil, ErrDivByZero
		}
		return a % b, nil
	case ir.OpLt:
		return a < b, nil
	case ir.OpLe:
		return a <= b, nil
	case ir.OpGt:
		return a > b, nil
	case ir.OpGe:
		return a >= b, nil
	}
	return nil, fmt.Errorf("eval: operator %s not defined on int", op)
}

func floatOp(op ir.BinaryOp, a, b float64) (ir.Value, error) {
	switch op {
	case ir.OpAdd:
		return a + b, nil
	case ir.OpSub:
		return a - b, nil
	case ir.OpMul:
		return a * b, nil
	case ir.OpDiv:
		return a / b, nil
	case ir.OpLt:
		return a < b, nil
	case ir.OpLe:
		return a <= b, nil
	case ir.OpGt:
		return a > b, nil
	case ir.OpGe:
		return a >= b, nil
	}
	return nil, fmt.Errorf("eval: operator %s not defined on float", op)
}

func equal(x, y ir.Value) bool {
	switch a := x.(type) {
	case int64:
		if fb, ok := y.(float64); ok {
			return float64(a) == fb
		}
	case float64:
		if ib, ok := y.(int64); ok {
			return a == float64(ib)
		}
	}
	defer func() {
		// uncomparable dynamic types (slices, maps, funcs) compare unequal
		_ = recover()
	}()
	return x == y
}

func mismatch(op ir.BinaryOp, x, y ir.Value) error {
	return fmt.Errorf("eval: operator %s not defined on %s and %s", op, typeName(x), typeName(y))
}

func typeName(v ir.Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case int64:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case string:
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}
