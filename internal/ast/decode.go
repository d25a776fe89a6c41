package ast

import (
	"encoding/json"
	"fmt"

	"symexec/internal/execerr"
)

// wireNode is the JSON wire shape produced by an external AST parser: a
// flat "kind" discriminator plus kind-specific fields. cmd/symex's loader
// is the only consumer of this file; the engine itself only ever sees
// Stmt/Expr.
type wireNode struct {
	Kind string          `json:"kind"`
	Line int             `json:"line"`
	Col  int             `json:"col"`
	Raw  json.RawMessage `json:"-"`
}

// DecodeProgram parses a JSON-encoded list of top-level statements into the
// engine's AST. Any node kind outside the supported subset is
// rejected with execerr.UnsupportedAST, naming the offending kind and
// position.
func DecodeProgram(data []byte) ([]Stmt, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ast: decode program: %w", err)
	}
	return decodeStmts(raw)
}

func decodeStmts(raw []json.RawMessage) ([]Stmt, error) {
	out := make([]Stmt, 0, len(raw))
	for _, r := range raw {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func peekKind(raw json.RawMessage) (wireNode, error) {
	var w wireNode
	if err := json.Unmarshal(raw, &w); err != nil {
		return w, fmt.Errorf("ast: malformed node: %w", err)
	}
	return w, nil
}

func decodeStmt(raw json.RawMessage) (Stmt, error) {
	w, err := peekKind(raw)
	if err != nil {
		return nil, err
	}
	pos := Pos{Line: w.Line, Col: w.Col}
	switch w.Kind {
	case "Assign":
		var n struct {
			Target string          `json:"target"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{Base: Base{pos}, Target: n.Target, Value: v}, nil
	case "AugAssign":
		var n struct {
			Target string          `json:"target"`
			Op     string          `json:"op"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &AugAssign{Base: Base{pos}, Target: n.Target, Op: n.Op, Value: v}, nil
	case "FunctionDef":
		var n struct {
			Name     string                     `json:"name"`
			Params   []string                   `json:"params"`
			Defaults map[string]json.RawMessage `json:"defaults"`
			Body     []json.RawMessage          `json:"body"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		body, err := decodeStmts(n.Body)
		if err != nil {
			return nil, err
		}
		defaults := map[string]Expr{}
		for k, v := range n.Defaults {
			de, err := decodeExpr(v)
			if err != nil {
				return nil, err
			}
			defaults[k] = de
		}
		return &FunctionDef{Base: Base{pos}, Name: n.Name, Params: n.Params, Defaults: defaults, Body: body}, nil
	case "Expr":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Base: Base{pos}, Value: v}, nil
	case "Pass":
		return &Pass{Base: Base{pos}}, nil
	case "Return":
		var n struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		var v Expr
		if len(n.Value) > 0 {
			var err error
			v, err = decodeExpr(n.Value)
			if err != nil {
				return nil, err
			}
		}
		return &Return{Base: Base{pos}, Value: v}, nil
	case "If":
		var n struct {
			Test   json.RawMessage   `json:"test"`
			Body   []json.RawMessage `json:"body"`
			Orelse []json.RawMessage `json:"orelse"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		test, err := decodeExpr(n.Test)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(n.Body)
		if err != nil {
			return nil, err
		}
		orelse, err := decodeStmts(n.Orelse)
		if err != nil {
			return nil, err
		}
		return &If{Base: Base{pos}, Test: test, Body: body, Orelse: orelse}, nil
	case "While":
		var n struct {
			Test   json.RawMessage   `json:"test"`
			Body   []json.RawMessage `json:"body"`
			Orelse []json.RawMessage `json:"orelse"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		test, err := decodeExpr(n.Test)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(n.Body)
		if err != nil {
			return nil, err
		}
		orelse, err := decodeStmts(n.Orelse)
		if err != nil {
			return nil, err
		}
		return &While{Base: Base{pos}, Test: test, Body: body, Orelse: orelse}, nil
	case "Break":
		return &Break{Base: Base{pos}}, nil
	default:
		return nil, execerr.UnsupportedAST(w.Kind, pos.Line, pos.Col)
	}
}

func decodeExpr(raw json.RawMessage) (Expr, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("ast: empty expression")
	}
	w, err := peekKind(raw)
	if err != nil {
		return nil, err
	}
	pos := Pos{Line: w.Line, Col: w.Col}
	switch w.Kind {
	case "Num":
		var n struct {
			IsReal bool    `json:"is_real"`
			Int    int64   `json:"int"`
			Real   float64 `json:"real"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return &Num{Base: Base{pos}, IsReal: n.IsReal, Int: n.Int, Real: n.Real}, nil
	case "Str":
		var n struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return &Str{Base: Base{pos}, Value: n.Value}, nil
	case "Name":
		var n struct {
			Id string `json:"id"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return &Name{Base: Base{pos}, Id: n.Id}, nil
	case "List":
		var n struct {
			Elts []json.RawMessage `json:"elts"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		elts := make([]Expr, 0, len(n.Elts))
		for _, e := range n.Elts {
			ee, err := decodeExpr(e)
			if err != nil {
				return nil, err
			}
			elts = append(elts, ee)
		}
		return &ListExpr{Base: Base{pos}, Elts: elts}, nil
	case "BinOp":
		var n struct {
			Left  json.RawMessage `json:"left"`
			Op    string          `json:"op"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		l, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &BinOp{Base: Base{pos}, Left: l, Op: n.Op, Right: r}, nil
	case "UnaryOp":
		var n struct {
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		o, err := decodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Base: Base{pos}, Op: n.Op, Operand: o}, nil
	case "Compare":
		var n struct {
			Left        json.RawMessage   `json:"left"`
			Ops         []string          `json:"ops"`
			Comparators []json.RawMessage `json:"comparators"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		l, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		comps := make([]Expr, 0, len(n.Comparators))
		for _, c := range n.Comparators {
			ce, err := decodeExpr(c)
			if err != nil {
				return nil, err
			}
			comps = append(comps, ce)
		}
		return &Compare{Base: Base{pos}, Left: l, Ops: n.Ops, Comparators: comps}, nil
	case "BoolOp":
		var n struct {
			Op     string            `json:"op"`
			Values []json.RawMessage `json:"values"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		values := make([]Expr, 0, len(n.Values))
		for _, v := range n.Values {
			ve, err := decodeExpr(v)
			if err != nil {
				return nil, err
			}
			values = append(values, ve)
		}
		return &BoolOp{Base: Base{pos}, Op: n.Op, Values: values}, nil
	case "Call":
		var n struct {
			Callee   json.RawMessage            `json:"callee"`
			Args     []json.RawMessage          `json:"args"`
			Keywords map[string]json.RawMessage `json:"keywords"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		callee, err := decodeExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]Expr, 0, len(n.Args))
		for _, a := range n.Args {
			ae, err := decodeExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, ae)
		}
		kw := map[string]Expr{}
		for k, v := range n.Keywords {
			ke, err := decodeExpr(v)
			if err != nil {
				return nil, err
			}
			kw[k] = ke
		}
		return &Call{Base: Base{pos}, Callee: callee, Args: args, Keywords: kw}, nil
	case "Subscript":
		var n struct {
			Value   json.RawMessage `json:"value"`
			Index   json.RawMessage `json:"index"`
			IsSlice bool            `json:"is_slice"`
			Lo      json.RawMessage `json:"lo"`
			Hi      json.RawMessage `json:"hi"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		v, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		s := &Subscript{Base: Base{pos}, Value: v, IsSlice: n.IsSlice}
		if len(n.Index) > 0 {
			if s.Index, err = decodeExpr(n.Index); err != nil {
				return nil, err
			}
		}
		if len(n.Lo) > 0 {
			if s.Lo, err = decodeExpr(n.Lo); err != nil {
				return nil, err
			}
		}
		if len(n.Hi) > 0 {
			if s.Hi, err = decodeExpr(n.Hi); err != nil {
				return nil, err
			}
		}
		return s, nil
	case "ListComp":
		var n struct {
			Elt    json.RawMessage `json:"elt"`
			Target string          `json:"target"`
			Iter   json.RawMessage `json:"iter"`
		}
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		elt, err := decodeExpr(n.Elt)
		if err != nil {
			return nil, err
		}
		iter, err := decodeExpr(n.Iter)
		if err != nil {
			return nil, err
		}
		return &ListComp{Base: Base{pos}, Elt: elt, Target: n.Target, Iter: iter}, nil
	default:
		return nil, execerr.UnsupportedAST(w.Kind, pos.Line, pos.Col)
	}
}
