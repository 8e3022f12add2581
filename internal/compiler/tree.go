package compiler

import (
	"encoding/json"
	"strings"
)

// Operators in increasing binding priority. The tree builder splits on the
// first of these that occurs at parenthesis depth 0.
var Operators = []string{
	"⇔", "⇒", "∨", "∧",
	"=", "≠", "⊂", "⊆", "⊄", "∈", "∉", "≥", "≤", ">", "<",
	"+", "-", "⋅", "/", "↑",
	"∩", "∪", "∖",
}

// Node is a binary expression tree node. A node with an empty Operator is a
// terminal holding Term.
type Node struct {
	Operator string
	Left     *Node
	Right    *Node
	Term     string
}

// IsTerminal reports whether n is a leaf.
func (n *Node) IsTerminal() bool {
	return n.Operator == ""
}

// Depth returns the number of levels below and including n.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	if n.IsTerminal() {
		return 1
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

type operatorNode struct {
	Operator string `json:"operator"`
	Left     *Node  `json:"left"`
	Right    *Node  `json:"right"`
}

type termNode struct {
	Term string `json:"term"`
}

// MarshalJSON writes {"operator","left","right"} or {"term"}.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.IsTerminal() {
		return json.Marshal(termNode{Term: n.Term})
	}
	return json.Marshal(operatorNode{Operator: n.Operator, Left: n.Left, Right: n.Right})
}

// UnmarshalJSON reads either node shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	var wire struct {
		Operator string          `json:"operator"`
		Left     json.RawMessage `json:"left"`
		Right    json.RawMessage `json:"right"`
		Term     string          `json:"term"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*n = Node{Operator: wire.Operator, Term: wire.Term}
	if wire.Operator == "" {
		return nil
	}
	n.Left, n.Right = &Node{}, &Node{}
	if err := json.Unmarshal(wire.Left, n.Left); err != nil {
		return err
	}
	return json.Unmarshal(wire.Right, n.Right)
}

// BuildTree parses a symbol string into a binary expression tree.
func BuildTree(expr string) *Node {
	expr = stripEnclosing(strings.TrimSpace(expr))
	runes := []rune(expr)

	for _, op := range Operators {
		opRunes := []rune(op)
		depth := 0
		for i := len(runes) - 1; i >= 0; i-- {
			switch runes[i] {
			case ')':
				depth++
			case '(':
				depth--
			default:
				if depth == 0 && hasRunesAt(runes, i, opRunes) {
					return &Node{
						Operator: op,
						Left:     BuildTree(string(runes[:i])),
						Right:    BuildTree(string(runes[i+len(opRunes):])),
					}
				}
			}
		}
	}
	return &Node{Term: expr}
}

func hasRunesAt(runes []rune, i int, op []rune) bool {
	if i+len(op) > len(runes) {
		return false
	}
	for j, r := range op {
		if runes[i+j] != r {
			return false
		}
	}
	return true
}

// stripEnclosing removes parenthesis pairs that wrap the whole string.
// "(a)(b)" is not wrapped: its first paren closes before the end.
func stripEnclosing(expr string) string {
	for len(expr) >= 2 && expr[0] == '(' && expr[len(expr)-1] == ')' {
		inner := expr[1 : len(expr)-1]
		depth := 0
		balanced := true
		for _, r := range inner {
			if r == '(' {
				depth++
			} else if r == ')' {
				depth--
			}
			if depth < 0 {
				balanced = false
				break
			}
		}
		if !balanced || depth != 0 {
			return expr
		}
		expr = strings.TrimSpace(inner)
	}
	return expr
}
