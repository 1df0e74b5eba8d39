// Package filter implements the structured predicate algebra of
// a tree of comparison and logical nodes over
// Fsentry fields, its validator, and its in-memory evaluator.
//
// A filter is represented as *Node; a nil *Node is the NULL filter,
// which matches every entry.
package filter

import (
	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
)

// Operator is either a comparison or a logical filter operator.
type Operator int

const (
	// Comparison operators.
	OpEqual Operator = iota
	OpStrictlyLower
	OpLowerOrEqual
	OpStrictlyGreater
	OpGreaterOrEqual
	OpRegexMatch
	OpIn
	OpExists
	OpBitsAnySet
	OpBitsAllSet
	OpBitsAnyClear
	OpBitsAllClear

	// Logical operators.
	OpAnd
	OpOr
	OpNot
)

// IsComparison reports whether op is a comparison operator.
func (op Operator) IsComparison() bool { return op <= OpBitsAllClear }

// IsLogical reports whether op is a logical operator.
func (op Operator) IsLogical() bool { return op == OpAnd || op == OpOr || op == OpNot }

func (op Operator) String() string {
	switch op {
	case OpEqual:
		return "equal"
	case OpStrictlyLower:
		return "strictly-lower"
	case OpLowerOrEqual:
		return "lower-or-equal"
	case OpStrictlyGreater:
		return "strictly-greater"
	case OpGreaterOrEqual:
		return "greater-or-equal"
	case OpRegexMatch:
		return "regex-match"
	case OpIn:
		return "in"
	case OpExists:
		return "exists"
	case OpBitsAnySet:
		return "bits-any-set"
	case OpBitsAllSet:
		return "bits-all-set"
	case OpBitsAnyClear:
		return "bits-any-clear"
	case OpBitsAllClear:
		return "bits-all-clear"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	default:
		return "unknown"
	}
}

// FieldKind is the kind of Fsentry property a comparison Field
// addresses.
type FieldKind int

const (
	FieldID FieldKind = iota
	FieldParentID
	FieldName
	FieldSymlink
	FieldStatx
	FieldNamespaceXattr
	FieldInodeXattr
)

// Field addresses exactly one Fsentry property: id, parent_id, name,
// symlink, a sub-bit of the statx mask, a named namespace xattr, or a
// named inode xattr.
type Field struct {
	Kind FieldKind
	// StatxBit is meaningful only when Kind == FieldStatx and must be
	// exactly one bit of rfs.StatxMask.
	StatxBit rfs.StatxMask
	// Name is meaningful only for FieldNamespaceXattr/FieldInodeXattr.
	Name string
}

// Node is one comparison or logical node of a filter tree. A nil
// *Node is the NULL filter.
type Node struct {
	Op       Operator
	Field    Field
	Value    *rfs.Value
	Children []*Node
}

// Comparison builds a comparison node.
func Comparison(op Operator, field Field, value *rfs.Value) *Node {
	return &Node{Op: op, Field: field, Value: value}
}

// And builds a logical AND node.
func And(children ...*Node) *Node { return &Node{Op: OpAnd, Children: children} }

// Or builds a logical OR node.
func Or(children ...*Node) *Node { return &Node{Op: OpOr, Children: children} }

// Not builds a logical NOT node over exactly one child.
func Not(child *Node) *Node { return &Node{Op: OpNot, Children: []*Node{child}} }

// IDField addresses the id property.
func IDField() Field { return Field{Kind: FieldID} }

// ParentIDField addresses the parent_id property.
func ParentIDField() Field { return Field{Kind: FieldParentID} }

// NameField addresses the name property.
func NameField() Field { return Field{Kind: FieldName} }

// SymlinkField addresses the symlink property.
func SymlinkField() Field { return Field{Kind: FieldSymlink} }

// StatxField addresses a single statx sub-bit.
func StatxField(bit rfs.StatxMask) Field { return Field{Kind: FieldStatx, StatxBit: bit} }

// NamespaceXattrField addresses a named namespace xattr.
func NamespaceXattrField(name string) Field { return Field{Kind: FieldNamespaceXattr, Name: name} }

// InodeXattrField addresses a named inode xattr.
func InodeXattrField(name string) Field { return Field{Kind: FieldInodeXattr, Name: name} }

// Clone returns a deep copy of n (filter trees may be shared across
// multiple parents, so mutation requires cloning first to keep
// ownership unique-per-tree).
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Op: n.Op, Field: n.Field, Value: n.Value.Clone()}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}
