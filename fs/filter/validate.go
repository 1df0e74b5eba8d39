package filter

import (
	rfs "github.com/robinhood-suite/robinhood4-sub001/fs"
	"github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"
)

// Validate walks the filter tree and fails with KindInvalidArgument on
// any of: an unknown operator, a value type incompatible with the
// operator, a field referencing more
// than one fsentry property (a FieldStatx node whose StatxBit is not
// exactly one bit), a NOT with arity != 1, or an AND/OR with zero
// children. A nil Node (the NULL filter) is always valid.
func Validate(n *Node) error {
	if n == nil {
		return nil
	}
	if n.Value != nil {
		if err := n.Value.Validate(); err != nil {
			return rbherr.Wrap(rbherr.KindInvalidArgument, err, "invalid filter value")
		}
	}

	switch {
	case n.Op.IsLogical():
		return validateLogical(n)
	case n.Op.IsComparison():
		return validateComparison(n)
	default:
		return rbherr.InvalidArgument("unknown filter operator %d", n.Op)
	}
}

func validateLogical(n *Node) error {
	switch n.Op {
	case OpNot:
		if len(n.Children) != 1 {
			return rbherr.InvalidArgument("NOT filter must have exactly one child, got %d", len(n.Children))
		}
	case OpAnd, OpOr:
		if len(n.Children) == 0 {
			return rbherr.InvalidArgument("%s filter must have at least one child", n.Op)
		}
	}
	for i, c := range n.Children {
		if err := Validate(c); err != nil {
			return rbherr.Wrap(rbherr.KindInvalidArgument, err, "invalid child %d of %s filter", i, n.Op)
		}
	}
	return nil
}

func validateComparison(n *Node) error {
	if err := validateField(n.Field); err != nil {
		return err
	}

	if n.Op == OpExists {
		if n.Value == nil || n.Value.Type != rfs.ValueTypeBoolean {
			return rbherr.InvalidArgument("EXISTS filter requires a boolean value flag")
		}
		return nil
	}

	if n.Value == nil {
		return rbherr.InvalidArgument("%s filter requires a value", n.Op)
	}
	if !operatorAllowsType(n.Op, n.Value.Type) {
		return rbherr.InvalidArgument("operator %s is not compatible with value type %s", n.Op, n.Value.Type)
	}
	return nil
}

func validateField(f Field) error {
	switch f.Kind {
	case FieldID, FieldParentID, FieldName, FieldSymlink:
		return nil
	case FieldStatx:
		if f.StatxBit == 0 || f.StatxBit&(f.StatxBit-1) != 0 {
			return rbherr.InvalidArgument("statx field must address exactly one statx bit, got %#x", f.StatxBit)
		}
		return nil
	case FieldNamespaceXattr, FieldInodeXattr:
		if f.Name == "" {
			return rbherr.InvalidArgument("xattr field requires a name")
		}
		return nil
	default:
		return rbherr.InvalidArgument("unknown field kind %d", f.Kind)
	}
}

// operatorAllowsType implements the operator/value-type compatibility
// table.
func operatorAllowsType(op Operator, vt rfs.ValueType) bool {
	switch op {
	case OpEqual, OpStrictlyLower, OpLowerOrEqual, OpStrictlyGreater, OpGreaterOrEqual:
		switch vt {
		case rfs.ValueTypeBinary, rfs.ValueTypeInt32, rfs.ValueTypeUint32, rfs.ValueTypeInt64,
			rfs.ValueTypeUint64, rfs.ValueTypeString, rfs.ValueTypeRegex, rfs.ValueTypeSequence,
			rfs.ValueTypeMap:
			return true
		}
		return false
	case OpRegexMatch:
		return vt == rfs.ValueTypeRegex
	case OpIn:
		return vt == rfs.ValueTypeSequence
	case OpBitsAnySet, OpBitsAllSet, OpBitsAnyClear, OpBitsAllClear:
		switch vt {
		case rfs.ValueTypeInt32, rfs.ValueTypeUint32, rfs.ValueTypeInt64, rfs.ValueTypeUint64:
			return true
		}
		return false
	default:
		return false
	}
}
