package rcel

import (
	"math"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/fieldrules/fieldrules/addr"
)

// builtinOptions returns the cel.EnvOption list registering every
// built-in spec.md §4.B names. Each delegates the actual parsing work to
// the addr package; a type mismatch between the expression and an
// overload's declared signature is caught by CEL's own type-checker, so
// these bindings only need to handle the declared argument types.
func builtinOptions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Function("format",
			cel.Overload("format_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(checkFormat(lhs.Value().(string), rhs.Value().(string)))
				})),
		),
		cel.Function("isIp",
			cel.Overload("isIp_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					s := v.Value().(string)
					_, ok4 := addr.ParseIPv4(s)
					_, ok6 := addr.ParseIPv6(s)
					return types.Bool(ok4 || ok6)
				})),
			cel.Overload("isIp_string_int", []*cel.Type{cel.StringType, cel.IntType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					s := lhs.Value().(string)
					ver := rhs.Value().(int64)
					switch ver {
					case 4:
						_, ok := addr.ParseIPv4(s)
						return types.Bool(ok)
					case 6:
						_, ok := addr.ParseIPv6(s)
						return types.Bool(ok)
					default:
						_, ok4 := addr.ParseIPv4(s)
						_, ok6 := addr.ParseIPv6(s)
						return types.Bool(ok4 || ok6)
					}
				})),
		),
		cel.Function("isIpPrefix",
			cel.Overload("isIpPrefix_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					s := v.Value().(string)
					_, ok4 := addr.ParseIPv4Prefix(s, false)
					_, ok6 := addr.ParseIPv6Prefix(s, false)
					return types.Bool(ok4 || ok6)
				})),
			cel.Overload("isIpPrefix_string_bool", []*cel.Type{cel.StringType, cel.BoolType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					s := lhs.Value().(string)
					strict := rhs.Value().(bool)
					_, ok4 := addr.ParseIPv4Prefix(s, strict)
					_, ok6 := addr.ParseIPv6Prefix(s, strict)
					return types.Bool(ok4 || ok6)
				})),
		),
		cel.Function("isHostname",
			cel.Overload("isHostname_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					_, ok := addr.ParseHostname(v.Value().(string))
					return types.Bool(ok)
				})),
		),
		cel.Function("isEmail",
			cel.Overload("isEmail_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					_, ok := addr.ParseEmail(v.Value().(string))
					return types.Bool(ok)
				})),
		),
		cel.Function("isUri",
			cel.Overload("isUri_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					_, ok := addr.ParseURI(v.Value().(string))
					return types.Bool(ok)
				})),
		),
		cel.Function("isUriRef",
			cel.Overload("isUriRef_string", []*cel.Type{cel.StringType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					_, ok := addr.ParseURIReference(v.Value().(string))
					return types.Bool(ok)
				})),
		),
		cel.Function("isHostAndPort",
			cel.Overload("isHostAndPort_string_bool", []*cel.Type{cel.StringType, cel.BoolType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					_, ok := addr.ParseHostAndPort(lhs.Value().(string), rhs.Value().(bool))
					return types.Bool(ok)
				})),
		),
		cel.Function("isNan",
			cel.Overload("isNan_double", []*cel.Type{cel.DoubleType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return types.Bool(math.IsNaN(float64(v.Value().(float64))))
				})),
		),
		cel.Function("isInf",
			cel.Overload("isInf_double", []*cel.Type{cel.DoubleType}, cel.BoolType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					return types.Bool(math.IsInf(v.Value().(float64), 0))
				})),
			cel.Overload("isInf_double_int", []*cel.Type{cel.DoubleType, cel.IntType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(math.IsInf(lhs.Value().(float64), int(rhs.Value().(int64))))
				})),
		),
		cel.Function("unique",
			cel.MemberOverload("list_unique", []*cel.Type{cel.ListType(cel.DynType)}, cel.BoolType,
				cel.UnaryBinding(uniqueBinding)),
		),
		cel.Function("contains",
			cel.MemberOverload("string_contains_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(strings.Contains(lhs.Value().(string), rhs.Value().(string)))
				})),
			cel.MemberOverload("bytes_contains_bytes", []*cel.Type{cel.BytesType, cel.BytesType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(bytesContains(lhs.Value().([]byte), rhs.Value().([]byte)))
				})),
		),
		cel.Function("startsWith",
			cel.MemberOverload("string_startsWith_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(strings.HasPrefix(lhs.Value().(string), rhs.Value().(string)))
				})),
			cel.MemberOverload("bytes_startsWith_bytes", []*cel.Type{cel.BytesType, cel.BytesType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(bytesHasPrefix(lhs.Value().([]byte), rhs.Value().([]byte)))
				})),
		),
		cel.Function("endsWith",
			cel.MemberOverload("string_endsWith_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(strings.HasSuffix(lhs.Value().(string), rhs.Value().(string)))
				})),
			cel.MemberOverload("bytes_endsWith_bytes", []*cel.Type{cel.BytesType, cel.BytesType}, cel.BoolType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return types.Bool(bytesHasSuffix(lhs.Value().([]byte), rhs.Value().([]byte)))
				})),
		),
	}
}

func uniqueBinding(v ref.Val) ref.Val {
	lister, ok := v.(interface {
		Size() ref.Val
		Get(ref.Val) ref.Val
	})
	if !ok {
		return types.NewErr("unique: not a list")
	}
	n := int(lister.Size().(types.Int))
	seen := make(map[any]struct{}, n)
	for i := 0; i < n; i++ {
		item := lister.Get(types.Int(i)).Value()
		key := item
		if b, ok := item.([]byte); ok {
			key = string(b)
		}
		if _, dup := seen[key]; dup {
			return types.False
		}
		seen[key] = struct{}{}
	}
	return types.True
}

func bytesContains(haystack, needle []byte) bool {
	return strings.Contains(string(haystack), string(needle))
}

func bytesHasPrefix(haystack, needle []byte) bool {
	return strings.HasPrefix(string(haystack), string(needle))
}

func bytesHasSuffix(haystack, needle []byte) bool {
	return strings.HasSuffix(string(haystack), string(needle))
}
