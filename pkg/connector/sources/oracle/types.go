package oracle

import (
	"strings"

	"github.com/ajitpratap0/seaschema/pkg/connector/core"
)

type typeRule struct {
	substrings []string
	target     core.CanonicalType
}

// typeRules are tried in order against the upper-cased data type; a rule
// matches when any of its substrings occurs. NUMBER maps to int whatever its
// precision and scale, and BINARY_FLOAT is caught by the FLOAT rule.
var typeRules = []typeRule{
	{[]string{"NUMBER", "INTEGER"}, core.TypeInt},
	{[]string{"FLOAT"}, core.TypeFloat},
	{[]string{"CHAR", "VARCHAR", "CLOB"}, core.TypeString},
	{[]string{"DATE"}, core.TypeDate},
	{[]string{"TIMESTAMP"}, core.TypeTimestamp},
	{[]string{"BINARY_FLOAT", "BINARY_DOUBLE"}, core.TypeDouble},
	{[]string{"BLOB"}, core.TypeBytes},
	{[]string{"BOOLEAN"}, core.TypeBoolean},
}

// TypeMapper applies the first matching rule; no match maps to string.
var TypeMapper = core.TypeMapperFunc(MapType)

// MapType maps an Oracle data type to a canonical type
func MapType(native string) core.CanonicalType {
	native = strings.ToUpper(native)
	for _, rule := range typeRules {
		for _, s := range rule.substrings {
			if strings.Contains(native, s) {
				return rule.target
			}
		}
	}
	return core.FallbackType
}
