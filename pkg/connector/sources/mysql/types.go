package mysql

import (
	"regexp"
	"strings"

	"github.com/ajitpratap0/seaschema/pkg/connector/core"
)

type typeRule struct {
	pattern *regexp.Regexp
	target  core.CanonicalType
}

// typeRules are tried in order against the lower-cased DESCRIBE type.
// "bigint(20)" does not match \bint\b, and "datetime" does not match \bdate\b.
var typeRules = []typeRule{
	{regexp.MustCompile(`\bint\b`), core.TypeInt},
	{regexp.MustCompile(`\bbigint\b`), core.TypeLong},
	{regexp.MustCompile(`\b(varchar|text|char)\b`), core.TypeString},
	{regexp.MustCompile(`\b(double|float)\b`), core.TypeDouble},
	{regexp.MustCompile(`\bdecimal\b`), core.TypeDecimal},
	{regexp.MustCompile(`\bdate\b`), core.TypeDate},
	{regexp.MustCompile(`\b(datetime|timestamp)\b`), core.TypeTimestamp},
	{regexp.MustCompile(`\bbool(ean)?\b`), core.TypeBoolean},
	{regexp.MustCompile(`\btime\b`), core.TypeTime},
}

// TypeMapper applies the first matching rule; no match maps to string.
var TypeMapper = core.TypeMapperFunc(MapType)

// MapType maps a MySQL column type to a canonical type
func MapType(native string) core.CanonicalType {
	native = strings.ToLower(native)
	for _, rule := range typeRules {
		if rule.pattern.MatchString(native) {
			return rule.target
		}
	}
	return core.FallbackType
}
