package postgresql

import (
	"strings"

	"github.com/ajitpratap0/seaschema/pkg/connector/core"
)

// typeMapping is keyed by information_schema.columns.data_type, lower-cased
var typeMapping = map[string]core.CanonicalType{
	"integer":           core.TypeInt,
	"bigint":            core.TypeLong,
	"smallint":          core.TypeShort,
	"character varying": core.TypeString,
	"varchar":           core.TypeString,
	"text":              core.TypeString,
	"double precision":  core.TypeDouble,
	"numeric":           core.TypeDecimal,
	"real":              core.TypeFloat,
	"boolean":           core.TypeBoolean,
	"date":              core.TypeDate,
	"timestamp":         core.TypeTimestamp,
	"time":              core.TypeTime,

	// information_schema spells out the zone variants
	"timestamp without time zone": core.TypeTimestamp,
	"timestamp with time zone":    core.TypeTimestamp,
	"time without time zone":      core.TypeTime,
	"time with time zone":         core.TypeTime,
}

// TypeMapper does an exact, case-insensitive lookup. Anything else maps to
// string.
var TypeMapper = core.TypeMapperFunc(MapType)

// MapType maps a PostgreSQL data type to a canonical type
func MapType(native string) core.CanonicalType {
	if t, ok := typeMapping[strings.ToLower(native)]; ok {
		return t
	}
	return core.FallbackType
}
