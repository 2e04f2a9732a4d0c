package sqlite

import (
	"fmt"
	"strings"

	"github.com/ganot/report-results/internal/domain/result"
)

var scopeColumns = map[result.ScopeField]string{
	result.FieldReportDefinition: "report_definition_id",
	result.FieldOwnerGroup:       "owner_group_id",
}

// scopeConditions translates a result scope into SQL conditions on the
// results table aliased as alias. A NotNull condition becomes IS NOT NULL
// and a condition with no values a false predicate, matching Scope.Matches.
func scopeConditions(scope result.Scope, alias string) ([]string, []interface{}, error) {
	var conditions []string
	var args []interface{}
	for _, c := range scope.Conditions() {
		column, ok := scopeColumns[c.Field]
		if !ok {
			return nil, nil, fmt.Errorf("unsupported scope field %q", c.Field)
		}
		if c.NotNull {
			conditions = append(conditions, fmt.Sprintf("%s.%s IS NOT NULL", alias, column))
			continue
		}
		if len(c.Values) == 0 {
			conditions = append(conditions, "0 = 1")
			continue
		}
		placeholders := make([]string, len(c.Values))
		for i, v := range c.Values {
			placeholders[i] = "?"
			args = append(args, v)
		}
		conditions = append(conditions, fmt.Sprintf("%s.%s IN (%s)", alias, column, strings.Join(placeholders, ",")))
	}
	return conditions, args, nil
}
