package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/user"
)

const (
	searchParam   = "search"
	roleParam     = "role"
	isActiveParam = "is_active"
)

// bindUserFilter reads the user list filters from the query string.
// An unparsable is_active is ignored.
func bindUserFilter(ctx echo.Context) user.QueryFilter {
	filter := user.QueryFilter{
		Search: ctx.QueryParam(searchParam),
		Role:   ctx.QueryParam(roleParam),
	}
	if val := core.CleanString(ctx.QueryParam(isActiveParam)); val != "" {
		if active, err := strconv.ParseBool(val); err == nil {
			filter.IsActive = &active
		}
	}
	filter.Clean()
	return filter
}

// exportBaseName names a users export after its role filter.
func exportBaseName(filter user.QueryFilter) string {
	if filter.Role == "" {
		return "users_all"
	}
	return "users_" + filter.Role
}
