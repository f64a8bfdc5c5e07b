package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
)

var hideParam = "hide"

// bindHidden reads the user IDs to leave out of a calendar from the repeatable, comma separated `hide` param.
func bindHidden(ctx echo.Context) []string {
	values := ctx.QueryParams()[hideParam]
	if len(values) == 0 {
		return nil
	}

	hidden := make([]string, 0, len(values))
	for _, val := range values {
		for _, id := range strings.Split(val, ",") {
			if id = strings.TrimSpace(id); id != "" {
				hidden = append(hidden, id)
			}
		}
	}
	return hidden
}
