package dispatch

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/govm-net/actions/core"
)

// actionContext is the registry.ActionContext handed to handlers.
type actionContext struct {
	receiver    core.Name
	action      core.Name
	authorizers core.Authorizers
	console     strings.Builder
	logger      *slog.Logger
}

func (c *actionContext) Receiver() core.Name {
	return c.receiver
}

func (c *actionContext) Action() core.Name {
	return c.action
}

func (c *actionContext) Authorizers() core.Authorizers {
	return c.authorizers
}

func (c *actionContext) HasAuth(n core.Name) bool {
	return c.authorizers.Has(n)
}

func (c *actionContext) RequireAuth(n core.Name) {
	if !c.authorizers.Has(n) {
		core.Abort(fmt.Sprintf("missing authority of %s", n))
	}
}

func (c *actionContext) Print(args ...any) {
	c.console.WriteString(fmt.Sprint(args...))
}

func (c *actionContext) Logger() *slog.Logger {
	return c.logger
}
