// Package tvg is the reference contract: a single action "hi" that greets the
// account which signed it.
package tvg

import (
	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/registry"
)

//go:generate go run github.com/govm-net/actions/cmd/actionctl gen -f tvg.go -o tvg.actions.go

// Account is the contract account tvg is deployed to.
var Account = core.MustParseName("tvg")

// Tvg holds no state; every action is pure.
type Tvg struct{}

// Hi greets nm. nm must authorize the call.
func (c *Tvg) Hi(ctx registry.ActionContext, nm core.Name) error {
	ctx.Print("Hello, ", nm)
	ctx.Logger().Info("hi", "nm", nm)
	return nil
}
