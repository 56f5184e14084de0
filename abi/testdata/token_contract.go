package token

import (
	"errors"

	"github.com/govm-net/actions/core"
	reg "github.com/govm-net/actions/registry"
)

type Token struct {
	balances map[core.Name]uint64
}

// Issue creates new tokens for to.
//
//action:auth issuer
func (t *Token) Issue(ctx reg.ActionContext, issuer core.Name, to core.Name, amount uint64) error {
	t.balances[to] += amount
	return nil
}

// Transfer moves amount from from to to.
//
//action:auth from
func (t *Token) Transfer(ctx reg.ActionContext, from, to core.Name, amount uint64, memo string) error {
	if t.balances[from] < amount {
		return errors.New("overdrawn balance")
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}

// BalanceOf needs no signature.
//
//action:name balance.of
//action:auth
func (t *Token) BalanceOf(ctx reg.ActionContext, owner core.Name) (uint64, error) {
	return t.balances[owner], nil
}

// Attach stores an opaque blob and a flag.
func (t *Token) Attach(ctx reg.ActionContext, owner core.Name, blob []byte, pinned bool) error {
	return nil
}

func (t *Token) helper() {}

// Total is not an action: it does not take an action context.
func (t *Token) Total() uint64 {
	return 0
}
