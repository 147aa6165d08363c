// Package rules defines the closed set of rule appliers: immutable
// descriptions of one kind of network change to apply to a router. An
// applier knows which commands it needs but not how to build or send them;
// that is the job of the topology-specific Visitor it is accepted by.
package rules

import (
	"context"

	"github.com/tenantnet/netorch/pkg/model"
)

// Visitor builds and sends the commands for an applier on one router.
// Implementations switch over the concrete applier type.
type Visitor interface {
	Visit(ctx context.Context, router *model.Router, a Applier) (bool, error)
}

// Applier is one network change. The interface is sealed: only types in this
// package implement it.
type Applier interface {
	// Accept dispatches the applier to v for router.
	Accept(ctx context.Context, v Visitor, router *model.Router) (bool, error)
	// Name is the applier kind, used in logs and errors.
	Name() string
	// Network is the network the change belongs to. May be nil for
	// router-wide changes such as static routes.
	Network() *model.Network
	// HasRules is false when the applier carries an empty rule set and
	// applying it is a no-op.
	HasRules() bool

	sealed()
}

type base struct {
	network *model.Network
}

func (b base) Network() *model.Network { return b.network }
func (base) HasRules() bool            { return true }
func (base) sealed()                   {}
