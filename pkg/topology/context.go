package topology

import (
	"fmt"

	"github.com/tenantnet/netorch/pkg/model"
	"github.com/tenantnet/netorch/pkg/util"
)

// Context resolves the topology serving a zone. It is built once and never
// modified, so it can be shared between goroutines.
type Context struct {
	topologies map[model.NetworkType]NetworkTopology
}

// NewContext registers the Basic and Advanced topologies.
func NewContext(basic, advanced NetworkTopology) *Context {
	return &Context{topologies: map[model.NetworkType]NetworkTopology{
		model.NetworkTypeBasic:    basic,
		model.NetworkTypeAdvanced: advanced,
	}}
}

// NewDefaultContext builds both topologies from deps.
func NewDefaultContext(deps Deps) *Context {
	return NewContext(NewBasicTopology(deps), NewAdvancedTopology(deps))
}

// RetrieveNetworkTopology returns the topology for the zone's network type.
func (c *Context) RetrieveNetworkTopology(dc *model.DataCenter) (NetworkTopology, error) {
	if dc == nil {
		return nil, fmt.Errorf("%w: nil data center", util.ErrInvalidArgument)
	}
	t, ok := c.topologies[dc.NetworkType]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: unsupported network type %q for zone %s", util.ErrInvalidArgument, dc.NetworkType, dc.Name)
	}
	return t, nil
}
