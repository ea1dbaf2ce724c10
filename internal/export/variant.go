package export

import (
	"fmt"

	"github.com/ifexport/ifexport/internal/classify"
	"github.com/ifexport/ifexport/internal/linksource"
)

// Variant names.
const (
	VariantPhysical = "physical"
	VariantVirtual  = "virtual"
)

// Variant turns a classified interface into a row of one schema.
type Variant interface {
	Name() string
	Header() []string
	Normalize(iface linksource.Interface, res classify.Result, hostname string) Record
}

var variants = map[string]Variant{
	VariantPhysical: physicalVariant{},
	VariantVirtual:  virtualVariant{},
}

// Get returns the named variant.
func Get(name string) (Variant, error) {
	if v, ok := variants[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("unknown export variant %q", name)
}

// VariantName maps the --virtual switch to a variant name.
func VariantName(virtual bool) string {
	if virtual {
		return VariantVirtual
	}
	return VariantPhysical
}

// Normalize builds the row for iface. The interface must have passed
// classification, so its required fields are present.
func Normalize(v Variant, iface linksource.Interface, res classify.Result, hostname string) Record {
	return v.Normalize(iface, res, hostname)
}

func mtuOf(iface linksource.Interface) int {
	if iface.MTU == nil {
		return 0
	}
	return *iface.MTU
}

type physicalVariant struct{}

func (physicalVariant) Name() string { return VariantPhysical }
func (physicalVariant) Header() []string { return PhysicalRecord{}.Header() }

func (physicalVariant) Normalize(iface linksource.Interface, res classify.Result, hostname string) Record {
	return PhysicalRecord{
		Device:     hostname,
		Name:       iface.Name(),
		Bridge:     res.Bridge,
		Lag:        res.Lag,
		Enabled:    res.Enabled,
		Type:       res.Type,
		MTU:        mtuOf(iface),
		Mode:       res.Mode,
		MACAddress: iface.Address,
	}
}

type virtualVariant struct{}

func (virtualVariant) Name() string { return VariantVirtual }
func (virtualVariant) Header() []string { return VirtualRecord{}.Header() }

func (virtualVariant) Normalize(iface linksource.Interface, res classify.Result, hostname string) Record {
	return VirtualRecord{
		VirtualMachine: hostname,
		Name:           iface.Name(),
		Bridge:         res.Bridge,
		Enabled:        res.Enabled,
		MTU:            mtuOf(iface),
		Mode:           res.Mode,
		MACAddress:     iface.Address,
	}
}
