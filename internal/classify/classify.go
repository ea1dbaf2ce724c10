package classify

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ifexport/ifexport/internal/config"
	"github.com/ifexport/ifexport/internal/linksource"
	"github.com/ifexport/ifexport/pkg/logger"
)

// Link types and subtypes with fixed meaning.
const (
	LinkTypeLoopback = "loopback"
	LinkTypeNone     = "none"

	KindBridge      = "bridge"
	KindOpenVSwitch = "openvswitch"
	KindVLAN        = "vlan"

	ModeTagged = "tagged"
)

// DefaultTypeMap is the built-in link_type to export type table.
func DefaultTypeMap() map[string]string {
	return map[string]string{
		"ether":       "1000base-t",
		LinkTypeNone: "virtual",
	}
}

// Result is what the classifier derives for one interface.
type Result struct {
	Type    string
	Enabled bool
	Mode    string
	Bridge  string
	Lag     string
}

// Classifier derives export attributes from raw interface records.
type Classifier struct {
	types       map[string]string
	bondMatch   string
	lagType     string
	bridgeType  string
	virtualType string
}

// New builds a classifier from configuration. Entries of cfg.TypeMap
// override the built-in table.
func New(cfg config.ClassifyConfig) *Classifier {
	types := DefaultTypeMap()
	for k, v := range cfg.TypeMap {
		types[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	c := &Classifier{
		types:       types,
		bondMatch:   cfg.BondMatch,
		lagType:     cfg.LagType,
		bridgeType:  cfg.BridgeType,
		virtualType: cfg.VirtualType,
	}
	if c.bondMatch == "" {
		c.bondMatch = config.BondMatchSubstring
	}
	if c.lagType == "" {
		c.lagType = "lag"
	}
	if c.bridgeType == "" {
		c.bridgeType = "bridge"
	}
	if c.virtualType == "" {
		c.virtualType = "virtual"
	}
	return c
}

// Classify derives the export attributes of iface. skip is true for loopback
// interfaces, which produce no record.
//
// Rules apply in order, later ones winning: type from the link_type table,
// bond membership, then the bridge/openvswitch subtype. A link_type missing
// from the table is an error only if no later rule assigns a type.
func (c *Classifier) Classify(iface linksource.Interface, bonds []string, links linksource.LinkIndex) (Result, bool, error) {
	name := iface.Name()
	label := name
	if label == "" {
		label = "<unnamed>"
	}

	if iface.LinkType == nil {
		return Result{}, false, &MissingFieldError{Interface: label, Field: "link_type"}
	}
	if *iface.LinkType == LinkTypeLoopback {
		return Result{}, true, nil
	}
	if iface.IfName == nil {
		return Result{}, false, &MissingFieldError{Interface: label, Field: "ifname"}
	}
	if iface.OperState == nil {
		return Result{}, false, &MissingFieldError{Interface: label, Field: "operstate"}
	}
	if iface.MTU == nil {
		return Result{}, false, &MissingFieldError{Interface: label, Field: "mtu"}
	}

	res := Result{Enabled: *iface.OperState == "UP"}

	mapped, known := c.types[*iface.LinkType]
	res.Type = mapped

	if bond, ok := c.matchBond(name, bonds); ok {
		res.Type = c.lagType
		known = true
		if bond != name {
			logger.WithFields(logrus.Fields{
				"interface": name,
				"bond":      bond,
				"policy":    c.bondMatch,
			}).Warn("ambiguous bond match, classifying as lag")
		}
	}

	switch iface.Kind() {
	case KindBridge:
		res.Type = c.bridgeType
		known = true
		if id, ok := iface.LinkInfo.InfoData["bridge_id"]; ok && id != nil {
			res.Bridge = fmt.Sprint(id)
		}
	case KindOpenVSwitch:
		res.Type = c.virtualType
		known = true
	}

	if !known {
		return Result{}, false, &UnknownLinkTypeError{Interface: name, LinkType: *iface.LinkType}
	}

	res.Mode = tagMode(name, links)
	res.Lag = lagMaster(iface, links)
	return res, false, nil
}

func (c *Classifier) matchBond(name string, bonds []string) (string, bool) {
	for _, bond := range bonds {
		if bond == "" {
			continue
		}
		var hit bool
		switch c.bondMatch {
		case config.BondMatchExact:
			hit = name == bond
		case config.BondMatchPrefix:
			hit = strings.HasPrefix(name, bond)
		default:
			hit = strings.Contains(name, bond)
		}
		if hit {
			return bond, true
		}
	}
	return "", false
}

// tagMode is "tagged" when the link entry of the same name carries VLAN data.
func tagMode(name string, links linksource.LinkIndex) string {
	link, ok := links.Lookup(name)
	if !ok || link.LinkInfo == nil {
		return ""
	}
	if link.LinkInfo.InfoKind == KindVLAN {
		return ModeTagged
	}
	for _, key := range []string{"id", "protocol"} {
		if _, ok := link.LinkInfo.InfoData[key]; ok {
			return ModeTagged
		}
	}
	return ""
}

// lagMaster is the bond an interface is enslaved to.
func lagMaster(iface linksource.Interface, links linksource.LinkIndex) string {
	for _, rec := range []linksource.Interface{iface, links[iface.Name()]} {
		if rec.LinkInfo != nil && rec.LinkInfo.InfoSlaveKind == "bond" && rec.Master != "" {
			return rec.Master
		}
	}
	return ""
}
