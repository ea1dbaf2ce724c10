package export

import "strconv"

// Record is one CSV row. All records of a variant share the same header.
type Record interface {
	Header() []string
	Values() []string
}

var physicalHeader = []string{
	"device", "name", "label", "bridge", "lag", "enabled", "type", "mgmt_only", "mtu", "mode",
	"mac_address", "wwn", "rf_role", "rf_channel", "rf_channel_frequency", "rf_channel_width",
	"tx_power", "description", "mark_connected",
}

var virtualHeader = []string{
	"virtual_machine", "name", "bridge", "parent", "enabled", "mtu", "mode", "mac_address", "description",
}

// PhysicalRecord is a dcim interface row of a physical machine.
type PhysicalRecord struct {
	Device             string
	Name               string
	Label              string
	Bridge             string
	Lag                string
	Enabled            bool
	Type               string
	MgmtOnly           string
	MTU                int
	Mode               string
	MACAddress         string
	WWN                string
	RFRole             string
	RFChannel          string
	RFChannelFrequency string
	RFChannelWidth     string
	TxPower            string
	Description        string
	MarkConnected      string
}

func (r PhysicalRecord) Header() []string { return append([]string(nil), physicalHeader...) }

func (r PhysicalRecord) Values() []string {
	return []string{
		r.Device, r.Name, r.Label, r.Bridge, r.Lag, FormatBool(r.Enabled), r.Type, r.MgmtOnly,
		strconv.Itoa(r.MTU), r.Mode, r.MACAddress, r.WWN, r.RFRole, r.RFChannel,
		r.RFChannelFrequency, r.RFChannelWidth, r.TxPower, r.Description, r.MarkConnected,
	}
}

// VirtualRecord is a virtualization interface row of a virtual machine.
type VirtualRecord struct {
	VirtualMachine string
	Name           string
	Bridge         string
	Parent         string
	Enabled        bool
	MTU            int
	Mode           string
	MACAddress     string
	Description    string
}

func (r VirtualRecord) Header() []string { return append([]string(nil), virtualHeader...) }

func (r VirtualRecord) Values() []string {
	return []string{
		r.VirtualMachine, r.Name, r.Bridge, r.Parent, FormatBool(r.Enabled),
		strconv.Itoa(r.MTU), r.Mode, r.MACAddress, r.Description,
	}
}

// FormatBool renders booleans the way the inventory import expects them.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
