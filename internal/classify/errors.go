package classify

import "fmt"

// MissingFieldError reports a raw record without one of ifname, link_type,
// operstate or mtu.
type MissingFieldError struct {
	Interface string
	Field     string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("interface %s: required field %q missing", e.Interface, e.Field)
}

// UnknownLinkTypeError reports a link_type with no entry in the type table.
type UnknownLinkTypeError struct {
	Interface string
	LinkType  string
}

func (e *UnknownLinkTypeError) Error() string {
	return fmt.Sprintf("interface %s: link_type %q has no export type mapping (add it to classify.type_map)", e.Interface, e.LinkType)
}
