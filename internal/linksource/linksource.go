package linksource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ifexport/ifexport/internal/executor"
	"github.com/ifexport/ifexport/pkg/logger"
)

// Interface is one element of the `ip -j` output. Required attributes are
// pointers so that an absent key can be told apart from a zero value.
type Interface struct {
	IfName    *string   `json:"ifname"`
	LinkType  *string   `json:"link_type"`
	OperState *string   `json:"operstate"`
	MTU       *int      `json:"mtu"`
	Address   string    `json:"address,omitempty"`
	Master    string    `json:"master,omitempty"`
	Link      string    `json:"link,omitempty"`
	LinkInfo  *LinkInfo `json:"linkinfo,omitempty"`
}

// LinkInfo is the detail block `ip -d` adds for typed links.
type LinkInfo struct {
	InfoKind      string         `json:"info_kind,omitempty"`
	InfoData      map[string]any `json:"info_data,omitempty"`
	InfoSlaveKind string         `json:"info_slave_kind,omitempty"`
}

// Name returns the interface name or "" when it is missing.
func (i Interface) Name() string {
	if i.IfName == nil {
		return ""
	}
	return *i.IfName
}

// Kind returns linkinfo.info_kind or "".
func (i Interface) Kind() string {
	if i.LinkInfo == nil {
		return ""
	}
	return i.LinkInfo.InfoKind
}

// LinkIndex maps interface names of the link tree to their entries.
type LinkIndex map[string]Interface

// NewLinkIndex indexes links by exact name. Entries without a name are ignored.
func NewLinkIndex(links []Interface) LinkIndex {
	idx := make(LinkIndex, len(links))
	for _, l := range links {
		if name := l.Name(); name != "" {
			idx[name] = l
		}
	}
	return idx
}

// Lookup returns the link entry named name.
func (idx LinkIndex) Lookup(name string) (Interface, bool) {
	l, ok := idx[name]
	return l, ok
}

// Source queries the host's link inspection utility.
type Source struct {
	exec            executor.Executor
	ipCommand       string
	hostnameCommand string
}

// New returns a Source that runs ipCommand and hostnameCommand through exec.
func New(exec executor.Executor, ipCommand, hostnameCommand string) *Source {
	if ipCommand == "" {
		ipCommand = "ip"
	}
	if hostnameCommand == "" {
		hostnameCommand = "hostname"
	}
	return &Source{exec: exec, ipCommand: ipCommand, hostnameCommand: hostnameCommand}
}

// FetchLinkData returns the address tree and the link tree, in host order.
func (s *Source) FetchLinkData(ctx context.Context) ([]Interface, []Interface, error) {
	addrs, err := s.query(ctx, "address")
	if err != nil {
		return nil, nil, err
	}
	links, err := s.query(ctx, "link")
	if err != nil {
		return nil, nil, err
	}
	logger.WithFields(logrus.Fields{
		"host":      s.exec.Describe(),
		"addresses": len(addrs),
		"links":     len(links),
	}).Debug("link data fetched")
	return addrs, links, nil
}

func (s *Source) query(ctx context.Context, object string) ([]Interface, error) {
	args := []string{"-j", "-d", "-p", object, "show"}
	out, err := s.exec.Run(ctx, s.ipCommand, args...)
	if err != nil {
		return nil, err
	}
	return Parse(executor.CommandLine(s.ipCommand, args...), out)
}

// Parse decodes one `ip -j` JSON array. Output that is not an array of
// objects is reported as an ExternalCommandError against command.
func Parse(command, output string) ([]Interface, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, &executor.ExternalCommandError{Command: command, Err: fmt.Errorf("empty output")}
	}
	var ifaces []Interface
	if err := json.Unmarshal([]byte(trimmed), &ifaces); err != nil {
		return nil, &executor.ExternalCommandError{Command: command, Err: fmt.Errorf("malformed JSON output: %w", err)}
	}
	return ifaces, nil
}

// Hostname returns the short host name, trimmed.
func (s *Source) Hostname(ctx context.Context) (string, error) {
	out, err := s.exec.Run(ctx, s.hostnameCommand, "-s")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
