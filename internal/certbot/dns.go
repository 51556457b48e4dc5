package certbot

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const fallbackResolver = "1.1.1.1:53"

// DNSCheck compares where a domain resolves with this host's addresses.
type DNSCheck struct {
	Domain    string
	Addresses []string
	Local     []string
}

// PointsHere reports whether any resolved address belongs to this host.
func (c DNSCheck) PointsHere() bool {
	local := make(map[string]bool, len(c.Local))
	for _, a := range c.Local {
		local[a] = true
	}
	for _, a := range c.Addresses {
		if local[a] {
			return true
		}
	}
	return false
}

// Resolver queries A and AAAA records from one DNS server.
type Resolver struct {
	Server string
	Client *dns.Client

	// LocalAddrs lists this host's addresses. Defaults to the interface
	// addresses.
	LocalAddrs func() ([]string, error)
}

// NewResolver uses the first nameserver in /etc/resolv.conf.
func NewResolver() *Resolver {
	server := fallbackResolver
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		server = net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	return &Resolver{
		Server: server,
		Client: &dns.Client{Timeout: 5 * time.Second},
	}
}

// CheckDNS resolves domain and collects the local addresses.
func (r *Resolver) CheckDNS(ctx context.Context, domain string) (DNSCheck, error) {
	check := DNSCheck{Domain: domain}
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addrs, err := r.lookup(ctx, domain, qtype)
		if err != nil {
			return check, err
		}
		check.Addresses = append(check.Addresses, addrs...)
	}

	localAddrs := r.LocalAddrs
	if localAddrs == nil {
		localAddrs = interfaceAddrs
	}
	local, err := localAddrs()
	if err != nil {
		return check, fmt.Errorf("listing local addresses: %w", err)
	}
	check.Local = local
	return check, nil
}

func (r *Resolver) lookup(ctx context.Context, domain string, qtype uint16) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), qtype)
	m.RecursionDesired = true

	client := r.Client
	if client == nil {
		client = new(dns.Client)
	}
	in, _, err := client.ExchangeContext(ctx, m, r.Server)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", domain, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("resolving %s: %s", domain, dns.RcodeToString[in.Rcode])
	}

	var out []string
	for _, rr := range in.Answer {
		switch v := rr.(type) {
		case *dns.A:
			out = append(out, v.A.String())
		case *dns.AAAA:
			out = append(out, v.AAAA.String())
		}
	}
	return out, nil
}

func interfaceAddrs() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		out = append(out, ipnet.IP.String())
	}
	return out, nil
}
