// Package serviceresolver resolves a deployed enclave's application domain
// to instance addresses via DNS SRV records. Resolution is best-effort
// decoration for the attestation endpoint block; failures yield an empty
// result, never an error to the caller.
package serviceresolver

import (
	"fmt"
	"log/slog"

	"github.com/miekg/dns"

	"github.com/enclaveops/enclave-console-backend/interfaces"
)

// DefaultResolverAddr is the local stub resolver.
const DefaultResolverAddr = "127.0.0.53:53"

// Resolver looks up enclave application domains.
type Resolver struct {
	// Zone is the DNS zone application domains live under; an enclave's
	// domain is <id>.app.<zone>.
	zone string

	resolverAddr string
	log          *slog.Logger
}

// New creates a resolver for the given zone. An empty resolverAddr selects
// the local stub resolver.
func New(zone, resolverAddr string, log *slog.Logger) *Resolver {
	if resolverAddr == "" {
		resolverAddr = DefaultResolverAddr
	}
	return &Resolver{zone: zone, resolverAddr: resolverAddr, log: log}
}

// ApplicationDomain returns the DNS name the enclave's application is
// published under.
func (r *Resolver) ApplicationDomain(id interfaces.EnclaveID) string {
	return fmt.Sprintf("%s.app.%s.", id, r.zone)
}

// ResolveApplication returns the SRV targets registered for the enclave's
// application domain. Lookup failures are logged at Debug and return nil.
func (r *Resolver) ResolveApplication(id interfaces.EnclaveID) []string {
	domain := r.ApplicationDomain(id)

	m := new(dns.Msg)
	m.Id = dns.Id()
	m.RecursionDesired = true
	m.Question = []dns.Question{{Name: domain, Qtype: dns.TypeSRV, Qclass: dns.ClassINET}}

	c := new(dns.Client)
	in, _, err := c.Exchange(m, r.resolverAddr)
	if err != nil {
		r.log.Debug("Application domain lookup failed",
			slog.String("domain", domain),
			"err", err)
		return nil
	}

	targets := make([]string, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if srv, ok := answer.(*dns.SRV); ok {
			// Ports are fixed per deployment; only the target matters here.
			targets = append(targets, srv.Target)
		}
	}
	return targets
}
