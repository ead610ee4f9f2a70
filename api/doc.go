// Package api exposes the console's HTTP surface: lifecycle transitions,
// aggregated log queries, PCR measurement queries and attestation summaries,
// plus the liveness/readiness/drain diagnostics every deployment of this
// service relies on.
package api
