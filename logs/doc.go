// Package logs aggregates log records for an enclave from four independently
// unreliable backends: the ECS deployment log group, Step Functions execution
// history, the fixed set of operational Lambda log groups, and the enclave's
// own guest application log group.
//
// Each source fetcher translates its backend into []interfaces.LogRecord and
// degrades to an empty result on any backend failure; a failing source never
// prevents results from the other three. The Aggregator fans out to the
// relevant fetchers concurrently, merges the results, sorts them by timestamp
// in non-increasing order (records without a timestamp sort last) and
// truncates to the requested limit.
//
// All backend calls are bounded: a fixed number of streams per group, a fixed
// number of events per stream and a trailing time window. There is no
// pagination.
//
// Relevance filtering and the per-source error predicates are plain functions
// over a record or message, kept separate from the network plumbing so their
// false-positive tuning is testable in isolation.
package logs
