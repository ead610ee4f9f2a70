package logs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/enclaveops/enclave-console-backend/interfaces"
	"github.com/enclaveops/enclave-console-backend/metrics"
)

// Fetcher is one log source: it translates a backend into normalized records
// and never returns an error. Backend failures stay inside the fetcher.
type Fetcher interface {
	Source() interfaces.LogSource
	Fetch(ctx context.Context, id interfaces.EnclaveID) []interfaces.LogRecord
}

// Bundle is the result of one aggregate log query. Logs is keyed by the
// requested filter: the canonical source key for a single source, "all" for
// the merged view, "errors" for the filtered view.
type Bundle struct {
	EnclaveID     interfaces.EnclaveID              `json:"enclave_id"`
	EnclaveName   string                            `json:"enclave_name"`
	EnclaveStatus interfaces.Status                 `json:"enclave_status"`
	Logs          map[string][]interfaces.LogRecord `json:"logs"`
}

// Aggregator fans a log query out to the source fetchers and merges the
// results into one sorted, bounded view.
type Aggregator struct {
	store      interfaces.EnclaveStore
	fetchers   map[interfaces.LogSource]Fetcher
	predicates map[interfaces.LogSource]ErrorPredicate
	log        *slog.Logger
}

// NewAggregator creates an aggregator over the given fetchers. Nil
// predicates selects DefaultErrorPredicates.
func NewAggregator(store interfaces.EnclaveStore, fetchers []Fetcher, predicates map[interfaces.LogSource]ErrorPredicate, log *slog.Logger) *Aggregator {
	if predicates == nil {
		predicates = DefaultErrorPredicates()
	}

	bystate := make(map[interfaces.LogSource]Fetcher, len(fetchers))
	for _, f := range fetchers {
		bystate[f.Source()] = f
	}
	return &Aggregator{store: store, fetchers: bystate, predicates: predicates, log: log}
}

// FetchLogs resolves the enclave for response metadata, pulls the sources
// selected by filter concurrently and returns the merged view. The enclave's
// status does not gate the query; only an unresolvable id fails.
func (a *Aggregator) FetchLogs(ctx context.Context, id interfaces.EnclaveID, filter interfaces.SourceFilter, limit int) (*Bundle, error) {
	start := time.Now()

	enclave, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sources := a.selectSources(filter)
	results := a.fetchConcurrently(ctx, id, sources)

	var view []interfaces.LogRecord
	switch filter {
	case interfaces.FilterErrors:
		view = a.errorsView(enclave, sources, results, limit)
	default:
		groups := make([][]interfaces.LogRecord, 0, len(results))
		for _, source := range sources {
			groups = append(groups, results[source])
		}
		view = Merge(limit, groups...)
	}

	metrics.FetchDuration.WithLabelValues(string(filter)).Observe(time.Since(start).Seconds())
	a.log.Debug("Aggregated logs",
		slog.String("enclave_id", id.String()),
		slog.String("filter", string(filter)),
		slog.Int("records", len(view)),
		slog.Duration("duration", time.Since(start)))

	return &Bundle{
		EnclaveID:     enclave.ID,
		EnclaveName:   enclave.Name,
		EnclaveStatus: enclave.Status,
		Logs:          map[string][]interfaces.LogRecord{string(filter): view},
	}, nil
}

// selectSources maps a filter to the fetchers it needs. The errors view
// draws from every source.
func (a *Aggregator) selectSources(filter interfaces.SourceFilter) []interfaces.LogSource {
	switch filter {
	case interfaces.FilterContainer:
		return []interfaces.LogSource{interfaces.SourceContainer}
	case interfaces.FilterWorkflow:
		return []interfaces.LogSource{interfaces.SourceWorkflow}
	case interfaces.FilterFunction:
		return []interfaces.LogSource{interfaces.SourceFunction}
	case interfaces.FilterApplication:
		return []interfaces.LogSource{interfaces.SourceApplication}
	default: // all, errors
		return []interfaces.LogSource{
			interfaces.SourceContainer,
			interfaces.SourceWorkflow,
			interfaces.SourceFunction,
			interfaces.SourceApplication,
		}
	}
}

// fetchConcurrently runs each selected fetcher in its own goroutine. Results
// are slotted per source, so no further synchronization is needed once the
// WaitGroup drains.
func (a *Aggregator) fetchConcurrently(ctx context.Context, id interfaces.EnclaveID, sources []interfaces.LogSource) map[interfaces.LogSource][]interfaces.LogRecord {
	type slot struct {
		source  interfaces.LogSource
		records []interfaces.LogRecord
	}

	slots := make([]slot, len(sources))
	var wg sync.WaitGroup
	for i, source := range sources {
		fetcher, ok := a.fetchers[source]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, source interfaces.LogSource, fetcher Fetcher) {
			defer wg.Done()
			slots[i] = slot{source: source, records: fetcher.Fetch(ctx, id)}
		}(i, source, fetcher)
	}
	wg.Wait()

	results := make(map[interfaces.LogSource][]interfaces.LogRecord, len(sources))
	for _, s := range slots {
		if s.source != "" {
			results[s.source] = s.records
		}
	}
	return results
}

// errorsView filters the already-fetched results through the per-source
// error predicates and appends one synthetic record when the stored record
// carries an error message from the status monitor.
func (a *Aggregator) errorsView(enclave *interfaces.Enclave, sources []interfaces.LogSource, results map[interfaces.LogSource][]interfaces.LogRecord, limit int) []interfaces.LogRecord {
	groups := make([][]interfaces.LogRecord, 0, len(sources)+1)
	for _, source := range sources {
		predicate, ok := a.predicates[source]
		if !ok {
			continue
		}
		var filtered []interfaces.LogRecord
		for _, r := range results[source] {
			if predicate(r) {
				filtered = append(filtered, r)
			}
		}
		groups = append(groups, filtered)
	}

	if enclave.ErrorMessage != "" {
		groups = append(groups, []interfaces.LogRecord{{
			Timestamp: millis(enclave.UpdatedAt.UnixMilli()),
			Message:   fmt.Sprintf("Enclave error: %s", enclave.ErrorMessage),
			Source:    interfaces.SourceApplication,
			Type:      "enclave_error",
			IsError:   true,
		}})
	}

	return Merge(limit, groups...)
}
