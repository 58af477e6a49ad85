// Package sources keeps the lazily fetched dates and files of a provider's data sources
package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/models"
	"github.com/qualitylink/qldash/pkg/types"
)

// Entry is the cached listing of one source.
// The cache is keyed by source only: choosing another date replaces Files.
type Entry struct {
	Dates        []string              `json:"dates"`
	SelectedDate string                `json:"selected_date"`
	Files        []models.DatalakeFile `json:"files"`
}

// Latest returns the most recent file, which is the last one listed
func (e Entry) Latest() (models.DatalakeFile, bool) {
	if len(e.Files) == 0 {
		return models.DatalakeFile{}, false
	}
	return e.Files[len(e.Files)-1], true
}

type call struct {
	done chan struct{}
	err  error
}

// Expander fetches a source's listing the first time its row is expanded
// and serves it from memory afterwards.
type Expander struct {
	client   client.Client
	notifier *notify.Manager

	providerUUID      string
	sourceVersionUUID string

	mu       sync.Mutex
	entries  map[string]Entry
	expanded map[string]bool
	inflight map[string]*call
}

// NewExpander creates an expander for one provider's source version.
// notifier may be nil, in which case failures are only logged.
func NewExpander(c client.Client, providerUUID, sourceVersionUUID string, notifier *notify.Manager) *Expander {
	return &Expander{
		client:            c,
		notifier:          notifier,
		providerUUID:      providerUUID,
		sourceVersionUUID: sourceVersionUUID,
		entries:           make(map[string]Entry),
		expanded:          make(map[string]bool),
		inflight:          make(map[string]*call),
	}
}

func (e *Expander) ref(src models.Source) types.SourceRef {
	return types.SourceRef{
		ProviderUUID:      e.providerUUID,
		SourceVersionUUID: e.sourceVersionUUID,
		SourceUUID:        src.SourceUUID,
	}
}

// Expand marks the source expanded and fetches its dates and files unless
// they are cached. Concurrent expands of one source share a single fetch.
func (e *Expander) Expand(ctx context.Context, src models.Source) error {
	e.mu.Lock()
	e.expanded[src.SourceUUID] = true
	if _, ok := e.entries[src.SourceUUID]; ok {
		e.mu.Unlock()
		return nil
	}
	if c, ok := e.inflight[src.SourceUUID]; ok {
		e.mu.Unlock()
		select {
		case <-c.done:
			return c.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	e.inflight[src.SourceUUID] = c
	e.mu.Unlock()

	entry, err := e.fetch(ctx, src)

	e.mu.Lock()
	delete(e.inflight, src.SourceUUID)
	if err == nil {
		e.entries[src.SourceUUID] = entry
	}
	e.mu.Unlock()

	c.err = err
	close(c.done)

	if err != nil {
		e.reportFailure(src, err)
	}
	return err
}

// fetch loads the dates of a source, then the files of its latest date
func (e *Expander) fetch(ctx context.Context, src models.Source) (Entry, error) {
	dates, err := e.client.ListDatalakeDates(ctx, types.DatalakeDatesParams{SourceRef: e.ref(src)})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to list dates of source %s: %w", src.SourceUUID, err)
	}

	selected := dates.Latest()
	files, err := e.client.ListDatalakeFiles(ctx, types.DatalakeFilesParams{
		SourceRef:  e.ref(src),
		SourcePath: src.SourcePath,
		Date:       selected,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to list files of source %s: %w", src.SourceUUID, err)
	}
	if selected == "" {
		selected = files.Params.Date
	}

	return Entry{
		Dates:        dates.Dates,
		SelectedDate: selected,
		Files:        files.Files,
	}, nil
}

func (e *Expander) reportFailure(src models.Source, err error) {
	logger.WarnWithFields("failed to load datalake files", map[string]interface{}{
		"provider_uuid": e.providerUUID,
		"source_uuid":   src.SourceUUID,
		"error":         err.Error(),
	})
	if e.notifier != nil {
		e.notifier.Show(notify.Toast{
			Type:    notify.TypeError,
			Title:   "Failed to load files",
			Message: client.Describe(err, "Could not fetch datalake files"),
		})
	}
}

// Collapse hides the source's listing; the cache is kept
func (e *Expander) Collapse(sourceUUID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.expanded, sourceUUID)
}

// Toggle expands a collapsed source or collapses an expanded one.
// It reports whether the source is expanded afterwards.
func (e *Expander) Toggle(ctx context.Context, src models.Source) (bool, error) {
	if e.IsExpanded(src.SourceUUID) {
		e.Collapse(src.SourceUUID)
		return false, nil
	}
	return true, e.Expand(ctx, src)
}

// IsExpanded reports whether the source row is expanded
func (e *Expander) IsExpanded(sourceUUID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expanded[sourceUUID]
}

// SelectDate always refetches the files of the source for date and
// replaces the cached list.
func (e *Expander) SelectDate(ctx context.Context, src models.Source, date string) error {
	files, err := e.client.ListDatalakeFiles(ctx, types.DatalakeFilesParams{
		SourceRef:  e.ref(src),
		SourcePath: src.SourcePath,
		Date:       date,
	})
	if err != nil {
		err = fmt.Errorf("failed to list files of source %s for %s: %w", src.SourceUUID, date, err)
		e.reportFailure(src, err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.entries[src.SourceUUID]
	entry.SelectedDate = date
	entry.Files = files.Files
	e.entries[src.SourceUUID] = entry
	e.expanded[src.SourceUUID] = true
	return nil
}

// Entry returns the cached listing of a source
func (e *Expander) Entry(sourceUUID string) (Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.entries[sourceUUID]
	if !ok {
		return Entry{}, false
	}
	entry.Dates = append([]string(nil), entry.Dates...)
	entry.Files = append([]models.DatalakeFile(nil), entry.Files...)
	return entry, true
}

// Latest returns the most recent cached file of a source
func (e *Expander) Latest(sourceUUID string) (models.DatalakeFile, bool) {
	entry, _ := e.Entry(sourceUUID)
	return entry.Latest()
}

// Invalidate drops the cached listing so the next expand fetches again
func (e *Expander) Invalidate(sourceUUID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.entries, sourceUUID)
}

// LoadAll fetches every source concurrently. A source that fails is cached
// with an empty file list so it does not hold back the others.
func (e *Expander) LoadAll(ctx context.Context, srcs []models.Source) {
	var wg sync.WaitGroup
	for _, src := range srcs {
		wg.Add(1)
		go func(src models.Source) {
			defer wg.Done()

			e.mu.Lock()
			_, cached := e.entries[src.SourceUUID]
			e.mu.Unlock()
			if cached {
				return
			}

			entry, err := e.fetch(ctx, src)
			if err != nil {
				logger.WarnWithFields("falling back to empty file list", map[string]interface{}{
					"source_uuid": src.SourceUUID,
					"error":       err.Error(),
				})
				entry = Entry{Files: []models.DatalakeFile{}}
			}

			e.mu.Lock()
			if _, ok := e.entries[src.SourceUUID]; !ok {
				e.entries[src.SourceUUID] = entry
			}
			e.mu.Unlock()
		}(src)
	}
	wg.Wait()
}
