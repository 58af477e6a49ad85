// Package dashboard loads one provider's details and runs the dashboard's
// actions against the aggregator, reporting progress through toasts.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/internal/sources"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/models"
	"github.com/qualitylink/qldash/pkg/types"
)

// DefaultGrace is the pause between the progress bar reaching 100 and the toast settling
const DefaultGrace = 500 * time.Millisecond

// Options configures a Dashboard
type Options struct {
	// Cooldown keeps a trigger disabled after its call settles
	Cooldown time.Duration
	// Grace is the pause before a finished workflow settles its toast
	Grace time.Duration
}

// DefaultOptions returns the timings the dashboard uses by default
func DefaultOptions() Options {
	return Options{
		Cooldown: DefaultCooldown,
		Grace:    DefaultGrace,
	}
}

func (o *Options) setDefaults() {
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.Grace <= 0 {
		o.Grace = DefaultGrace
	}
}

// Dashboard is the state of one provider's dashboard page
type Dashboard struct {
	client client.Client
	toasts *notify.Manager
	opts   Options

	refresh *Trigger

	mu       sync.Mutex
	uuid     string
	data     *types.GetProviderResponse
	expander *sources.Expander
	queue    map[string]*Trigger
}

// New creates an empty dashboard. toasts receives every user-facing message.
func New(c client.Client, toasts *notify.Manager, opts Options) *Dashboard {
	opts.setDefaults()
	return &Dashboard{
		client:  c,
		toasts:  toasts,
		opts:    opts,
		refresh: NewTrigger(opts.Cooldown),
		queue:   make(map[string]*Trigger),
	}
}

// Load fetches the details of providerUUID and replaces the dashboard state
func (d *Dashboard) Load(ctx context.Context, providerUUID string) error {
	if providerUUID == "" {
		return ErrNoProvider
	}

	resp, err := d.client.GetProvider(ctx, providerUUID)
	if err != nil {
		return fmt.Errorf("failed to load provider %s: %w", providerUUID, err)
	}

	d.set(providerUUID, resp)
	logger.DebugWithFields("provider loaded", map[string]interface{}{
		"provider_uuid": providerUUID,
		"sources":       len(resp.Sources),
	})
	return nil
}

// reloadIfCurrent fetches providerUUID again and installs the details only
// while the dashboard still shows that provider. It reports whether it did.
func (d *Dashboard) reloadIfCurrent(ctx context.Context, providerUUID string) (bool, error) {
	resp, err := d.client.GetProvider(ctx, providerUUID)
	if err != nil {
		return false, fmt.Errorf("failed to load provider %s: %w", providerUUID, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.uuid != providerUUID {
		return false, nil
	}
	d.setLocked(providerUUID, resp)
	return true, nil
}

// set installs fresh details. The expansion cache survives a reload unless
// the source version changed.
func (d *Dashboard) set(providerUUID string, resp types.GetProviderResponse) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setLocked(providerUUID, resp)
}

func (d *Dashboard) setLocked(providerUUID string, resp types.GetProviderResponse) {
	sameVersion := d.data != nil &&
		d.uuid == providerUUID &&
		d.data.SourceVersionUUID() == resp.SourceVersionUUID()
	if !sameVersion || d.expander == nil {
		d.expander = sources.NewExpander(d.client, providerUUID, resp.SourceVersionUUID(), d.toasts)
	}
	d.uuid = providerUUID
	d.data = &resp
}

// ProviderUUID returns the id of the loaded provider
func (d *Dashboard) ProviderUUID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uuid
}

// Data returns the loaded provider details
func (d *Dashboard) Data() (types.GetProviderResponse, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data == nil {
		return types.GetProviderResponse{}, false
	}
	return *d.data, true
}

// Expander returns the expansion cache of the loaded source version
func (d *Dashboard) Expander() *sources.Expander {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expander
}

// Source looks up a declared data source by id
func (d *Dashboard) Source(sourceUUID string) (models.Source, error) {
	data, ok := d.Data()
	if !ok {
		return models.Source{}, ErrNotLoaded
	}
	for _, src := range data.Sources {
		if src.SourceUUID == sourceUUID {
			return src, nil
		}
	}
	return models.Source{}, fmt.Errorf("%w: %s", ErrUnknownSource, sourceUUID)
}

// ExpandSource expands a source row, fetching its listing on first use
func (d *Dashboard) ExpandSource(ctx context.Context, sourceUUID string) error {
	src, err := d.Source(sourceUUID)
	if err != nil {
		return err
	}
	return d.Expander().Expand(ctx, src)
}

// SelectDate shows the files of another harvest date for a source
func (d *Dashboard) SelectDate(ctx context.Context, sourceUUID, date string) error {
	src, err := d.Source(sourceUUID)
	if err != nil {
		return err
	}
	return d.Expander().SelectDate(ctx, src, date)
}

// LoadAllSources fetches every source listing at once
func (d *Dashboard) LoadAllSources(ctx context.Context) error {
	data, ok := d.Data()
	if !ok {
		return ErrNotLoaded
	}
	d.Expander().LoadAll(ctx, data.Sources)
	return nil
}

// RefreshTrigger is the trigger of the refresh discovery action
func (d *Dashboard) RefreshTrigger() *Trigger {
	return d.refresh
}

// QueueTrigger is the trigger of the queue action of one source
func (d *Dashboard) QueueTrigger(sourceUUID string) *Trigger {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.queue[sourceUUID]
	if !ok {
		t = NewTrigger(d.opts.Cooldown)
		d.queue[sourceUUID] = t
	}
	return t
}

// Close cancels pending cooldowns
func (d *Dashboard) Close() {
	d.refresh.Stop()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.queue {
		t.Stop()
	}
}
