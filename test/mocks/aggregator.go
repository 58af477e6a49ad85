package mocks

import (
	"fmt"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/api/v1/routes"
	"github.com/qualitylink/qldash/pkg/models"
	"github.com/qualitylink/qldash/pkg/types"
)

// AggregatorProvider is the server-side state of one provider
type AggregatorProvider struct {
	Details models.ProviderDetails
	Version *models.SourceVersion
	Sources []models.Source
	// Harvests maps a source id to its harvest dates and the files of each date
	Harvests map[string]map[string][]models.DatalakeFile
	// Discovery is what the next manifest pull finds
	Discovery Discovery
}

// Discovery configures the outcome of a manifest pull
type Discovery struct {
	ManifestURL string
	Methods     []models.ManifestMethod
	// NewVersion makes the pull create a new source version
	NewVersion bool
}

// Aggregator is an in-memory aggregator API
type Aggregator struct {
	mu        sync.Mutex
	providers map[string]*AggregatorProvider
	order     []string
	files     map[string][]byte
	locked    map[string]bool
	calls     map[string]int
	latency   time.Duration
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{
		providers: make(map[string]*AggregatorProvider),
		files:     make(map[string][]byte),
		locked:    make(map[string]bool),
		calls:     make(map[string]int),
	}
}

// AddProvider registers a provider, replacing one with the same id
func (a *Aggregator) AddProvider(p *AggregatorProvider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := p.Details.ProviderUUID
	if _, ok := a.providers[id]; !ok {
		a.order = append(a.order, id)
	}
	if p.Harvests == nil {
		p.Harvests = make(map[string]map[string][]models.DatalakeFile)
	}
	a.providers[id] = p
}

// AddFile stores the content served for a datalake path
func (a *Aggregator) AddFile(fullPath string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[fullPath] = data
}

// Lock makes pulls and queue requests for a provider answer 423
func (a *Aggregator) Lock(providerUUID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked[providerUUID] = true
}

// Unlock releases a provider locked with Lock
func (a *Aggregator) Unlock(providerUUID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.locked, providerUUID)
}

// SetLatency delays every response
func (a *Aggregator) SetLatency(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latency = d
}

// Calls returns how many requests a route has served
func (a *Aggregator) Calls(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[route]
}

// Harvest adds a file to the listing of a source for one date
func (a *Aggregator) Harvest(providerUUID, sourceUUID, date string, file models.DatalakeFile, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.providers[providerUUID]
	if !ok {
		return
	}
	if p.Harvests[sourceUUID] == nil {
		p.Harvests[sourceUUID] = make(map[string][]models.DatalakeFile)
	}
	p.Harvests[sourceUUID][date] = append(p.Harvests[sourceUUID][date], file)
	if data != nil {
		a.files[file.FullPath] = data
	}
}

// NewVersion replaces the source version of a provider, as a manifest
// change on the institution's side would
func (a *Aggregator) NewVersion(providerUUID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.providers[providerUUID]
	if !ok {
		return ""
	}
	return a.bumpVersionLocked(p)
}

func (a *Aggregator) bumpVersionLocked(p *AggregatorProvider) string {
	next := 1
	if p.Version != nil {
		next = p.Version.VersionID + 1
	}
	id := uuid.NewString()
	p.Version = &models.SourceVersion{
		SourceVersionUUID: id,
		ProviderUUID:      p.Details.ProviderUUID,
		VersionID:         next,
		VersionDate:       models.Timestamp{Time: time.Now().UTC()},
	}
	for i := range p.Sources {
		p.Sources[i].SourceVersionUUID = id
	}
	return id
}

// App builds the fiber app serving the aggregator routes
func (a *Aggregator) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		a.mu.Lock()
		a.calls[c.Path()]++
		latency := a.latency
		a.mu.Unlock()
		if latency > 0 {
			time.Sleep(latency)
		}
		return c.Next()
	})

	app.Get(routes.GetRoute(routes.HealthCheck), a.health)
	app.Get(routes.GetRoute(routes.GetAllProviders), a.searchProviders)
	app.Get(routes.GetRoute(routes.GetProvider), a.getProvider)
	app.Get(routes.GetRoute(routes.ListDatalakeDates), a.listDates)
	app.Get(routes.GetRoute(routes.ListDatalakeFiles), a.listFiles)
	app.Post(routes.GetRoute(routes.PullManifest), a.pullManifest)
	app.Post(routes.GetRoute(routes.QueueProviderData), a.queueProviderData)
	app.Get(routes.GetRoute(routes.DownloadDatalakeFile), a.downloadFile)
	return app
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

func (a *Aggregator) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "database": "connected"})
}

func (a *Aggregator) searchProviders(c *fiber.Ctx) error {
	page := c.QueryInt("page", types.DefaultPage)
	pageSize := c.QueryInt("page_size", types.DefaultPageSize)
	if page < 1 || pageSize < 1 || pageSize > types.MaxPageSize {
		return detail(c, fiber.StatusUnprocessableEntity, "invalid pagination")
	}
	term := strings.ToLower(strings.TrimSpace(c.Query("search_provider")))

	a.mu.Lock()
	matches := lo.FilterMap(a.order, func(id string, _ int) (models.Provider, bool) {
		p := a.providers[id]
		if term != "" && !strings.Contains(strings.ToLower(p.Details.ProviderName), term) {
			return models.Provider{}, false
		}
		return models.Provider{
			ProviderUUID: p.Details.ProviderUUID,
			ProviderName: p.Details.ProviderName,
			DeqarID:      p.Details.DeqarID,
			EterID:       p.Details.EterID,
		}, true
	})
	a.mu.Unlock()

	start := min((page-1)*pageSize, len(matches))
	end := min(start+pageSize, len(matches))
	return c.JSON(types.SearchProvidersResponse{
		Response:   matches[start:end],
		Total:      len(matches),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(len(matches)) / float64(pageSize))),
	})
}

// provider looks up the provider named by the provider_uuid query parameter
func (a *Aggregator) provider(c *fiber.Ctx) (*AggregatorProvider, error) {
	id := c.Query("provider_uuid")
	if _, err := uuid.Parse(id); err != nil {
		return nil, detail(c, fiber.StatusUnprocessableEntity, "invalid provider_uuid")
	}
	p, ok := a.providers[id]
	if !ok {
		return nil, detail(c, fiber.StatusNotFound, "Provider not found")
	}
	return p, nil
}

func (a *Aggregator) getProvider(c *fiber.Ctx) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, err := a.provider(c)
	if p == nil {
		return err
	}
	resp := types.GetProviderResponse{
		Provider: p.Details,
		Sources:  append([]models.Source{}, p.Sources...),
	}
	if p.Version != nil {
		v := *p.Version
		resp.SourceVersion = &v
	}
	return c.JSON(resp)
}

// harvests returns the harvest listing of the source named in the query.
// When ok is false the error response has been written.
func (a *Aggregator) harvests(c *fiber.Ctx) (h map[string][]models.DatalakeFile, ok bool, err error) {
	p, err := a.provider(c)
	if p == nil {
		return nil, false, err
	}
	if p.Version == nil || c.Query("source_version_uuid") != p.Version.SourceVersionUUID {
		return nil, false, detail(c, fiber.StatusNotFound, "Source version not found")
	}
	sourceUUID := c.Query("source_uuid")
	if !lo.ContainsBy(p.Sources, func(s models.Source) bool { return s.SourceUUID == sourceUUID }) {
		return nil, false, detail(c, fiber.StatusNotFound, "Source not found")
	}
	return p.Harvests[sourceUUID], true, nil
}

func sortedDates(h map[string][]models.DatalakeFile) []string {
	dates := lo.Keys(h)
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func (a *Aggregator) listDates(c *fiber.Ctx) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok, err := a.harvests(c)
	if !ok {
		return err
	}
	dates := sortedDates(h)
	resp := types.DatalakeDatesResponse{
		Status:  "success",
		Message: fmt.Sprintf("Found %d dates", len(dates)),
		Dates:   dates,
		Count:   len(dates),
	}
	if len(dates) > 0 {
		resp.LatestDate = &dates[0]
	}
	return c.JSON(resp)
}

func (a *Aggregator) listFiles(c *fiber.Ctx) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok, err := a.harvests(c)
	if !ok {
		return err
	}
	if c.Query("source_path") == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "source_path is required")
	}

	date, dateSource := c.Query("date"), "query"
	if date == "" {
		dateSource = "latest"
		if dates := sortedDates(h); len(dates) > 0 {
			date = dates[0]
		}
	}
	files := append([]models.DatalakeFile{}, h[date]...)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].LastModified.Before(files[j].LastModified.Time)
	})

	resp := types.DatalakeFilesResponse{
		Status:  "success",
		Message: fmt.Sprintf("Found %d files", len(files)),
		Params: types.DatalakeFilesParamsEcho{
			ProviderUUID:      c.Query("provider_uuid"),
			SourceVersionUUID: c.Query("source_version_uuid"),
			SourceUUID:        c.Query("source_uuid"),
			Date:              date,
			DateSource:        dateSource,
		},
		Files: files,
		Count: len(files),
	}
	if len(files) > 0 {
		last := files[len(files)-1]
		resp.LastFilePushed = &last.Filename
		resp.LastFilePushedDate = &date
		resp.LastFilePushedPath = &last.FullPath
	}
	return c.JSON(resp)
}

func (a *Aggregator) pullManifest(c *fiber.Ctx) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, err := a.provider(c)
	if p == nil {
		return err
	}
	if a.locked[p.Details.ProviderUUID] {
		return detail(c, client.StatusTooManyRequestsLock, "Provider is being processed")
	}

	d := p.Discovery
	p.Details.LastManifestPull = models.Timestamp{Time: time.Now().UTC()}
	if d.Methods != nil {
		p.Details.ManifestJSON = d.Methods
	}
	resp := types.PullManifestResponse{
		Status:        "success",
		ProviderUUID:  p.Details.ProviderUUID,
		Domain:        websiteDomain(p.Details.Metadata.WebsiteLink),
		ManifestFound: d.ManifestURL != "",
		ManifestJSON:  p.Details.ManifestJSON,
	}
	if d.ManifestURL != "" {
		resp.ManifestURL = &d.ManifestURL
		resp.SourcesProcessed = true
	}
	if d.NewVersion {
		a.bumpVersionLocked(p)
		resp.NewSourceVersionCreated = true
	}
	return c.JSON(resp)
}

func (a *Aggregator) queueProviderData(c *fiber.Ctx) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, err := a.provider(c)
	if p == nil {
		return err
	}
	if a.locked[p.Details.ProviderUUID] {
		return detail(c, client.StatusTooManyRequestsLock, "Provider is being processed")
	}
	if p.Version == nil || c.Query("source_version_uuid") != p.Version.SourceVersionUUID {
		return detail(c, client.StatusOutdatedVersion, "Source version is outdated")
	}
	if c.Query("source_path") == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "source_path is required")
	}
	return c.JSON(types.QueueProviderDataResponse{
		Status:  "queued",
		Message: "Source queued for harvesting",
		Queue:   "harvest",
	})
}

func (a *Aggregator) downloadFile(c *fiber.Ctx) error {
	filePath := c.Query("file_path")
	preview, _ := strconv.ParseBool(c.Query("preview", "false"))

	a.mu.Lock()
	data, ok := a.files[filePath]
	a.mu.Unlock()
	if !ok {
		return detail(c, fiber.StatusNotFound, "File not found")
	}

	if strings.HasSuffix(filePath, ".json") {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	}
	if !preview {
		c.Attachment(path.Base(filePath))
	}
	return c.Send(data)
}

func websiteDomain(link string) string {
	link = strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
	host, _, _ := strings.Cut(link, "/")
	return strings.TrimPrefix(host, "www.")
}
