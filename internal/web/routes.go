package web

import (
	"github.com/gofiber/fiber/v2"
)

/*

Routes are grouped by page:

1. Health and search (the landing page)
2. Provider dashboard and its source actions
3. Files, toasts, theme

Names match the handler they call (i.e. QueueSource, PreviewFile).

*/

// Route names for lookup
const (
	HealthCheck = "HealthCheck"

	Index         = "Index"
	SearchInput   = "SearchInput"
	SearchResults = "SearchResults"
	SearchSelect  = "SearchSelect"

	ShowProvider     = "ShowProvider"
	RefreshProvider  = "RefreshProvider"
	ExpandSource     = "ExpandSource"
	CollapseSource   = "CollapseSource"
	SelectSourceDate = "SelectSourceDate"
	QueueSource      = "QueueSource"

	PreviewFile  = "PreviewFile"
	DownloadFile = "DownloadFile"

	ListToasts = "ListToasts"
	HideToast  = "HideToast"

	GetTheme = "GetTheme"
	SetTheme = "SetTheme"
)

func (s *Server) registerRoutes() {
	app := s.app

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	}).Name(HealthCheck)

	app.Get("/", s.index).Name(Index)
	app.Get("/search/results", s.searchResults).Name(SearchResults)
	app.Post("/search", s.searchInput).Name(SearchInput)
	app.Post("/search/select", s.searchSelect).Name(SearchSelect)

	providers := app.Group("/providers/:uuid")
	providers.Get("/", s.showProvider).Name(ShowProvider)
	providers.Post("/refresh", s.refreshProvider).Name(RefreshProvider)
	providers.Post("/sources/:source/expand", s.expandSource).Name(ExpandSource)
	providers.Post("/sources/:source/collapse", s.collapseSource).Name(CollapseSource)
	providers.Post("/sources/:source/date", s.selectSourceDate).Name(SelectSourceDate)
	providers.Post("/sources/:source/queue", s.queueSource).Name(QueueSource)

	files := app.Group("/files")
	files.Get("/download", s.downloadFile).Name(DownloadFile)
	files.Get("/preview", s.previewFile).Name(PreviewFile)

	app.Get("/toasts", s.listToasts).Name(ListToasts)
	app.Delete("/toasts/:id", s.hideToast).Name(HideToast)

	app.Get("/theme", s.getTheme).Name(GetTheme)
	app.Post("/theme", s.setTheme).Name(SetTheme)
}
