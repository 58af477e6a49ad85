package web

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/services"
)

type searchRequest struct {
	Q string `json:"q" form:"q"`
}

type selectRequest struct {
	ProviderUUID string `json:"provider_uuid" form:"provider_uuid"`
}

type dateRequest struct {
	Date string `json:"date" form:"date"`
}

type themeRequest struct {
	Theme  string `json:"theme" form:"theme"`
	Toggle bool   `json:"toggle" form:"toggle"`
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

func (s *Server) index(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	return s.render(c, fiber.StatusOK, s.pages.index, indexPage{
		basePage: s.basePage(c),
		Search:   sess.Search.State(),
		MinChars: sess.Search.Options().MinChars,
	})
}

func (s *Server) searchInput(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid search request: %v", err)
	}
	sess := s.sessions.Lookup(c)
	sess.Search.Input(req.Q)
	return c.JSON(sess.Search.State())
}

func (s *Server) searchResults(c *fiber.Ctx) error {
	return c.JSON(s.sessions.Lookup(c).Search.State())
}

func (s *Server) searchSelect(c *fiber.Ctx) error {
	var req selectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid selection: %v", err)
	}
	if req.ProviderUUID == "" {
		return dashboard.ErrNoProvider
	}
	sess := s.sessions.Lookup(c)
	if !sess.Search.SelectByID(req.ProviderUUID) {
		return fiber.NewError(fiber.StatusNotFound, "provider is not among the current suggestions")
	}
	return c.JSON(fiber.Map{
		"provider_uuid": req.ProviderUUID,
		"location":      "/providers/" + req.ProviderUUID,
	})
}

// loaded returns the session dashboard showing the provider of the route,
// loading it first when another (or no) provider is shown.
func (s *Server) loaded(c *fiber.Ctx, sess *Session) (*dashboard.Dashboard, error) {
	providerUUID := strings.TrimSpace(c.Params("uuid"))
	if providerUUID == "" {
		return nil, dashboard.ErrNoProvider
	}
	d := sess.Dashboard
	if _, ok := d.Data(); ok && d.ProviderUUID() == providerUUID {
		return d, nil
	}
	if err := d.Load(c.UserContext(), providerUUID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Server) showProvider(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	if c.QueryBool("reload") {
		if err := sess.Dashboard.Load(c.UserContext(), c.Params("uuid")); err != nil {
			return s.providerError(c, err)
		}
	}
	d, err := s.loaded(c, sess)
	if err != nil {
		return s.providerError(c, err)
	}
	view, err := d.View()
	if err != nil {
		return err
	}
	if wantsJSON(c) {
		return c.JSON(view)
	}
	return s.render(c, fiber.StatusOK, s.pages.provider, providerPage{
		basePage: s.basePage(c),
		View:     view,
	})
}

func (s *Server) providerError(c *fiber.Ctx, err error) error {
	logger.WarnWithFields("failed to show provider", map[string]interface{}{
		"provider_uuid": c.Params("uuid"),
		"error":         err.Error(),
	})
	if wantsJSON(c) {
		return err
	}
	return s.render(c, statusFor(err), s.pages.provider, providerPage{
		basePage: s.basePage(c),
		Error:    dashboard.Describe(err),
	})
}

func (s *Server) refreshProvider(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	d, err := s.loaded(c, sess)
	if err != nil {
		return err
	}
	if !d.RefreshTrigger().Enabled() {
		return dashboard.ErrTriggerDisabled
	}
	sess.Go(func(ctx context.Context) {
		if _, err := d.RefreshDiscovery(ctx); err != nil {
			logger.Debugf("refresh discovery ended with error: %v", err)
		}
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *Server) sourceRow(d *dashboard.Dashboard, sourceUUID string) (dashboard.SourceRow, error) {
	view, err := d.View()
	if err != nil {
		return dashboard.SourceRow{}, err
	}
	row, ok := lo.Find(view.Sources, func(r dashboard.SourceRow) bool { return r.ID == sourceUUID })
	if !ok {
		return dashboard.SourceRow{}, dashboard.ErrUnknownSource
	}
	return row, nil
}

func (s *Server) expandSource(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	d, err := s.loaded(c, sess)
	if err != nil {
		return err
	}
	sourceUUID := c.Params("source")
	if err := d.ExpandSource(c.UserContext(), sourceUUID); err != nil {
		return err
	}
	row, err := s.sourceRow(d, sourceUUID)
	if err != nil {
		return err
	}
	return c.JSON(row)
}

func (s *Server) collapseSource(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	d, err := s.loaded(c, sess)
	if err != nil {
		return err
	}
	sourceUUID := c.Params("source")
	if _, err := d.Source(sourceUUID); err != nil {
		return err
	}
	d.Expander().Collapse(sourceUUID)
	row, err := s.sourceRow(d, sourceUUID)
	if err != nil {
		return err
	}
	return c.JSON(row)
}

func (s *Server) selectSourceDate(c *fiber.Ctx) error {
	var req dateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid date selection: %v", err)
	}
	if req.Date == "" {
		return badRequest("date is required")
	}
	sess := s.sessions.Lookup(c)
	d, err := s.loaded(c, sess)
	if err != nil {
		return err
	}
	sourceUUID := c.Params("source")
	if err := d.SelectDate(c.UserContext(), sourceUUID, req.Date); err != nil {
		return err
	}
	row, err := s.sourceRow(d, sourceUUID)
	if err != nil {
		return err
	}
	return c.JSON(row)
}

func (s *Server) queueSource(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	d, err := s.loaded(c, sess)
	if err != nil {
		return err
	}
	sourceUUID := c.Params("source")
	if _, err := d.Source(sourceUUID); err != nil {
		return err
	}
	if data, _ := d.Data(); data.SourceVersionUUID() == "" {
		return dashboard.ErrNoSourceVersion
	}
	if !d.QueueTrigger(sourceUUID).Enabled() {
		return dashboard.ErrTriggerDisabled
	}
	sess.Go(func(ctx context.Context) {
		if _, err := d.QueueDataFetch(ctx, sourceUUID); err != nil {
			logger.Debugf("queue data fetch ended with error: %v", err)
		}
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *Server) previewFile(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	preview, err := sess.Dashboard.Preview(c.UserContext(), c.Query("filename"), c.Query("file_path"))
	if err != nil {
		return err
	}
	return c.JSON(preview)
}

func (s *Server) downloadFile(c *fiber.Ctx) error {
	sess := s.sessions.Lookup(c)
	file, err := sess.Dashboard.Download(c.UserContext(), c.Query("filename"), c.Query("file_path"))
	if err != nil {
		return err
	}
	c.Attachment(file.Filename)
	if file.ContentType != "" {
		c.Set(fiber.HeaderContentType, file.ContentType)
	}
	return c.Send(file.Data)
}

func (s *Server) listToasts(c *fiber.Ctx) error {
	return c.JSON(s.sessions.Lookup(c).Toasts.List())
}

func (s *Server) hideToast(c *fiber.Ctx) error {
	s.sessions.Lookup(c).Toasts.Hide(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) currentTheme(c *fiber.Ctx) string {
	if s.theme == nil {
		return services.DefaultTheme
	}
	theme, err := s.theme.Get(c.UserContext())
	if err != nil {
		logger.Warnf("failed to read theme: %v", err)
	}
	return theme
}

func (s *Server) getTheme(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"theme":  s.currentTheme(c),
		"themes": services.Themes,
	})
}

func (s *Server) setTheme(c *fiber.Ctx) error {
	if s.theme == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "theme store is not configured")
	}
	var req themeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid theme request: %v", err)
	}

	var err error
	theme := req.Theme
	if req.Toggle || theme == "" {
		theme, err = s.theme.Toggle(c.UserContext())
	} else {
		err = s.theme.Set(c.UserContext(), theme)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"theme": theme})
}
