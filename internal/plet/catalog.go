package plet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// DefaultSiteURL is the lifeforms page carrying the dataset selector.
const DefaultSiteURL = "https://www.dassh.ac.uk/lifeforms/"

// placeholderEntry is the non-selectable first option of the dataset
// select control.
const placeholderEntry = "select a dataset"

// CatalogConfig controls the dataset listing scrape.
type CatalogConfig struct {
	SiteURL   string
	UserAgent string
	Timeout   time.Duration
}

// Catalog lists harvestable dataset names from the PLET site.
type Catalog struct {
	cfg    CatalogConfig
	base   *colly.Collector
	logger *zap.Logger
}

// NewCatalog builds a Catalog.
func NewCatalog(cfg CatalogConfig, logger *zap.Logger) *Catalog {
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.AllowURLRevisit = true
	c.SetRequestTimeout(cfg.Timeout)
	return &Catalog{cfg: cfg, base: c, logger: logger}
}

// DatasetNames scrapes the dataset select control and returns the
// trimmed text of every selectable option, in page order. A page
// without the select control yields an empty list and a warning, not
// an error.
func (c *Catalog) DatasetNames(ctx context.Context) ([]string, error) {
	collector := c.base.Clone()

	var names []string
	found := false
	collector.OnHTML("select#abundance_dataset", func(e *colly.HTMLElement) {
		found = true
		e.ForEach("option", func(_ int, opt *colly.HTMLElement) {
			text := strings.TrimSpace(opt.Text)
			if text == "" || opt.Attr("value") == "" {
				return
			}
			if strings.Contains(strings.ToLower(text), placeholderEntry) {
				return
			}
			names = append(names, text)
		})
	})

	var fetchErr error
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(c.cfg.SiteURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("catalog fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetch catalog page: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("catalog page response: %w", fetchErr)
		}
	}

	if !found {
		c.logger.Warn("dataset select control not found on catalog page",
			zap.String("url", c.cfg.SiteURL))
		return nil, nil
	}
	c.logger.Info("dataset catalog listed", zap.Int("datasets", len(names)))
	return names, nil
}
