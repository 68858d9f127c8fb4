// Package regions provides the OSPAR COMP region geometry provider,
// backed by the ODIMS WFS GeoJSON endpoint.
package regions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"
	"go.uber.org/zap"
)

// Config controls the region provider.
type Config struct {
	// URL is the WFS GetFeature endpoint returning a GeoJSON
	// FeatureCollection of the COMP assessment units.
	URL string
	// MaxWKTChars bounds the serialized geometry; longer WKT makes the
	// query URL exceed the remote's limits (HTTP 414).
	MaxWKTChars int
	Timeout     time.Duration
}

// Provider holds the fetched region features indexed by their ID
// property.
type Provider struct {
	cfg      Config
	order    []string
	features map[string]orb.Geometry
	logger   *zap.Logger
}

// New fetches the feature collection from cfg.URL and indexes it.
func New(ctx context.Context, cfg Config, httpClient *http.Client, logger *zap.Logger) (*Provider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("regions url is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build regions request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch regions: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch regions: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read regions body: %w", err)
	}
	return FromGeoJSON(data, cfg, logger)
}

// FromGeoJSON builds a Provider from raw GeoJSON bytes.
func FromGeoJSON(data []byte, cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.MaxWKTChars <= 0 {
		cfg.MaxWKTChars = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse regions GeoJSON: %w", err)
	}

	p := &Provider{
		cfg:      cfg,
		features: make(map[string]orb.Geometry, len(fc.Features)),
		logger:   logger,
	}
	for _, f := range fc.Features {
		id, ok := f.Properties["ID"].(string)
		if !ok || id == "" {
			continue
		}
		if _, seen := p.features[id]; seen {
			continue
		}
		p.features[id] = f.Geometry
		p.order = append(p.order, id)
	}
	if len(p.features) == 0 {
		return nil, fmt.Errorf("regions collection has no features with an ID property")
	}
	logger.Info("regions loaded", zap.Int("regions", len(p.order)))
	return p, nil
}

// IDs returns every region identifier in document order.
func (p *Provider) IDs() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Geometry returns the raw geometry for id.
func (p *Provider) Geometry(id string) (orb.Geometry, error) {
	geom, ok := p.features[id]
	if !ok {
		return nil, fmt.Errorf("no region with ID %q", id)
	}
	return geom, nil
}

// WKT serializes the region geometry. With simplifyGeom set, the
// geometry is Douglas-Peucker simplified with a doubling tolerance
// until the WKT fits MaxWKTChars (or the tolerance reaches 1 degree).
func (p *Provider) WKT(id string, simplifyGeom bool) (string, error) {
	geom, err := p.Geometry(id)
	if err != nil {
		return "", err
	}
	if !simplifyGeom {
		return wkt.MarshalString(geom), nil
	}

	tolerance := 0.001
	out := wkt.MarshalString(simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(geom)))
	for len(out) > p.cfg.MaxWKTChars && tolerance < 1.0 {
		tolerance *= 2
		out = wkt.MarshalString(simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(geom)))
	}
	if len(out) > p.cfg.MaxWKTChars {
		p.logger.Warn("region WKT still exceeds limit after simplification",
			zap.String("region", id),
			zap.Int("chars", len(out)),
			zap.Float64("tolerance", tolerance),
		)
	}
	return out, nil
}

// GeoJSON exports a single region as a GeoJSON feature document.
func (p *Provider) GeoJSON(id string) ([]byte, error) {
	geom, err := p.Geometry(id)
	if err != nil {
		return nil, err
	}
	f := geojson.NewFeature(geom)
	f.Properties["ID"] = id
	data, err := f.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal region %s: %w", id, err)
	}
	return data, nil
}
