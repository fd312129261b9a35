// Package geoip defaults a batch's target market from the submitting
// client's IP when the submission names no markets.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"golang.org/x/text/language"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// MarketResolver resolves target markets from IP addresses.
type MarketResolver interface {
	Market(ip string) (string, error)
}

// Resolver provides market lookups backed by a MaxMind GeoIP2 database.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the GeoIP database at the given path. When the path is
// empty, nil is returned and submissions simply carry no default market.
func NewResolver(path string) (MarketResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Market returns the lowercase market code for the provided IP, normalized
// through the language region table so aliases collapse to canonical codes.
func (r *Resolver) Market(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record == nil || record.Country.IsoCode == "" {
		return "", nil
	}
	return NormalizeMarket(record.Country.IsoCode), nil
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// NormalizeMarket canonicalizes a country or market code. Unknown codes pass
// through lowercased so callers never lose the raw value.
func NormalizeMarket(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return strings.ToLower(code)
	}
	return strings.ToLower(region.String())
}
