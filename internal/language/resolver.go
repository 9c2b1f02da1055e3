// Package language suggests a UI language from the caller's IP address.
package language

import (
	"errors"
	"fmt"
	"net"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oschwald/geoip2-golang"
)

var ErrNoDatabase = errors.New("no geoip database configured")

// CountryResolver maps an IP address to an ISO 3166-1 alpha-2 country code.
// An empty code means the address is not in the database.
type CountryResolver interface {
	Country(ip net.IP) (string, error)
	Close() error
}

type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// GeoIPResolver looks countries up in a MaxMind database and caches results.
type GeoIPResolver struct {
	reader countryReader
	cache  *lru.Cache[string, string]
}

// OpenGeoIP opens the mmdb file at path.
func OpenGeoIP(path string, cacheSize int) (*GeoIPResolver, error) {
	if path == "" {
		return nil, ErrNoDatabase
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	resolver, err := newGeoIPResolver(reader, cacheSize)
	if err != nil {
		reader.Close()
		return nil, err
	}
	return resolver, nil
}

func newGeoIPResolver(reader countryReader, cacheSize int) (*GeoIPResolver, error) {
	if cacheSize < 1 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &GeoIPResolver{reader: reader, cache: cache}, nil
}

func (g *GeoIPResolver) Country(ip net.IP) (string, error) {
	key := ip.String()
	if code, ok := g.cache.Get(key); ok {
		return code, nil
	}

	record, err := g.reader.Country(ip)
	if err != nil {
		return "", err
	}
	code := record.Country.IsoCode
	g.cache.Add(key, code)
	return code, nil
}

func (g *GeoIPResolver) Close() error {
	return g.reader.Close()
}
