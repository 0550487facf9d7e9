package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Locator resolves a coarse location label for an IP address from a
// MaxMind city database. It is an optional dependency: a nil Locator is
// valid and resolves nothing.
type Locator struct {
	reader *geoip2.Reader
}

// Open loads the city database at the given path.
func Open(path string) (*Locator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database: %w", err)
	}
	return &Locator{reader: reader}, nil
}

// Lookup returns "City, CC" for the address, falling back to the country
// code alone. Unknown or unparseable addresses yield an empty string.
func (l *Locator) Lookup(ip string) string {
	if l == nil || l.reader == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := l.reader.City(parsed)
	if err != nil {
		return ""
	}
	city := record.City.Names["en"]
	country := record.Country.IsoCode
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case country != "":
		return country
	default:
		return ""
	}
}

// Close releases the underlying database reader.
func (l *Locator) Close() error {
	if l == nil || l.reader == nil {
		return nil
	}
	return l.reader.Close()
}
