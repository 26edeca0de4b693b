// Package geoip resolves client addresses to a country using a local MMDB
// file (MaxMind GeoLite2, DB-IP Lite or IP2Location LITE). No lookups leave
// the process.
package geoip

import (
	"errors"
	"io/fs"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Country is the subset of a lookup the diagnostics report.
type Country struct {
	Code string
	Name string
}

// Reader wraps an opened MMDB database. A nil *Reader is valid and finds nothing.
type Reader struct {
	db *geoip2.Reader
}

// NewReader opens mmdbPath. An empty path or a missing file yields (nil, nil)
// so the feature degrades to "not configured".
func NewReader(mmdbPath string) (*Reader, error) {
	if mmdbPath == "" {
		return nil, nil
	}

	db, err := geoip2.Open(mmdbPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return &Reader{db: db}, nil
}

// LookupCountry returns the country for ip, which may carry a port.
func (r *Reader) LookupCountry(ipStr string) (Country, bool) {
	if r == nil || r.db == nil {
		return Country{}, false
	}

	host, _, err := net.SplitHostPort(ipStr)
	if err != nil {
		host = ipStr
	}
	ip := net.ParseIP(host)
	if ip == nil || isPrivateIP(ip) {
		return Country{}, false
	}

	record, err := r.db.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return Country{}, false
	}
	return Country{Code: record.Country.IsoCode, Name: record.Country.Names["en"]}, true
}

// Close closes the underlying database
func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsPrivate() || ip.IsUnspecified()
}
