package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Country lookups feed the contact blocklist and message metadata. Results
// are cached in-process and in Redis for a day; failures leave the country
// empty so a flaky lookup service never takes the contact form down.

const (
	countryTTL         = 24 * time.Hour
	countryLookupURL   = "https://api.cloudcpp.com/ip/"
	countryRedisPrefix = "ipcountry:"
)

var ipLookupClient = &http.Client{Timeout: 3 * time.Second}

type countryEntry struct {
	value     string
	expiresAt time.Time
}

var countryCache = struct {
	sync.RWMutex
	m map[string]countryEntry
}{m: make(map[string]countryEntry)}

// NormalizeCountryName reduces a location string to its leading country
// segment (providers answer with "country–region–city carrier" strings).
// A name without a separator is already a country and passes through whole,
// which keeps the function idempotent for multi-word countries.
func NormalizeCountryName(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	dashMapped := strings.Map(func(r rune) rune {
		switch r {
		case '-', '–', '—', '‑', '‒', '﹣', '－':
			return '-'
		default:
			return r
		}
	}, s)
	if idx := strings.IndexRune(dashMapped, '-'); idx >= 0 {
		return strings.TrimSpace(dashMapped[:idx])
	}
	return s
}

// IsPrivateIP reports whether ip sits in loopback or RFC 1918 space.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}

// GetIPCountry resolves the country for a public IP. Private and unparsable
// addresses resolve to the empty string without any lookup.
func GetIPCountry(ctx context.Context, ip string) (string, error) {
	if ip == "" || IsPrivateIP(ip) {
		return "", nil
	}
	if v, ok := cachedCountry(ctx, ip); ok {
		return v, nil
	}

	country, err := fetchCountry(ctx, ip)
	if err != nil {
		return "", err
	}
	if country != "" {
		storeCountry(ctx, ip, country)
	}
	return country, nil
}

func fetchCountry(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, countryLookupURL+ip, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "PortfolioAPI/1.0")

	resp, err := ipLookupClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.New("ip lookup answered " + resp.Status)
	}

	var body struct {
		IP       string `json:"ip"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return NormalizeCountryName(body.Location), nil
}

// cachedCountry checks the in-process map first, then Redis, refreshing the
// map on a Redis hit.
func cachedCountry(ctx context.Context, ip string) (string, bool) {
	countryCache.RLock()
	e, ok := countryCache.m[ip]
	countryCache.RUnlock()
	if ok {
		if time.Now().Before(e.expiresAt) {
			return e.value, true
		}
		countryCache.Lock()
		delete(countryCache.m, ip)
		countryCache.Unlock()
	}

	rctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	val, err := GetRedis().Get(rctx, countryRedisPrefix+ip).Result()
	if err != nil || val == "" {
		return "", false
	}
	cacheCountryLocal(ip, val)
	return val, true
}

func storeCountry(ctx context.Context, ip, country string) {
	cacheCountryLocal(ip, country)

	rctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	if err := GetRedis().Set(rctx, countryRedisPrefix+ip, country, countryTTL).Err(); err != nil {
		Sugar.Debugf("country cache store failed ip=%s err=%v", ip, err)
	}
}

func cacheCountryLocal(ip, country string) {
	countryCache.Lock()
	countryCache.m[ip] = countryEntry{value: country, expiresAt: time.Now().Add(countryTTL)}
	countryCache.Unlock()
}
