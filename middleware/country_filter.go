package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// ContactCountryFilter rejects contact form submissions originating from the
// configured blocklist of countries, a light spam screen for the one public
// write endpoint. Lookups are best-effort: private IPs, lookup failures and
// unknown countries all pass through.
func ContactCountryFilter() gin.HandlerFunc {
	cfg := config.Get()
	blocked := toCountrySet(cfg.ContactBlockedCountries)
	if len(blocked) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if utils.IsPrivateIP(ip) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		country, err := utils.GetIPCountry(ctx, ip)
		if err != nil || country == "" {
			c.Next()
			return
		}

		if _, deny := blocked[strings.ToLower(utils.NormalizeCountryName(country))]; deny {
			utils.Error(c, http.StatusForbidden, 40302, "submissions from your region are not accepted")
			c.Abort()
			return
		}
		c.Next()
	}
}

// toCountrySet folds configured names to lower case so matching ignores how
// the operator typed them.
func toCountrySet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		v = strings.ToLower(utils.NormalizeCountryName(strings.TrimSpace(v)))
		if v == "" {
			continue
		}
		m[v] = struct{}{}
	}
	return m
}
