package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LocalhostOnly restricts a route to loopback callers and an allowlist of IPs or CIDRs
type LocalhostOnly struct {
	logger   *logrus.Logger
	allowed  []net.IP
	networks []*net.IPNet
}

// NewLocalhostOnly parses allowedIPs; invalid entries are logged and skipped
func NewLocalhostOnly(logger *logrus.Logger, allowedIPs []string) *LocalhostOnly {
	l := &LocalhostOnly{logger: logger}
	for _, entry := range allowedIPs {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.WithError(err).WithField("cidr", entry).Warn("Invalid CIDR in allowed IPs")
				continue
			}
			l.networks = append(l.networks, ipNet)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			l.allowed = append(l.allowed, ip)
		} else {
			logger.WithField("ip", entry).Warn("Invalid IP in allowed IPs")
		}
	}
	return l
}

// Restrict aborts with 403 for callers outside the allowlist
func (l *LocalhostOnly) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !l.isAllowedIP(clientIP) {
			l.logger.WithFields(logrus.Fields{
				"client_ip": clientIP,
				"path":      c.Request.URL.Path,
				"method":    c.Request.Method,
			}).Warn("Reject non-whitelisted access")

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "This API is only accessible from allowed IP addresses",
				"code":    "IP_NOT_ALLOWED",
			})
			return
		}
		c.Next()
	}
}

func (l *LocalhostOnly) isAllowedIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	if parsed.IsLoopback() {
		return true
	}
	for _, allowed := range l.allowed {
		if allowed.Equal(parsed) {
			return true
		}
	}
	for _, ipNet := range l.networks {
		if ipNet.Contains(parsed) {
			return true
		}
	}
	return false
}
