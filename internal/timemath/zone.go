package timemath

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vthunder/chronos/internal/apperr"
)

// Sentinel zone names resolved to the host's local zone
const (
	ZoneSystem = "system"
	ZoneLocal  = "local"
)

// IsSentinel reports whether spec names the host zone rather than an IANA zone
func IsSentinel(spec string) bool {
	return strings.EqualFold(spec, ZoneSystem) || strings.EqualFold(spec, ZoneLocal)
}

// LoadZone resolves an IANA zone name. Go treats "" as UTC and "Local" as the
// process zone; neither is a real IANA name so both are rejected here.
func LoadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, apperr.New(apperr.KindInvalidTimezone, "Invalid timezone: %q is not an IANA zone name", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidTimezone, err, "Invalid timezone: %s", name)
	}
	return loc, nil
}

// zoneinfo locations searched for the host's configured zone
var (
	timezoneFile  = "/etc/timezone"
	localtimeLink = "/etc/localtime"
)

// DetectLocalZone discovers the IANA name of the host's local zone from TZ,
// /etc/timezone or the /etc/localtime symlink, in that order.
func DetectLocalZone() (string, error) {
	if tz, ok := os.LookupEnv("TZ"); ok && tz != "" {
		name := zoneFromPath(strings.TrimPrefix(tz, ":"))
		if _, err := LoadZone(name); err == nil {
			return name, nil
		}
	}

	if data, err := os.ReadFile(timezoneFile); err == nil {
		name := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
		if _, err := LoadZone(name); err == nil {
			return name, nil
		}
	}

	if target, err := filepath.EvalSymlinks(localtimeLink); err == nil {
		name := zoneFromPath(target)
		if _, err := LoadZone(name); err == nil {
			return name, nil
		}
	}

	return "", apperr.New(apperr.KindConfiguration, "Could not determine local timezone; set an explicit local timezone override")
}

// zoneFromPath strips a zoneinfo directory prefix: /usr/share/zoneinfo/Europe/Paris -> Europe/Paris
func zoneFromPath(p string) string {
	if idx := strings.LastIndex(p, "zoneinfo/"); idx >= 0 {
		return p[idx+len("zoneinfo/"):]
	}
	return p
}
