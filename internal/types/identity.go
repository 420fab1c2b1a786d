package types

import (
	"strings"
)

const (
	Platform              = "iot"
	TrackerVersion        = "iotrack-0.1.0"
	DefaultUserAgent      = "iotrack/0.1.0"
	DefaultCollectorPort  = 80
	DefaultCollectorPath  = "/i"
	cloudFrontDomain      = ".cloudfront.net"
	StructuredEventMarker = "se"
)

// Identity is tracker-wide fields sent with every event.
// Built once at startup; only UserId may change afterwards.
type Identity struct {
	Platform       string
	TrackerVersion string
	UserAgent      string
	AppId          string
	UserId         string
	Mac            string

	CollectorHost string
	CollectorPort int
	CollectorPath string
}

// DefaultIdentity fills constants, caller sets AppId, Mac, collector.
func DefaultIdentity() Identity {
	return Identity{
		Platform:       Platform,
		TrackerVersion: TrackerVersion,
		UserAgent:      DefaultUserAgent,
		CollectorPort:  DefaultCollectorPort,
		CollectorPath:  DefaultCollectorPath,
	}
}

// CloudFrontHost is collector hostname for a CloudFront hosted collector.
// "d3rkrsqld9gmqf" -> "d3rkrsqld9gmqf.cloudfront.net"
func CloudFrontHost(subdomain string) string {
	return strings.TrimSuffix(subdomain, cloudFrontDomain) + cloudFrontDomain
}
