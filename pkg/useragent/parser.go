package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

const unknown = "unknown"

// Parser wraps the uap-go parser with device type classification.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo is the parsed view of a User-Agent header.
// Versions are empty when the parser could not determine them.
type DeviceInfo struct {
	DeviceType     string // mobile, desktop, tablet, bot, unknown
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	Raw            string
}

// NewParser loads regexes from regexFilePath. An empty path uses the
// definitions compiled into uap-go.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if regexFilePath == "" {
		log.Info("User-Agent parser initialized from embedded definitions")
		return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
	}

	if _, err := os.Stat(regexFilePath); err != nil {
		return nil, fmt.Errorf("regexes file not found at %s: %w", regexFilePath, err)
	}

	parser, err := uaparser.New(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized successfully", zap.String("regexes_file", regexFilePath))

	return &Parser{parser: parser, log: log}, nil
}

// NewDefaultParser returns a parser over the embedded definitions.
func NewDefaultParser(log *zap.Logger) *Parser {
	return &Parser{parser: uaparser.NewFromSaved(), log: log}
}

// ParseUserAgent never fails: unrecognized input yields "unknown" fields.
func (p *Parser) ParseUserAgent(userAgent string) *DeviceInfo {
	if userAgent == "" {
		return &DeviceInfo{
			DeviceType: unknown,
			Browser:    unknown,
			OS:         unknown,
		}
	}

	client := p.parser.Parse(userAgent)

	info := &DeviceInfo{
		Browser:        formatFamily(client.UserAgent.Family),
		BrowserVersion: joinVersion(client.UserAgent.Major, client.UserAgent.Minor, client.UserAgent.Patch),
		OS:             formatFamily(client.Os.Family),
		OSVersion:      joinVersion(client.Os.Major, client.Os.Minor, client.Os.Patch),
		Raw:            userAgent,
	}
	info.DeviceType = determineDeviceType(client, userAgent)

	p.log.Debug("parsed User-Agent",
		zap.String("device_type", info.DeviceType),
		zap.String("browser", info.Browser),
		zap.String("os", info.OS),
	)

	return info
}

func determineDeviceType(client *uaparser.Client, userAgent string) string {
	if isBot(client.UserAgent.Family, userAgent) {
		return "bot"
	}

	deviceFamily := client.Device.Family
	if deviceFamily != "" && deviceFamily != "Other" {
		if containsAny(deviceFamily, tabletDevices) {
			return "tablet"
		}
		if containsAny(deviceFamily, mobileDevices) {
			return "mobile"
		}
	}

	osFamily := client.Os.Family
	if containsAny(osFamily, mobileOS) {
		if isTabletOS(osFamily, userAgent) {
			return "tablet"
		}
		return "mobile"
	}

	if containsAny(osFamily, desktopOS) {
		return "desktop"
	}

	return unknown
}

var (
	botIndicators = []string{
		"Googlebot", "Bingbot", "Slurp", "DuckDuckBot", "Baiduspider",
		"YandexBot", "facebookexternalhit", "Twitterbot", "LinkedInBot",
		"WhatsApp", "Telegram", "SkypeUriPreview", "bot", "crawler",
		"spider", "scraper",
	}
	mobileDevices = []string{"iPhone", "Android", "BlackBerry", "Windows Phone", "Mobile", "Phone"}
	tabletDevices = []string{"iPad", "Tablet", "Kindle", "Surface"}
	mobileOS      = []string{"iOS", "Android", "Windows Phone", "BlackBerry OS", "Firefox OS", "Sailfish OS"}
	desktopOS     = []string{
		"Windows", "Mac OS X", "macOS", "Linux", "Ubuntu",
		"Chrome OS", "FreeBSD", "OpenBSD", "NetBSD",
	}
)

func isBot(family, userAgent string) bool {
	return containsAny(family, botIndicators) || containsAny(userAgent, botIndicators)
}

// iPads report iOS; Android tablets omit "Mobile" from the UA.
func isTabletOS(osFamily, userAgent string) bool {
	if containsFold(osFamily, "iOS") {
		return containsFold(userAgent, "iPad")
	}
	if containsFold(osFamily, "Android") {
		return !containsFold(userAgent, "Mobile")
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if containsFold(s, n) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	if s == "" || substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func formatFamily(s string) string {
	if s == "" || s == "Other" {
		return unknown
	}
	return s
}

func joinVersion(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p == "" {
			break
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}
