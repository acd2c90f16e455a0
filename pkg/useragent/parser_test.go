package useragent

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1"
	safariIPad    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	googlebot     = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func TestParseUserAgent(t *testing.T) {
	p := NewDefaultParser(zap.NewNop())

	tests := []struct {
		name       string
		ua         string
		deviceType string
		browser    string
		os         string
	}{
		{"chrome on windows", chromeWindows, "desktop", "Chrome", "Windows"},
		{"safari on iphone", safariIPhone, "mobile", "Mobile Safari", "iOS"},
		{"safari on ipad", safariIPad, "tablet", "Mobile Safari", "iOS"},
		{"googlebot", googlebot, "bot", "Googlebot", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := p.ParseUserAgent(tt.ua)
			assert.Equal(t, tt.deviceType, info.DeviceType)
			assert.Equal(t, tt.browser, info.Browser)
			assert.Equal(t, tt.os, info.OS)
			assert.Equal(t, tt.ua, info.Raw)
		})
	}
}

func TestParseUserAgent_Versions(t *testing.T) {
	p := NewDefaultParser(zap.NewNop())

	info := p.ParseUserAgent(chromeWindows)
	assert.Equal(t, "120.0.0", info.BrowserVersion)
	assert.Equal(t, "10", info.OSVersion)
}

func TestParseUserAgent_Empty(t *testing.T) {
	p := NewDefaultParser(zap.NewNop())

	info := p.ParseUserAgent("")
	assert.Equal(t, "unknown", info.DeviceType)
	assert.Equal(t, "unknown", info.Browser)
	assert.Equal(t, "unknown", info.OS)
	assert.Empty(t, info.BrowserVersion)
}

func TestNewParser_MissingFile(t *testing.T) {
	_, err := NewParser(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	require.Error(t, err)
}

func TestNewParser_EmptyPathUsesEmbedded(t *testing.T) {
	p, err := NewParser("", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "desktop", p.ParseUserAgent(chromeWindows).DeviceType)
}

func TestJoinVersion(t *testing.T) {
	assert.Equal(t, "1.2.3", joinVersion("1", "2", "3"))
	assert.Equal(t, "1.2", joinVersion("1", "2", ""))
	assert.Equal(t, "", joinVersion("", "2", "3"))
}
