package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New("", zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestParse_Desktop(t *testing.T) {
	p := newTestParser(t)

	info := p.Parse("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	assert.Equal(t, "desktop", info.DeviceType)
	assert.Equal(t, "Chrome", info.Browser)
	assert.Equal(t, "Windows", info.OS)
}

func TestParse_Mobile(t *testing.T) {
	p := newTestParser(t)

	info := p.Parse("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")

	assert.Equal(t, "mobile", info.DeviceType)
	assert.Equal(t, "iOS", info.OS)
}

func TestParse_Tablet(t *testing.T) {
	p := newTestParser(t)

	info := p.Parse("Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1")

	assert.Equal(t, "tablet", info.DeviceType)
}

func TestParse_Bot(t *testing.T) {
	p := newTestParser(t)

	info := p.Parse("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	assert.Equal(t, "bot", info.DeviceType)
}

func TestParse_Empty(t *testing.T) {
	p := newTestParser(t)

	info := p.Parse("")

	assert.Equal(t, DefaultDeviceType, info.DeviceType)
	assert.Equal(t, DefaultName, info.Browser)
	assert.Equal(t, DefaultName, info.OS)
}

func TestParse_Garbage(t *testing.T) {
	p := newTestParser(t)

	info := p.Parse("not-a-real-user-agent")

	assert.Equal(t, DefaultDeviceType, info.DeviceType)
	assert.Equal(t, DefaultName, info.Browser)
	assert.Equal(t, DefaultName, info.OS)
}

func TestNew_MissingRegexFileFallsBack(t *testing.T) {
	p, err := New("does/not/exist.yaml", zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, p)

	info := p.Parse("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Equal(t, "desktop", info.DeviceType)
}
