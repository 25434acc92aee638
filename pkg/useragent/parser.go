package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

const (
	// DefaultDeviceType is reported when a device cannot be detected.
	DefaultDeviceType = "desktop"
	// DefaultName is reported for an undetected OS or browser.
	DefaultName = "Unknown"
)

// Parser wraps the uap-go User-Agent parser with device type detection.
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo represents parsed device information.
type DeviceInfo struct {
	DeviceType string // desktop, mobile, tablet, bot
	Browser    string // Chrome, Firefox, Safari, ...
	OS         string // Windows, iOS, Android, ...
}

// New creates a User-Agent parser. When regexFilePath is empty or the file
// does not exist, the definitions compiled into uap-go are used.
func New(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if regexFilePath == "" {
		return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
	}

	if _, err := os.Stat(regexFilePath); err != nil {
		log.Warn("User-Agent regexes file not found, using built-in definitions",
			zap.String("path", regexFilePath))
		return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
	}

	parser, err := uaparser.New(regexFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
	}

	log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))
	return &Parser{parser: parser, log: log}, nil
}

// Parse parses a User-Agent string. An empty or unrecognizable string yields
// the documented defaults rather than an error.
func (p *Parser) Parse(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{
			DeviceType: DefaultDeviceType,
			Browser:    DefaultName,
			OS:         DefaultName,
		}
	}

	client := p.parser.Parse(userAgent)

	return DeviceInfo{
		DeviceType: p.deviceType(client, userAgent),
		Browser:    orDefault(client.UserAgent.Family),
		OS:         orDefault(client.Os.Family),
	}
}

// deviceType determines the device type from parsed client info and the raw
// User-Agent string.
func (p *Parser) deviceType(client *uaparser.Client, userAgent string) string {
	if p.isBot(client, userAgent) {
		return "bot"
	}

	deviceFamily := client.Device.Family
	if deviceFamily != "" && deviceFamily != "Other" {
		if isTabletDevice(deviceFamily) {
			return "tablet"
		}
		if isMobileDevice(deviceFamily) {
			return "mobile"
		}
	}

	if isMobileOS(client.Os.Family) {
		if isTabletUA(client.Os.Family, userAgent) {
			return "tablet"
		}
		return "mobile"
	}

	return DefaultDeviceType
}

// isBot checks if the User-Agent represents a bot or crawler.
func (p *Parser) isBot(client *uaparser.Client, userAgent string) bool {
	indicators := []string{
		"googlebot", "bingbot", "slurp", "duckduckbot", "baiduspider",
		"yandexbot", "facebookexternalhit", "twitterbot", "linkedinbot",
		"whatsapp", "telegrambot", "bot", "crawler", "spider", "scraper",
	}

	family := strings.ToLower(client.UserAgent.Family)
	ua := strings.ToLower(userAgent)
	for _, indicator := range indicators {
		if strings.Contains(family, indicator) || strings.Contains(ua, indicator) {
			return true
		}
	}
	return false
}

func isMobileDevice(deviceFamily string) bool {
	for _, device := range []string{"iPhone", "Android", "BlackBerry", "Windows Phone", "Mobile", "Phone"} {
		if strings.Contains(deviceFamily, device) {
			return true
		}
	}
	return false
}

func isTabletDevice(deviceFamily string) bool {
	for _, device := range []string{"iPad", "Tablet", "Kindle", "Surface"} {
		if strings.Contains(deviceFamily, device) {
			return true
		}
	}
	return false
}

func isMobileOS(osFamily string) bool {
	for _, os := range []string{"iOS", "Android", "Windows Phone", "BlackBerry OS", "Firefox OS"} {
		if strings.Contains(osFamily, os) {
			return true
		}
	}
	return false
}

// isTabletUA distinguishes tablets among mobile operating systems.
func isTabletUA(osFamily, userAgent string) bool {
	if strings.Contains(osFamily, "iOS") {
		return strings.Contains(userAgent, "iPad")
	}
	if strings.Contains(osFamily, "Android") {
		// Android tablets typically omit "Mobile" from the User-Agent
		return !strings.Contains(userAgent, "Mobile")
	}
	return false
}

func orDefault(s string) string {
	if s == "" || s == "Other" {
		return DefaultName
	}
	return s
}
