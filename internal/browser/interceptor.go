// Package browser wires the SEB cryptographic protocol into whatever
// out-of-core rendering engine hosts the kiosk web view: per-request
// header injection and navigation filtering. Neither depends on a
// specific renderer; both operate on plain URLs and header maps that
// the embedding webview's request-interception hook supplies.
package browser

import (
	"fmt"
	"net/http"

	"github.com/openlock/agent/internal/lms"
	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/security/integrity"
	"github.com/openlock/agent/internal/sebcrypto"
	"github.com/openlock/agent/internal/security/transport"
)

// Version is the OpenLock release identifier reported in the outgoing
// User-Agent suffix.
const Version = "1.0.0"

// userAgentSuffix is appended to the configured browser User-Agent on
// every outbound request while SEB mode is active.
const userAgentSuffix = "SEB/3.0 OpenLock/" + Version

// Interceptor holds the derived keys for one exam session and answers
// two questions the webview's request pipeline asks on every
// navigation and every outbound request: which headers to attach, and
// whether to allow the navigation at all.
type Interceptor struct {
	bek           [32]byte
	configKey     [32]byte
	filter        *sebcrypto.NavigationFilter
	lmsType       lms.Type
	baseUserAgent string
}

// NewInterceptor derives BEK/ConfigKey from settings and builds the
// navigation filter from the exam configuration's URL policy. For
// .openlock configurations (SebMode false) BEK derivation still runs,
// keyed on a zero salt, since LMS endpoints that don't check the SEB
// headers simply ignore them.
func NewInterceptor(cfg model.ExamConfiguration) (*Interceptor, error) {
	settings := cfg.SettingsMap
	if settings == nil {
		var err error
		settings, err = sebcrypto.ParsePlist(cfg.RawConfigData)
		if err != nil {
			settings = map[string]interface{}{}
		}
	}

	exePath, err := integrity.GetSelfExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("browser: locate own executable: %w", err)
	}
	binaryHash, err := sebcrypto.ComputeBinaryFilesHash(exePath)
	if err != nil {
		return nil, fmt.Errorf("browser: hash executable set: %w", err)
	}

	var salt [32]byte
	copy(salt[:], cfg.ExamKeySalt)

	bek := sebcrypto.DeriveBEK(sebcrypto.BrowserExamKeyMaterial{
		ExamKeySalt:     salt,
		ConfigPlistXml:  cfg.RawConfigData,
		BinaryFilesHash: binaryHash,
	})
	configKey := sebcrypto.DeriveConfigKey(settings)

	filter := sebcrypto.NewNavigationFilter(cfg.Navigation.AllowPatterns, cfg.Navigation.BlockPatterns)

	return &Interceptor{
		bek:           bek,
		configKey:     configKey,
		filter:        filter,
		lmsType:       lms.Detect(cfg.StartURL),
		baseUserAgent: cfg.Browser.UserAgent,
	}, nil
}

// LMSType reports which LMS family the session's start URL matched,
// informative only — it does not change header injection or filtering
// behavior.
func (i *Interceptor) LMSType() lms.Type {
	return i.lmsType
}

// RequestOptions returns the transport.RequestOption that attaches the
// SEB header pair and the SEB/OpenLock User-Agent suffix to an
// outbound request for rawURL.
func (i *Interceptor) RequestOptions(rawURL string) (transport.RequestOption, error) {
	headers, err := sebcrypto.RequestHeaders(rawURL, i.bek, i.configKey)
	if err != nil {
		return nil, fmt.Errorf("browser: compute request headers: %w", err)
	}
	withHeaders := transport.WithHeaders(headers)
	withUserAgent := transport.WithHeader("User-Agent", i.userAgent())

	return func(req *http.Request) {
		withHeaders(req)
		withUserAgent(req)
	}, nil
}

// userAgent joins the configured browser User-Agent (empty for a
// default embedding webview) with the SEB/OpenLock suffix every
// request must carry per the external interface contract.
func (i *Interceptor) userAgent() string {
	if i.baseUserAgent == "" {
		return userAgentSuffix
	}
	return i.baseUserAgent + " " + userAgentSuffix
}

// AllowNavigation classifies rawURL per the navigation filter's
// decision ladder.
func (i *Interceptor) AllowNavigation(rawURL string) sebcrypto.NavDecision {
	return i.filter.Classify(rawURL)
}
