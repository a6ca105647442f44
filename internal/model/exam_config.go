package model

// NavigationPolicy controls what the confined browser is allowed to
// navigate to. AllowPatterns and BlockPatterns are evaluated in the
// order defined by the navigation filter decision ladder (spec.md
// §4.4.6), not this slice's order.
type NavigationPolicy struct {
	AllowPatterns    []string
	BlockPatterns    []string
	AllowReload      bool
	AllowBackForward bool
}

// BrowserPolicy controls the chrome and capabilities of the (out-of-core)
// rendering engine.
type BrowserPolicy struct {
	UserAgent        string
	JavaScriptEnabled bool
	DownloadsAllowed  bool
	PrintAllowed      bool
	ClipboardAllowed  bool
	ToolbarVisible    bool
}

// TransportMode selects how the agent's own attestation traffic to the
// LMS is carried. It does not affect the SEB header injection, which is
// attached to the request regardless of transport.
type TransportMode string

const (
	TransportStandard TransportMode = "standard"
	TransportGMTLS    TransportMode = "gmtls"
)

// SecurityPolicy controls the integrity assessor and process guard.
type SecurityPolicy struct {
	DetectVM           bool
	DetectDebugger      bool
	ProcessBlocklist    []string
	ProcessAllowlist    []string
	BlocklistPatterns   []string
	SelfDigestAlgorithm string // "sha256" (default, spec-mandated) or "sm3"
}

// NetworkPolicy holds the exam configuration's transport mode and the
// pinned CA bundle path for GM-TLS mode. transport.NewClient does not
// read it; it takes the agent's own config.NetworkConfig.
type NetworkPolicy struct {
	TransportMode TransportMode
	GMTLSCAPath   string
}

// KioskPolicy controls the confinement layer's window and VT behavior.
type KioskPolicy struct {
	Fullscreen       bool
	CoverAllMonitors bool
	BlockVTSwitch    bool
}

// ExamConfiguration is immutable after Load. SebMode true implies
// RawConfigData is the decrypted-and-decompressed plist payload (the
// data model's stated invariant).
type ExamConfiguration struct {
	ExamName     string
	StartURL     string
	ExitPassword string

	Navigation NavigationPolicy
	Browser    BrowserPolicy
	Security   SecurityPolicy
	Kiosk      KioskPolicy
	Network    NetworkPolicy

	SebMode bool

	// ExamKeySalt is the 32-octet salt used to derive the Browser Exam
	// Key (spec.md §4.4.3). Populated only for .seb configurations; a
	// zero-value salt for .openlock configurations means BEK-gated LMS
	// endpoints are simply not exercised in that mode.
	ExamKeySalt []byte

	// RawConfigData is the raw configuration octets: for .openlock, the
	// JSON bytes as loaded; for .seb, the decrypted/decompressed XML
	// plist payload.
	RawConfigData []byte

	// SettingsMap is populated only when the source was a parsed .seb
	// plist; it feeds Config Key derivation (spec.md §4.4.4). Nil for
	// .openlock configurations, in which case the browser interceptor
	// tries to parse RawConfigData as a plist and, when that fails,
	// derives the Config Key from an empty settings map.
	SettingsMap map[string]any
}
