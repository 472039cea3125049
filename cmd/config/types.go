package config

// Config file names (searched in this order)
var (
	SupportedConfigFiles = []string{
		"protocol.yaml",
		"protocol.yml",
		"protocol.toml",
		"protocol.json",
	}
)

// Config is the on-disk client configuration. Every field is optional;
// unset fields fall through to environment variables and then defaults.
type Config struct {
	ServerURL string `yaml:"server_url,omitempty" toml:"server_url,omitempty" json:"server_url,omitempty"`
	APIBase   string `yaml:"api_base,omitempty" toml:"api_base,omitempty" json:"api_base,omitempty"`
	Language  string `yaml:"language,omitempty" toml:"language,omitempty" json:"language,omitempty"`
	Mock      *bool  `yaml:"mock,omitempty" toml:"mock,omitempty" json:"mock,omitempty"`

	// Durations use Go syntax, e.g. "2m", "45s", "0s"
	DiagnoseTimeout string `yaml:"diagnose_timeout,omitempty" toml:"diagnose_timeout,omitempty" json:"diagnose_timeout,omitempty"`
	RequestTimeout  string `yaml:"request_timeout,omitempty" toml:"request_timeout,omitempty" json:"request_timeout,omitempty"`
	MockLatency     string `yaml:"mock_latency,omitempty" toml:"mock_latency,omitempty" json:"mock_latency,omitempty"`
}
