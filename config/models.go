package config

// General holds the [General] section: identity, listen port and capacity.
type General struct {
	Name           string `mapstructure:"Name" toml:"Name"`
	Port           int    `mapstructure:"Port" toml:"Port"`
	AuthKey        string `mapstructure:"AuthKey" toml:"AuthKey"`
	LogChat        bool   `mapstructure:"LogChat" toml:"LogChat"`
	Debug          bool   `mapstructure:"Debug" toml:"Debug"`
	Private        bool   `mapstructure:"Private" toml:"Private"`
	MaxCars        int    `mapstructure:"MaxCars" toml:"MaxCars"`
	MaxPlayers     int    `mapstructure:"MaxPlayers" toml:"MaxPlayers"`
	Map            string `mapstructure:"Map" toml:"Map"`
	Description    string `mapstructure:"Description" toml:"Description"`
	ResourceFolder string `mapstructure:"ResourceFolder" toml:"ResourceFolder"`
}

// Misc holds the [Misc] section.
type Misc struct {
	ImScaredOfUpdates     bool `mapstructure:"ImScaredOfUpdates" toml:"ImScaredOfUpdates"`
	SendErrorsShowMessage bool `mapstructure:"SendErrorsShowMessage" toml:"SendErrorsShowMessage"`
	SendErrors            bool `mapstructure:"SendErrors" toml:"SendErrors"`
}

// HTTP holds the [HTTP] section for the embedded status server.
type HTTP struct {
	HTTPServerIP      string `mapstructure:"HTTPServerIP" toml:"HTTPServerIP"`
	SSLKeyPath        string `mapstructure:"SSLKeyPath" toml:"SSLKeyPath"`
	SSLCertPath       string `mapstructure:"SSLCertPath" toml:"SSLCertPath"`
	HTTPServerPort    int    `mapstructure:"HTTPServerPort" toml:"HTTPServerPort"`
	UseSSL            bool   `mapstructure:"UseSSL" toml:"UseSSL"`
	HTTPServerEnabled bool   `mapstructure:"HTTPServerEnabled" toml:"HTTPServerEnabled"`
}

// Race holds the event timing and the entry list.
type Race struct {
	// OverlayPort of 0 means General.Port + 1.
	OverlayPort          int      `mapstructure:"OverlayPort" toml:"OverlayPort"`
	MaxLaps              int      `mapstructure:"MaxLaps" toml:"MaxLaps"`
	QualifyingSeconds    int      `mapstructure:"QualifyingSeconds" toml:"QualifyingSeconds"`
	JoinWindowSeconds    int      `mapstructure:"JoinWindowSeconds" toml:"JoinWindowSeconds"`
	LineUpTimeoutSeconds int      `mapstructure:"LineUpTimeoutSeconds" toml:"LineUpTimeoutSeconds"`
	FinishLingerSeconds  int      `mapstructure:"FinishLingerSeconds" toml:"FinishLingerSeconds"`
	Countdown            int      `mapstructure:"Countdown" toml:"Countdown"`
	ExpectedClients      []string `mapstructure:"ExpectedClients" toml:"ExpectedClients"`
}

// Track holds paths to the track descriptor files. Empty means not configured.
type Track struct {
	Limits        string   `mapstructure:"Limits" toml:"Limits"`
	LimitsPit     string   `mapstructure:"LimitsPit" toml:"LimitsPit"`
	LimitsPitExit string   `mapstructure:"LimitsPitExit" toml:"LimitsPitExit"`
	SpawnsPit     string   `mapstructure:"SpawnsPit" toml:"SpawnsPit"`
	SpawnsOdd     string   `mapstructure:"SpawnsOdd" toml:"SpawnsOdd"`
	SpawnsEven    string   `mapstructure:"SpawnsEven" toml:"SpawnsEven"`
	Checkpoints   []string `mapstructure:"Checkpoints" toml:"Checkpoints"`
}

// Telemetry points the crash reporter at an S3 compatible bucket. UseSSL applies
// to an Endpoint given without a scheme.
type Telemetry struct {
	Endpoint  string `mapstructure:"Endpoint" toml:"Endpoint"`
	AccessKey string `mapstructure:"AccessKey" toml:"AccessKey"`
	SecretKey string `mapstructure:"SecretKey" toml:"SecretKey"`
	Bucket    string `mapstructure:"Bucket" toml:"Bucket"`
	UseSSL    bool   `mapstructure:"UseSSL" toml:"UseSSL"`
}

// Store configures the results database.
type Store struct {
	Database string `mapstructure:"Database" toml:"Database"`
}

// Config holds the server configuration as read from ServerConfig.toml.
type Config struct {
	General   General   `mapstructure:"General" toml:"General"`
	Misc      Misc      `mapstructure:"Misc" toml:"Misc"`
	HTTP      HTTP      `mapstructure:"HTTP" toml:"HTTP"`
	Race      Race      `mapstructure:"Race" toml:"Race"`
	Track     Track     `mapstructure:"Track" toml:"Track"`
	Telemetry Telemetry `mapstructure:"Telemetry" toml:"Telemetry"`
	Store     Store     `mapstructure:"Store" toml:"Store"`
}
