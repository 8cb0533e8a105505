package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
)

const sampleConfig = `[General]
Name = "Sunday Cup"
Port = 30814
AuthKey = "abc-123"
LogChat = true
Debug = false
Private = false
MaxCars = 1
MaxPlayers = 12
Map = "/levels/west_coast_usa/info.json"
Description = "Weekly race"
ResourceFolder = "Resources"

[Misc]
ImScaredOfUpdates = true
SendErrorsShowMessage = false
SendErrors = false

[HTTP]
HTTPServerIP = "0.0.0.0"
SSLKeyPath = "./.ssl/HttpServer/key.pem"
SSLCertPath = "./.ssl/HttpServer/cert.pem"
HTTPServerPort = 8081
UseSSL = false
HTTPServerEnabled = true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoad_AllSections(t *testing.T) {
	c, err := Load(writeFile(t, "ServerConfig.toml", sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.General.Name != "Sunday Cup" || c.General.Port != 30814 || c.General.AuthKey != "abc-123" {
		t.Errorf("unexpected General section: %+v", c.General)
	}
	if c.General.Private || !c.General.LogChat || c.General.MaxPlayers != 12 {
		t.Errorf("unexpected General flags: %+v", c.General)
	}
	if !c.Misc.ImScaredOfUpdates || c.Misc.SendErrors || c.Misc.SendErrorsShowMessage {
		t.Errorf("unexpected Misc section: %+v", c.Misc)
	}
	if c.HTTP.HTTPServerPort != 8081 || !c.HTTP.HTTPServerEnabled || c.HTTP.HTTPServerIP != "0.0.0.0" {
		t.Errorf("unexpected HTTP section: %+v", c.HTTP)
	}
	if got := c.HTTPAddr(); got != "0.0.0.0:8081" {
		t.Errorf("HTTPAddr() = %q", got)
	}
	if !c.PublicListing() {
		t.Error("public server with an AuthKey should be listed")
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	src := writeFile(t, "ServerConfig.toml", sampleConfig)
	first, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "copy.toml")
	if err := first.Save(dst); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := Load(dst)
	if err != nil {
		t.Fatalf("Load saved copy: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip changed config:\n first: %+v\nsecond: %+v", first, second)
	}

	// The original three sections must come back key for key, with the same case.
	orig := readRaw(t, src)
	saved := readRaw(t, dst)
	for _, section := range []string{"General", "Misc", "HTTP"} {
		if !reflect.DeepEqual(orig[section], saved[section]) {
			t.Errorf("section %s differs:\n orig: %v\nsaved: %v", section, orig[section], saved[section])
		}
	}
}

func readRaw(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return m
}

func TestLoad_UnknownKeysIgnored(t *testing.T) {
	content := strings.Replace(sampleConfig, "[Misc]\n", "[Misc]\nSomethingNew = 42\n", 1) + "\n[Extra]\nFoo = \"bar\"\n"

	c, err := Load(writeFile(t, "ServerConfig.toml", content))
	if err != nil {
		t.Fatalf("unknown keys should not fail the load: %v", err)
	}
	if c.General.Name != "Sunday Cup" {
		t.Errorf("known keys were not loaded: %+v", c.General)
	}
}

func TestLoad_MissingOptionalKeysUseDefaults(t *testing.T) {
	c, err := Load(writeFile(t, "ServerConfig.toml", "[General]\nName = \"Tiny\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if c.General.Name != "Tiny" {
		t.Errorf("Name = %q", c.General.Name)
	}
	if c.General.Port != def.General.Port || c.General.MaxPlayers != def.General.MaxPlayers {
		t.Errorf("defaults not applied: %+v", c.General)
	}
	if c.Misc != def.Misc || c.HTTP != def.HTTP {
		t.Errorf("missing sections should be defaulted: %+v %+v", c.Misc, c.HTTP)
	}
	if c.Race.MaxLaps != 5 || c.Store.Database != "results.db" {
		t.Errorf("expansion defaults not applied: %+v %+v", c.Race, c.Store)
	}
}

func TestLoad_MalformedValues(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantKey string
	}{
		{"bool as string", "LogChat = true", `LogChat = "yes"`, "General.LogChat"},
		{"bool as int", "UseSSL = false", "UseSSL = 1", "HTTP.UseSSL"},
		{"int as string", "Port = 30814", `Port = "30814a"`, "General.Port"},
		{"int as float", "MaxPlayers = 12", "MaxPlayers = 12.5", "General.MaxPlayers"},
		{"int as bool", "HTTPServerPort = 8081", "HTTPServerPort = true", "HTTP.HTTPServerPort"},
		{"string as int", `Name = "Sunday Cup"`, "Name = 7", "General.Name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(sampleConfig, tt.from, tt.to, 1)
			_, err := Load(writeFile(t, "ServerConfig.toml", content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("error %v does not wrap ErrInvalidValue", err)
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q does not name %s", err, tt.wantKey)
			}
		})
	}
}

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ServerConfig.toml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(c, Default()) {
		t.Errorf("expected defaults, got %+v", c)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written defaults: %v", err)
	}
	if !reflect.DeepEqual(c, again) {
		t.Errorf("written defaults do not load back: %+v", again)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port zero", func(c *Config) { c.General.Port = 0 }, false},
		{"port too large", func(c *Config) { c.General.Port = 70000 }, false},
		{"no players", func(c *Config) { c.General.MaxPlayers = 0 }, false},
		{"no cars", func(c *Config) { c.General.MaxCars = 0 }, false},
		{"empty name", func(c *Config) { c.General.Name = "" }, false},
		{"http port ignored when disabled", func(c *Config) { c.HTTP.HTTPServerPort = 0 }, true},
		{"http port checked when enabled", func(c *Config) {
			c.HTTP.HTTPServerEnabled = true
			c.HTTP.HTTPServerPort = 0
		}, false},
		{"ssl without cert", func(c *Config) {
			c.HTTP.HTTPServerEnabled = true
			c.HTTP.UseSSL = true
			c.HTTP.SSLCertPath = ""
		}, false},
		{"negative qualifying", func(c *Config) { c.Race.QualifyingSeconds = -1 }, false},
		{"zero laps", func(c *Config) { c.Race.MaxLaps = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestOverlayAddr(t *testing.T) {
	c := Default()
	if got := c.OverlayAddr(); got != "0.0.0.0:30815" {
		t.Errorf("OverlayAddr() = %q, want port after the game port", got)
	}
	c.Race.OverlayPort = 40000
	if got := c.OverlayAddr(); got != "0.0.0.0:40000" {
		t.Errorf("OverlayAddr() = %q", got)
	}
}

func TestReload(t *testing.T) {
	cur := Default()
	next := Default()
	next.General.Name = "Renamed"
	next.General.MaxCars = 3
	next.General.Port = 31000
	next.Race.ExpectedClients = []string{"alice"}

	merged, restart := cur.Reload(next)
	if merged.General.Name != "Renamed" || merged.General.MaxCars != 3 {
		t.Errorf("live fields not applied: %+v", merged.General)
	}
	if merged.General.Port != cur.General.Port {
		t.Errorf("port must not change without a restart")
	}
	want := []string{"General.Port", "Race"}
	if !reflect.DeepEqual(restart, want) {
		t.Errorf("restart = %v, want %v", restart, want)
	}
}

func TestLoad_SectionAsScalar(t *testing.T) {
	_, err := Load(writeFile(t, "ServerConfig.toml", "General = 5\n\n[Misc]\nSendErrors = false\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("error %v does not wrap ErrInvalidValue", err)
	}
	if !strings.Contains(err.Error(), "General") || !strings.Contains(err.Error(), "table") {
		t.Errorf("error %q does not name the section", err)
	}
}

func readViper(t *testing.T, content string) (string, *viper.Viper) {
	t.Helper()
	path := writeFile(t, "ServerConfig.toml", content)
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return path, v
}

func TestApplyChange(t *testing.T) {
	hook := test.NewLocal(log)
	defer hook.Reset()

	path, v := readViper(t, sampleConfig+"\n[Extra]\nFoo = 1\n")
	merged, err := applyChange(v, Default(), path)
	if err != nil {
		t.Fatalf("applyChange: %v", err)
	}
	if merged.General.Name != "Sunday Cup" {
		t.Errorf("live field not applied: %q", merged.General.Name)
	}
	if merged.General.MaxPlayers != Default().General.MaxPlayers {
		t.Errorf("MaxPlayers changed without a restart")
	}

	var unknown, restart bool
	for _, e := range hook.AllEntries() {
		if e.Level != logrus.WarnLevel {
			continue
		}
		unknown = unknown || strings.Contains(e.Message, `"extra.foo"`)
		restart = restart || strings.Contains(e.Message, "General.MaxPlayers changed")
	}
	if !unknown {
		t.Error("unknown key on reload was not reported")
	}
	if !restart {
		t.Error("restart-only change was not reported")
	}

	path, v = readViper(t, "General = 5\n")
	if _, err := applyChange(v, Default(), path); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bad reload error = %v, want ErrInvalidValue", err)
	}
}
