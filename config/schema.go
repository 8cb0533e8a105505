package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidValue is wrapped by every error caused by a key holding a value of the wrong type.
var ErrInvalidValue = errors.New("invalid config value")

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindStrings
)

func (k valueKind) String() string {
	switch k {
	case kindBool:
		return "boolean"
	case kindInt:
		return "integer"
	case kindStrings:
		return "array of strings"
	default:
		return "string"
	}
}

type keySpec struct {
	section string
	key     string
	kind    valueKind
	def     any
}

func (s keySpec) path() string { return s.section + "." + s.key }

// schema lists every key the loader understands, in file order.
var schema = []keySpec{
	{"General", "Name", kindString, "BeamMP Server"},
	{"General", "Port", kindInt, 30814},
	{"General", "AuthKey", kindString, ""},
	{"General", "LogChat", kindBool, true},
	{"General", "Debug", kindBool, false},
	{"General", "Private", kindBool, true},
	{"General", "MaxCars", kindInt, 1},
	{"General", "MaxPlayers", kindInt, 8},
	{"General", "Map", kindString, "/levels/gridmap_v2/info.json"},
	{"General", "Description", kindString, "BeamMP Default Description"},
	{"General", "ResourceFolder", kindString, "Resources"},

	{"Misc", "ImScaredOfUpdates", kindBool, false},
	{"Misc", "SendErrorsShowMessage", kindBool, true},
	{"Misc", "SendErrors", kindBool, true},

	{"HTTP", "HTTPServerIP", kindString, "127.0.0.1"},
	{"HTTP", "SSLKeyPath", kindString, "./.ssl/HttpServer/key.pem"},
	{"HTTP", "SSLCertPath", kindString, "./.ssl/HttpServer/cert.pem"},
	{"HTTP", "HTTPServerPort", kindInt, 8080},
	{"HTTP", "UseSSL", kindBool, false},
	{"HTTP", "HTTPServerEnabled", kindBool, false},

	{"Race", "OverlayPort", kindInt, 0},
	{"Race", "MaxLaps", kindInt, 5},
	{"Race", "QualifyingSeconds", kindInt, 120},
	{"Race", "JoinWindowSeconds", kindInt, 300},
	{"Race", "LineUpTimeoutSeconds", kindInt, 45},
	{"Race", "FinishLingerSeconds", kindInt, 30},
	{"Race", "Countdown", kindInt, 5},
	{"Race", "ExpectedClients", kindStrings, []string{}},

	{"Track", "Limits", kindString, ""},
	{"Track", "LimitsPit", kindString, ""},
	{"Track", "LimitsPitExit", kindString, ""},
	{"Track", "SpawnsPit", kindString, ""},
	{"Track", "SpawnsOdd", kindString, ""},
	{"Track", "SpawnsEven", kindString, ""},
	{"Track", "Checkpoints", kindStrings, []string{}},

	{"Telemetry", "Endpoint", kindString, ""},
	{"Telemetry", "AccessKey", kindString, ""},
	{"Telemetry", "SecretKey", kindString, ""},
	{"Telemetry", "Bucket", kindString, ""},
	{"Telemetry", "UseSSL", kindBool, false},

	{"Store", "Database", kindString, "results.db"},
}

func setDefaults(v *viper.Viper) {
	for _, s := range schema {
		v.SetDefault(s.path(), s.def)
	}
}

// checkTypes rejects keys present in the file whose value does not match the schema.
func checkTypes(v *viper.Viper) error {
	var errs []error
	badSection := map[string]bool{}
	for _, s := range schema {
		if badSection[s.section] || !v.InConfig(s.section) {
			continue
		}
		if raw := v.Get(s.section); !isTable(raw) {
			errs = append(errs, fmt.Errorf("%w: %s: expected a table, got %s", ErrInvalidValue, s.section, describe(raw)))
			badSection[s.section] = true
		}
	}
	for _, s := range schema {
		if badSection[s.section] || !v.InConfig(s.path()) {
			continue
		}
		raw := v.Get(s.path())
		if !matchesKind(raw, s.kind) {
			errs = append(errs, fmt.Errorf("%w: %s: expected %s, got %s", ErrInvalidValue, s.path(), s.kind, describe(raw)))
		}
	}
	return errors.Join(errs...)
}

// unknownKeys returns the keys present in the file that the schema does not know about.
func unknownKeys(v *viper.Viper) []string {
	known := make(map[string]struct{}, len(schema))
	for _, s := range schema {
		known[strings.ToLower(s.path())] = struct{}{}
	}
	var out []string
	for _, k := range v.AllKeys() {
		if _, ok := known[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

func isTable(raw any) bool {
	_, ok := raw.(map[string]any)
	return ok
}

func matchesKind(raw any, kind valueKind) bool {
	switch kind {
	case kindBool:
		_, ok := raw.(bool)
		return ok
	case kindInt:
		switch raw.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case kindStrings:
		switch list := raw.(type) {
		case []string:
			return true
		case []any:
			for _, item := range list {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	default:
		_, ok := raw.(string)
		return ok
	}
}

func describe(raw any) string {
	if s, ok := raw.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v (%T)", raw, raw)
}
