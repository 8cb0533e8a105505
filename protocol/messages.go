package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Message codes, the first byte of every payload.
const (
	CodePing      = 'p'
	CodePosition  = 'Z'
	CodeSync      = 'H'
	CodeVehicle   = 'O'
	CodeChat      = 'C'
	CodeEvent     = 'E'
	CodeHello     = 'N'
	CodeAccepted  = 'A'
	CodeKick      = 'K'
	CodeMap       = 'M'
	CodeNotice    = 'J'
	relayFirst    = 'V'
	relayLast     = 'Y'
	maxNameLength = 64
)

// Vehicle sub-codes, the second byte of an 'O' payload.
const (
	VehicleSpawn  = 's'
	VehicleChange = 'c'
	VehicleDelete = 'd'
	VehicleReset  = 'r'
	VehicleTouch  = 't'
	VehicleMisc   = 'm'
)

// IsRelay reports whether the payload is passed to the other players untouched.
func IsRelay(data []byte) bool {
	return len(data) > 0 && data[0] >= relayFirst && data[0] <= relayLast
}

// Transform is the body of a position update.
type Transform struct {
	Pos  [3]float64 `json:"pos"`
	Rot  [4]float64 `json:"rot"`
	Vel  [3]float64 `json:"vel"`
	RVel [3]float64 `json:"rvel"`
	Tim  float64    `json:"tim"`
	Ping float64    `json:"ping"`
}

// ResetData is the body of a vehicle reset.
type ResetData struct {
	Pos struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"pos"`
}

// Target is a message addressed to one vehicle: "Xy:<client>-<vehicle>[:<body>]".
type Target struct {
	ClientID  uint8
	VehicleID uint8
	Body      string
}

// ParseTarget decodes position, change, reset and delete messages.
func ParseTarget(data []byte) (Target, error) {
	if len(data) < 4 || data[2] != ':' {
		return Target{}, fmt.Errorf("%w: %q", ErrBrokenPacket, truncate(data))
	}
	rest := string(data[3:])
	ids, body, _ := strings.Cut(rest, ":")
	cs, vs, ok := strings.Cut(ids, "-")
	if !ok {
		return Target{}, fmt.Errorf("%w: missing vehicle id in %q", ErrBrokenPacket, truncate(data))
	}
	cid, err := strconv.ParseUint(cs, 10, 8)
	if err != nil {
		return Target{}, fmt.Errorf("%w: client id %q", ErrBrokenPacket, cs)
	}
	vid, err := strconv.ParseUint(vs, 10, 8)
	if err != nil {
		return Target{}, fmt.Errorf("%w: vehicle id %q", ErrBrokenPacket, vs)
	}
	return Target{ClientID: uint8(cid), VehicleID: uint8(vid), Body: body}, nil
}

// ParseTransform decodes the JSON body of a position update.
func ParseTransform(body string) (Transform, error) {
	var t Transform
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return t, fmt.Errorf("%w: %v", ErrBrokenPacket, err)
	}
	return t, nil
}

// ParseReset decodes the JSON body of a vehicle reset.
func ParseReset(body string) (ResetData, error) {
	var r ResetData
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return r, fmt.Errorf("%w: %v", ErrBrokenPacket, err)
	}
	return r, nil
}

// ParseSpawn returns the vehicle configuration of an "Os:<x>:<json>" request.
func ParseSpawn(data []byte) (string, error) {
	parts := strings.SplitN(string(data), ":", 3)
	if len(parts) < 3 {
		return "", fmt.Errorf("%w: spawn without vehicle data", ErrBrokenPacket)
	}
	return parts[2], nil
}

// ParseChat returns the message of a "C:<name>:<message>" payload.
func ParseChat(data []byte) string {
	parts := strings.SplitN(string(data), ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[2])
}

// ParseEvent splits an "E:<name>:<data>" payload.
func ParseEvent(data []byte) (name, payload string, err error) {
	parts := strings.SplitN(string(data), ":", 3)
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("%w: event without name", ErrBrokenPacket)
	}
	if len(parts) == 3 {
		payload = parts[2]
	}
	return parts[1], payload, nil
}

// ParseHello returns the username announced by the first frame of a game connection.
func ParseHello(data []byte) (string, error) {
	if len(data) < 2 || data[0] != CodeHello {
		return "", fmt.Errorf("%w: expected hello", ErrBrokenPacket)
	}
	name := strings.TrimSpace(string(data[1:]))
	if name == "" || len(name) > maxNameLength || strings.ContainsAny(name, ":\n") {
		return "", fmt.Errorf("%w: invalid username %q", ErrBrokenPacket, name)
	}
	return name, nil
}

// ParseDatagram splits an unreliable packet into the sender id and the message.
// The first byte is the client id plus one, the second a separator.
func ParseDatagram(data []byte) (uint8, []byte, error) {
	if len(data) < 3 || data[0] == 0 {
		return 0, nil, fmt.Errorf("%w: datagram too short", ErrBrokenPacket)
	}
	return data[0] - 1, data[2:], nil
}

func VehicleSpawned(roles, name string, clientID, vehicleID uint8, vehicle string) []byte {
	return []byte(fmt.Sprintf("Os:%s:%s:%d-%d:%s", roles, name, clientID, vehicleID, vehicle))
}

func VehicleDeleted(clientID, vehicleID uint8) []byte {
	return []byte(fmt.Sprintf("Od:%d-%d", clientID, vehicleID))
}

func ServerChat(message string) []byte { return []byte("C:Server:" + message) }

func Notification(text string) []byte { return []byte("J" + text) }

func SyncReply(name string) []byte { return []byte("Sn" + name) }

func ClientEvent(name, data string) []byte { return []byte("E:" + name + ":" + data) }

func MapName(m string) []byte { return []byte("M" + m) }

func Accepted(id uint8) []byte { return []byte("A" + strconv.Itoa(int(id))) }

func Kick(reason string) []byte { return []byte("K" + reason) }

func Hello(name string) []byte { return []byte("N" + name) }

func Ping() []byte { return []byte{CodePing} }

func truncate(data []byte) string {
	if len(data) > 32 {
		return string(data[:32]) + "..."
	}
	return string(data)
}
