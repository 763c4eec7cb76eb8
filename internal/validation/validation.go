package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/sirupsen/logrus"
)

const (
	// MaxNameLength is the longest tunnel name WireGuard for Windows accepts.
	MaxNameLength = 32
	MaxClients    = 253
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_=+.-]*$`)

func validateLength(input string, maxLen int, fieldName string) (bool, string) {
	if len(input) > maxLen {
		return false, fmt.Sprintf("%s must not exceed %d characters", fieldName, maxLen)
	}
	return true, ""
}

// IsValidName validates a server name, which becomes the tunnel and file name.
func IsValidName(name string) (bool, string) {
	if name == "" {
		return false, "Name cannot be empty"
	}
	if valid, msg := validateLength(name, MaxNameLength, "Name"); !valid {
		return false, msg
	}
	if !nameRegex.MatchString(name) {
		return false, "Name must contain only letters, numbers, and _=+.- and must start with alphanumeric character"
	}
	return true, ""
}

func IsValidIPv4(address string) (bool, string) {
	if !govalidator.IsIPv4(address) {
		return false, "Address must be an IPv4 address (e.g., 10.0.0.1)"
	}
	return true, ""
}

// IsValidPortNumber validates a listen port
func IsValidPortNumber(port string) (bool, string) {
	if _, err := strconv.ParseUint(port, 10, 64); err != nil {
		return false, "Port must be a number"
	}
	if !govalidator.IsPort(port) {
		return false, "Port must be in range [1-65535]"
	}
	return true, ""
}

// IsValidClientCount validates the number of clients to create in one batch.
// Zero is allowed and produces a server config without peers.
func IsValidClientCount(count int) (bool, string) {
	if count < 0 {
		return false, "Client count must be non-negative"
	}
	if count > MaxClients {
		return false, fmt.Sprintf("Client count must not exceed %d", MaxClients)
	}
	return true, ""
}

func IsValidEncoding(encoding string) (bool, string) {
	switch strings.ReplaceAll(strings.ToLower(encoding), "-", "") {
	case "utf8", "utf16":
		return true, ""
	}
	return false, "Encoding must be one of: utf8, utf16"
}

func IsValidKeygen(keygen string) (bool, string) {
	switch keygen {
	case "wg", "builtin":
		return true, ""
	}
	return false, "Key generator must be one of: wg, builtin"
}

func IsValidLogLevel(level string) (bool, string) {
	if _, err := logrus.ParseLevel(level); err != nil {
		return false, "Log level must be one of: panic, fatal, error, warn, info, debug, trace"
	}
	return true, ""
}

func IsValidOutputFormat(format string) (bool, string) {
	switch strings.ToLower(format) {
	case "json", "text":
		return true, ""
	}
	return false, "Output format must be one of: json, text"
}
