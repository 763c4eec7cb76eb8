package testutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"localvpn.io/wgsetup/internal/output"
)

// Capture runs root with args and returns everything it printed through the
// output package. Cobra's own usage and error text is discarded, and so are
// provisioning logs.
func Capture(root *cobra.Command, args ...string) (string, error) {
	var buf bytes.Buffer

	prev := output.GetWriter()
	output.SetWriter(&buf)
	defer output.SetWriter(prev)

	logs := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(logs)

	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		return buf.String(), err
	}
	return buf.String(), nil
}

// ExecuteCommand runs root with args and decodes the single JSON object it
// printed.
func ExecuteCommand(root *cobra.Command, args ...string) (map[string]interface{}, error) {
	out, err := Capture(root, args...)
	if err != nil {
		return nil, err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return nil, errors.New("command printed nothing")
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return nil, fmt.Errorf("command output is not a JSON object: %w\n%s", err, out)
	}
	return result, nil
}
