package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"opendart/internal/mcp"
)

const maxLineBytes = 4 << 20

// ServeLines reads one CallFrame per line from in and writes one ResultFrame
// per line to out, in order. It returns nil at EOF.
func ServeLines(ctx context.Context, registry *mcp.Registry, in io.Reader, out io.Writer, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "stdio")

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var res mcp.ResultFrame
		var f mcp.CallFrame
		if err := json.Unmarshal(line, &f); err != nil {
			res = mcp.ErrorFrame("", mcp.KindInvalidInput, "invalid frame: "+err.Error())
		} else {
			res = registry.Dispatch(ctx, f)
		}
		if res.Error != nil {
			log.WithFields(logrus.Fields{"id": res.ID, "tool": res.Tool, "kind": res.Error.Kind}).Debug("frame failed")
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("stdio: write: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("stdio: read: %w", err)
	}
	return nil
}
