package middleware

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/phuslu/log"
)

// ServeStdio reads newline-delimited JSON-RPC messages from in and writes
// one response line per request to out. It returns nil when in reaches EOF
// or ctx is cancelled. Messages are processed in order.
func ServeStdio(ctx context.Context, processor RequestProcessor, in io.Reader, out io.Writer, logger *log.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxBodySize)
	w := bufio.NewWriter(out)

	var seq int64
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		seq++
		reqCtx := WithRequestID(ctx, "stdio-"+strconv.FormatInt(seq, 10))

		resp := Dispatch(reqCtx, processor, logger, line)
		if resp == nil {
			continue
		}
		if _, err := w.Write(append(resp, '\n')); err != nil {
			return errors.Wrap(err, "write response")
		}
		if err := w.Flush(); err != nil {
			return errors.Wrap(err, "flush response")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "read request")
	}
	return nil
}
