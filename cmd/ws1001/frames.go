package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/errors"
	"github.com/temoto/ws1001/cmd/ws1001/subcmd"
	"github.com/temoto/ws1001/internal/config"
	"github.com/temoto/ws1001/protocol"
)

var framesMod = subcmd.Mod{
	Name:  "frames",
	Usage: "print hex of search and query command frames",
	Main: func(ctx context.Context, cfg *config.Config, args []string) error {
		return printFrames(os.Stdout)
	},
}

var decodeMod = subcmd.Mod{
	Name:  "decode",
	Usage: "decode hex frames from args or stdin, one per line",
	Main: func(ctx context.Context, cfg *config.Config, args []string) error {
		if len(args) != 0 {
			return decodeFrames(strings.NewReader(strings.Join(args, "\n")), os.Stdout)
		}
		return decodeFrames(os.Stdin, os.Stdout)
	},
}

func printFrames(w io.Writer) error {
	frames := []struct {
		name string
		c    protocol.Command
	}{
		{"search", protocol.Search()},
		{"query", protocol.Query()},
	}
	for _, f := range frames {
		b, err := f.c.Bytes()
		if err != nil {
			return errors.Annotate(err, f.c.String())
		}
		if _, err = fmt.Fprintf(w, "%-6s %x\n", f.name, b); err != nil {
			return err
		}
	}
	return nil
}

func decodeFrames(r io.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	scanner := bufio.NewScanner(r)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := strings.Join(strings.Fields(scanner.Text()), "")
		if line == "" {
			continue
		}
		b, err := hex.DecodeString(line)
		if err != nil {
			return errors.Annotatef(err, "line=%d", lineno)
		}
		resp, err := protocol.DecodeResponse(b)
		if err != nil {
			// header is still useful when body is not supported
			if h, herr := protocol.DecodeHeader(b); herr == nil {
				fmt.Fprintf(w, "header %s\n", h)
			}
			return errors.Annotatef(err, "line=%d", lineno)
		}
		rec, ok := resp.(*protocol.WeatherRecord)
		if !ok {
			fmt.Fprintf(w, "header %s\n", resp.ResponseHeader())
			continue
		}
		if err = enc.Encode(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}
