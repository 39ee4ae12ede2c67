package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/temoto/ws1001/protocol"
)

// recordPrinter writes one line per record: human text on terminal, JSON otherwise.
type recordPrinter struct {
	w     io.Writer
	human bool
	now   func() time.Time
}

func newRecordPrinter(f *os.File) *recordPrinter {
	fd := f.Fd()
	return &recordPrinter{
		w:     f,
		human: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		now:   time.Now,
	}
}

type recordLine struct {
	Time   time.Time               `json:"time"`
	Record *protocol.WeatherRecord `json:"record"`
}

func (p *recordPrinter) Print(r *protocol.WeatherRecord) error {
	t := p.now()
	if p.human {
		_, err := fmt.Fprintf(p.w, "%s %s\n", t.Format("15:04:05"), r.String())
		return err
	}
	b, err := json.Marshal(recordLine{Time: t.UTC(), Record: r})
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = p.w.Write(b)
	return err
}
