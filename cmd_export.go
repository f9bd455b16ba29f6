package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AkatukiSora/hh-replayer/internal/phh"
)

// ExportPHHCmd converts the hands of a file to PHH.
type ExportPHHCmd struct {
	File   string `arg:"" name:"file" help:"Hand-history file, or - for stdin"`
	Output string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (cmd ExportPHHCmd) Run(g *Globals) error {
	if _, err := g.load(); err != nil {
		return err
	}
	hands, err := readHands(cmd.File)
	if err != nil {
		return err
	}
	if len(hands) == 0 {
		return fmt.Errorf("no hands found in %s", cmd.File)
	}

	records := make([]*phh.HandHistory, len(hands))
	for i, h := range hands {
		records[i] = phh.FromHand(h)
	}

	if cmd.Output == "" {
		return encodePHH(g.stdout(), records)
	}
	return writePHHFile(cmd.Output, records)
}

// encodePHH writes a single hand as a plain PHH document and several hands
// as numbered PHHS tables.
func encodePHH(w io.Writer, records []*phh.HandHistory) error {
	if len(records) == 1 {
		return phh.Encode(w, records[0])
	}
	return phh.EncodeAll(w, records)
}

func writePHHFile(path string, records []*phh.HandHistory) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return encodePHH(f, records)
}
