// Command pathschema prints the JSON schema of terrain spec files, writes it
// next to the specs for editor completion, or checks a committed copy is
// current.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/milk9111/terrainpath/config"
)

var errStale = errors.New("schema is out of date")

func main() {
	log.SetFlags(0)
	log.SetPrefix("pathschema: ")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pathschema", flag.ContinueOnError)
	out := fs.String("out", "", "schema file to write; empty prints to stdout")
	check := fs.Bool("check", false, "compare -out with the current schema instead of writing it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := encodeSchema()
	if err != nil {
		return err
	}

	switch {
	case *check && *out == "":
		return errors.New("-check needs -out")
	case *check:
		have, err := os.ReadFile(*out)
		if err != nil {
			return err
		}
		if !bytes.Equal(have, data) {
			return fmt.Errorf("%s: %w", *out, errStale)
		}
		return nil
	case *out == "":
		_, err := stdout.Write(data)
		return err
	}
	return replaceFile(*out, data)
}

func encodeSchema() ([]byte, error) {
	data, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return append(data, '\n'), nil
}

// replaceFile swaps data in at path through a sibling temp file so readers
// never see a partial schema.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
