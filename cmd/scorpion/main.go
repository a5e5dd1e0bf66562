// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command scorpion prints file facts and EXIF metadata for JPEG and PNG images.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/WenniDev/scorpion"
	"github.com/hashicorp/go-multierror"
)

const (
	separator      = "========================================"
	fileTimeLayout = "2006:01:02 15:04:05-07:00"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Extract EXIF metadata from image files\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	nested := flag.Bool("nested", false, "Follow sub-IFD pointers found inside sub-IFDs")
	maxTags := flag.Uint("max-tags", 5000, "Maximum number of entries to read per file")
	maxTagSize := flag.Uint("max-tag-size", 10000, "Maximum size in bytes of an entry value, larger entries are skipped")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	c := &cli{
		out:    os.Stdout,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		opts: scorpion.Options{
			LimitNumTags:  uint32(*maxTags),
			LimitTagSize:  uint32(*maxTagSize),
			NestedSubIFDs: *nested,
		},
	}

	if err := c.run(flag.Args()); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	out    io.Writer
	logger *slog.Logger
	opts   scorpion.Options
}

// run processes each file in turn. A failing file is logged and does not stop the others.
// The returned error holds one error per failed file.
func (c *cli) run(filenames []string) error {
	var result error
	for i, filename := range filenames {
		if i > 0 {
			fmt.Fprintln(c.out, separator)
		}
		if err := c.processFile(filename); err != nil {
			c.logger.Error("failed to process file", "file", filename, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", filename, err))
		}
	}
	return result
}

func (c *cli) processFile(filename string) error {
	fi, err := newFileInfo(filename)
	if err != nil {
		return err
	}

	c.printField("File Name", fi.Name)
	c.printField("Directory", fi.Directory)
	c.printField("File Size", fi.formatSize())
	c.printField("File Modification Date/Time", fi.Modified.Format(fileTimeLayout))
	c.printField("File Access Date/Time", fi.Accessed.Format(fileTimeLayout))
	if !fi.Created.IsZero() {
		c.printField("File Creation Date/Time", fi.Created.Format(fileTimeLayout))
	}
	c.printField("File Permissions", fi.Permissions)
	c.printField("File Type", fi.Type)
	c.printField("File Type Extension", fi.Extension)
	c.printField("MIME Type", fi.MIMEType)

	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	opts := c.opts
	opts.Warnf = func(format string, args ...any) {
		c.logger.Debug(fmt.Sprintf(format, args...), "file", filename)
	}

	res, err := scorpion.Decode(data, opts)
	if err != nil {
		if errors.Is(err, scorpion.ErrExifNotFound) || errors.Is(err, scorpion.ErrUnsupportedFormat) {
			c.logger.Info("no EXIF data", "file", filename, "reason", err)
			return nil
		}
		return err
	}

	c.printField("Exif Byte Order", res.ByteOrder.String())

	for _, ifd := range res.IFDs {
		c.logger.Debug("IFD", "file", filename, "name", ifd.Name(), "entries", len(ifd.Entries))
		for _, e := range ifd.Entries {
			c.printField(e.Tag.String(), scorpion.FormatValue(e.Tag, e.Value))
		}
	}

	return nil
}

func (c *cli) printField(label, value string) {
	fmt.Fprintf(c.out, "%-32s: %s\n", label, value)
}
