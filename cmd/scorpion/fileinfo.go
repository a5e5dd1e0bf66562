// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/WenniDev/scorpion"
	"github.com/djherbis/times"
)

// fileInfo holds the file system facts printed before the EXIF entries.
type fileInfo struct {
	Name        string
	Directory   string
	Size        int64
	Modified    time.Time
	Accessed    time.Time
	Created     time.Time // Zero if the file system does not record it.
	Permissions string
	Type        string
	Extension   string
	MIMEType    string
}

var formatsByExtension = map[string]scorpion.ImageFormat{
	"jpg":  scorpion.JPEG,
	"jpeg": scorpion.JPEG,
	"png":  scorpion.PNG,
	"gif":  scorpion.GIF,
	"bmp":  scorpion.BMP,
}

func newFileInfo(filename string) (fileInfo, error) {
	fi, err := os.Stat(filename)
	if err != nil {
		return fileInfo{}, err
	}
	ts := times.Get(fi)
	var created time.Time
	if ts.HasBirthTime() {
		created = ts.BirthTime()
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	format := formatsByExtension[ext]
	typ := "Unknown"
	if format != scorpion.ImageFormatUnknown {
		typ = format.String()
	}

	return fileInfo{
		Name:        filepath.Base(filename),
		Directory:   filepath.Dir(filename),
		Size:        fi.Size(),
		Modified:    fi.ModTime(),
		Accessed:    ts.AccessTime(),
		Created:     created,
		Permissions: fi.Mode().Perm().String(),
		Type:        typ,
		Extension:   ext,
		MIMEType:    format.MIMEType(),
	}, nil
}

func (f fileInfo) formatSize() string {
	switch {
	case f.Size < 1024:
		return fmt.Sprintf("%d bytes", f.Size)
	case f.Size < 1024*1024:
		return fmt.Sprintf("%.1f kB", float64(f.Size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(f.Size)/(1024*1024))
	}
}
