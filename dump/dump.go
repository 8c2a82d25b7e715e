// go-mfcverify
// Copyright (c) 2026 The Bandkit Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfcverify.
//
// go-mfcverify is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfcverify is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfcverify; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package dump reads and writes MIFARE Classic reference dumps in the
// Flipper NFC device text format. Unknown bytes are written as "??"; a
// sector key is recorded as known only when all six of its trailer bytes
// are known.
package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	mfcverify "github.com/bandkit/go-mfcverify"
)

const (
	fileTypeHeader = "Flipper NFC device"
	deviceType     = "Mifare Classic"
	formatVersion  = 2
)

// Parse errors
var (
	ErrBadHeader       = errors.New("not a Flipper NFC device file")
	ErrUnsupportedType = errors.New("unsupported device type")
	ErrBadBlockLine    = errors.New("malformed block line")
	ErrMissingBlocks   = errors.New("dump is missing blocks")
)

// File is one parsed dump: card identity metadata plus the card image
type File struct {
	Card *mfcverify.CardImage
	UID  []byte
	ATQA [2]byte
	SAK  byte
}

// Load reads and parses a dump file from disk
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump: %w", err)
	}
	defer func() { _ = f.Close() }()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Save writes a dump file to disk
func Save(path string, file *File) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump: %w", err)
	}
	if err := Write(f, file); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close dump: %w", err)
	}
	return nil
}

// Parse reads one dump from r
func Parse(r io.Reader) (*File, error) {
	p := &parser{
		headers: make(map[string]string),
		blocks:  make(map[int][]byte),
		known:   make(map[int][]bool),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := p.line(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	return p.finish()
}

type parser struct {
	headers map[string]string
	blocks  map[int][]byte
	known   map[int][]bool
}

func (p *parser) line(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	key, value, found := strings.Cut(line, ":")
	if !found {
		return fmt.Errorf("%w: %q", ErrBadHeader, line)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if num, ok := strings.CutPrefix(key, "Block "); ok {
		return p.blockLine(num, value)
	}

	p.headers[key] = value
	return nil
}

func (p *parser) blockLine(num, value string) error {
	index, err := strconv.Atoi(num)
	if err != nil || index < 0 {
		return fmt.Errorf("%w: bad block index %q", ErrBadBlockLine, num)
	}

	fields := strings.Fields(value)
	if len(fields) != mfcverify.BlockSize {
		return fmt.Errorf("%w: block %d has %d bytes", ErrBadBlockLine, index, len(fields))
	}

	data := make([]byte, mfcverify.BlockSize)
	known := make([]bool, mfcverify.BlockSize)
	for i, field := range fields {
		if field == "??" {
			continue // unknown byte, left zero
		}
		b, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return fmt.Errorf("%w: block %d byte %d: %q", ErrBadBlockLine, index, i, field)
		}
		data[i] = byte(b)
		known[i] = true
	}

	p.blocks[index] = data
	p.known[index] = known
	return nil
}

func (p *parser) finish() (*File, error) {
	if p.headers["Filetype"] != fileTypeHeader {
		return nil, ErrBadHeader
	}
	if p.headers["Device type"] != deviceType {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, p.headers["Device type"])
	}

	cardType, err := parseCardType(p.headers["Mifare Classic type"])
	if err != nil {
		return nil, err
	}

	img := mfcverify.NewCardImage(cardType)
	for block := 0; block < cardType.TotalBlocks(); block++ {
		data, ok := p.blocks[block]
		if !ok {
			return nil, fmt.Errorf("%w: block %d", ErrMissingBlocks, block)
		}
		copy(img.Blocks[block][:], data)
	}

	for sector := 0; sector < cardType.TotalSectors(); sector++ {
		known := p.known[mfcverify.SectorTrailerBlock(sector)]
		img.Sectors[sector].KeyAKnown = allKnown(known[0:6])
		img.Sectors[sector].KeyBKnown = allKnown(known[10:16])
	}

	file := &File{Card: img}
	if uid, err := parseHexBytes(p.headers["UID"]); err == nil {
		file.UID = uid
	}
	if atqa, err := parseHexBytes(p.headers["ATQA"]); err == nil && len(atqa) == 2 {
		copy(file.ATQA[:], atqa)
	}
	if sak, err := parseHexBytes(p.headers["SAK"]); err == nil && len(sak) == 1 {
		file.SAK = sak[0]
	}

	return file, nil
}

func parseCardType(value string) (mfcverify.CardType, error) {
	switch value {
	case "1K":
		return mfcverify.Card1K, nil
	case "4K":
		return mfcverify.Card4K, nil
	default:
		return 0, fmt.Errorf("%w: Mifare Classic type %q", ErrUnsupportedType, value)
	}
}

func parseHexBytes(value string) ([]byte, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil, errors.New("empty hex value")
	}
	out := make([]byte, len(fields))
	for i, field := range fields {
		b, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad hex byte %q: %w", field, err)
		}
		out[i] = byte(b)
	}
	return out, nil
}

func allKnown(known []bool) bool {
	for _, k := range known {
		if !k {
			return false
		}
	}
	return true
}

// Write emits file in the Flipper NFC device text format. Key bytes of
// sectors whose keys are not known are masked as "??".
func Write(w io.Writer, file *File) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Filetype: %s\n", fileTypeHeader)
	fmt.Fprintf(bw, "Version: 4\n")
	fmt.Fprintf(bw, "Device type: %s\n", deviceType)
	fmt.Fprintf(bw, "UID: %s\n", hexBytes(file.uid()))
	fmt.Fprintf(bw, "ATQA: %s\n", hexBytes(file.ATQA[:]))
	fmt.Fprintf(bw, "SAK: %02X\n", file.SAK)
	fmt.Fprintf(bw, "Mifare Classic type: %s\n", file.Card.Type)
	fmt.Fprintf(bw, "Data format version: %d\n", formatVersion)

	for block := 0; block < file.Card.Type.TotalBlocks(); block++ {
		fmt.Fprintf(bw, "Block %d: %s\n", block, formatBlock(file.Card, block))
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	return nil
}

// uid returns the explicit UID metadata, falling back to the manufacturer
// block
func (f *File) uid() []byte {
	if len(f.UID) > 0 {
		return f.UID
	}
	uid := f.Card.UID()
	return uid[:]
}

func formatBlock(img *mfcverify.CardImage, block int) string {
	data := img.Blocks[block]

	masked := [mfcverify.BlockSize]bool{}
	if mfcverify.IsSectorTrailer(block) {
		state := img.Sectors[mfcverify.SectorOfBlock(block)]
		for i := 0; i < 6; i++ {
			masked[i] = !state.KeyAKnown
			masked[10+i] = !state.KeyBKnown
		}
	}

	parts := make([]string, mfcverify.BlockSize)
	for i, b := range data {
		if masked[i] {
			parts[i] = "??"
		} else {
			parts[i] = fmt.Sprintf("%02X", b)
		}
	}
	return strings.Join(parts, " ")
}

func hexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
