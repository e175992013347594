// Copyright 2017 Hajime Hoshi
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command wmaprobench is a smoke-test CLI in the teacher's example/
// tradition: it decodes a fixture file of already-framed WMA Pro packets
// and either dumps raw PCM or plays it live via oto/v2. Container
// demuxing (reading real .wma/ASF files) is out of scope (spec.md §1),
// so the fixture format is this tool's own minimal framing: a small
// header followed by back-to-back block_align-sized packets.
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/oto/v2"
	"github.com/spf13/pflag"

	wmapro "github.com/hajimehoshi/go-wmapro"
)

// fixtureHeader is wmaprobench's own framing, not a WMA/ASF structure:
//
//	u32 sampleRate
//	u32 channels
//	u32 blockAlign
//	u16 extradataLen
//	extradata[extradataLen]
//	packets: back-to-back blockAlign-byte chunks until EOF
type fixtureHeader struct {
	sampleRate int
	channels   int
	blockAlign int
	extradata  []byte
}

func readFixtureHeader(r io.Reader) (*fixtureHeader, error) {
	var u32 [4]byte
	h := &fixtureHeader{}

	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, fmt.Errorf("reading sample rate: %w", err)
	}
	h.sampleRate = int(binary.LittleEndian.Uint32(u32[:]))

	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, fmt.Errorf("reading channel count: %w", err)
	}
	h.channels = int(binary.LittleEndian.Uint32(u32[:]))

	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return nil, fmt.Errorf("reading block_align: %w", err)
	}
	h.blockAlign = int(binary.LittleEndian.Uint32(u32[:]))

	var u16 [2]byte
	if _, err := io.ReadFull(r, u16[:]); err != nil {
		return nil, fmt.Errorf("reading extradata length: %w", err)
	}
	extraLen := int(binary.LittleEndian.Uint16(u16[:]))

	h.extradata = make([]byte, extraLen)
	if _, err := io.ReadFull(r, h.extradata); err != nil {
		return nil, fmt.Errorf("reading extradata: %w", err)
	}
	return h, nil
}

func run() error {
	input := pflag.StringP("input", "i", "fixture.wmapro", "fixture file path")
	output := pflag.StringP("output", "o", "", "write raw little-endian PCM16 to this path instead of playing it")
	play := pflag.BoolP("play", "p", true, "play decoded audio through the default output device")
	applyDRC := pflag.Bool("drc", false, "apply the opt-in DRC gain if the stream signals one")
	logLevel := pflag.StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	pflag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logger := log.New(os.Stderr)
	logger.SetLevel(level)

	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer f.Close()

	hdr, err := readFixtureHeader(f)
	if err != nil {
		return err
	}

	dec, err := wmapro.NewDecoder(hdr.extradata, hdr.sampleRate, hdr.channels, hdr.blockAlign, logger)
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	dec.SetApplyDRC(*applyDRC)

	var pcm bytes.Buffer
	packet := make([]byte, hdr.blockAlign)
	out := make([]int16, dec.OutputChannels()*dec.SamplesPerFrame()*4)

	frames := 0
	for {
		if _, err := io.ReadFull(f, packet); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return err
		}
		_, n, err := dec.DecodePacket(packet, out)
		if err != nil {
			logger.Warn("packet decode error, continuing", "err", err)
			continue
		}
		for _, s := range out[:n] {
			if err := binary.Write(&pcm, binary.LittleEndian, s); err != nil {
				return err
			}
		}
		frames++
	}
	logger.Info("decoded", "frames", frames, "bytes", pcm.Len())

	if *output != "" {
		return os.WriteFile(*output, pcm.Bytes(), 0o644)
	}
	if !*play {
		return nil
	}

	c, ready, err := oto.NewContext(hdr.sampleRate, dec.OutputChannels(), 2)
	if err != nil {
		return err
	}
	<-ready

	p := c.NewPlayer(bytes.NewReader(pcm.Bytes()))
	defer p.Close()
	p.Play()

	for p.IsPlaying() {
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
