// Package audioconv decodes wav, mp3 and ogg (vorbis or opus) files into the
// mono float32 PCM the recognizer expects.
package audioconv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

const TargetRate = 16000

var (
	ErrUnsupported = errors.New("unsupported audio format")
	ErrEmpty       = errors.New("no audio samples")
)

type Options struct {
	// MaxSamples truncates the output. Zero keeps everything.
	MaxSamples int
}

// raw is decoded audio before downmixing and resampling.
type raw struct {
	pcm      []float32
	channels int
	rate     int
}

type decoder struct {
	name   string
	decode func(r io.ReadSeeker) (raw, error)
}

var (
	wavDec    = decoder{"wav", decodeWAV}
	mp3Dec    = decoder{"mp3", decodeMP3}
	vorbisDec = decoder{"ogg/vorbis", decodeVorbis}
	opusDec   = decoder{"ogg/opus", decodeOpus}
)

var byExt = map[string][]decoder{
	".wav":  {wavDec},
	".mp3":  {mp3Dec},
	".ogg":  {vorbisDec, opusDec},
	".oga":  {vorbisDec, opusDec},
	".opus": {opusDec},
}

var byMagic = map[string][]decoder{
	"RIFF": {wavDec},
	"OggS": {vorbisDec, opusDec},
	"ID3\x03": {mp3Dec},
	"ID3\x04": {mp3Dec},
}

// Supported reports whether path has an extension DecodeFile knows.
func Supported(path string) bool {
	_, ok := byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

func DecodeFile(ctx context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(ctx, f, filepath.Ext(path), opt)
}

// Decode picks decoders by extension, falling back to sniffing the header,
// and returns 16 kHz mono samples in [-1, 1].
func Decode(ctx context.Context, r io.ReadSeeker, ext string, opt Options) ([]float32, error) {
	decs, ok := byExt[strings.ToLower(ext)]
	if !ok {
		magic, _ := bufio.NewReader(r).Peek(4)
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		if decs, ok = byMagic[string(magic)]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
		}
	}

	var errs []error
	for _, d := range decs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}

		a, err := d.decode(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
			continue
		}

		return finish(a, opt)
	}

	return nil, errors.Join(errs...)
}

func finish(a raw, opt Options) ([]float32, error) {
	x := Downmix(a.pcm, a.channels)
	x = Resample(x, a.rate, TargetRate)
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x, nil
}

func decodeWAV(r io.ReadSeeker) (raw, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return raw{}, errors.New("invalid wav header")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return raw{}, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return raw{}, ErrEmpty
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}

	a := raw{pcm: intsToFloat(buf.Data, depth), channels: 1, rate: 44100}
	if buf.Format != nil {
		a.channels = max(buf.Format.NumChannels, 1)
		if buf.Format.SampleRate > 0 {
			a.rate = buf.Format.SampleRate
		}
	}
	return a, nil
}

func decodeMP3(r io.ReadSeeker) (raw, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return raw{}, err
	}

	var b bytes.Buffer
	if _, err := io.Copy(&b, dec); err != nil {
		return raw{}, err
	}

	samples := make([]int16, b.Len()/2)
	if err := binary.Read(&b, binary.LittleEndian, samples); err != nil {
		return raw{}, err
	}

	// go-mp3 always yields interleaved 16-bit stereo
	return raw{pcm: int16sToFloat(samples), channels: 2, rate: dec.SampleRate()}, nil
}

func decodeVorbis(r io.ReadSeeker) (raw, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return raw{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return raw{}, errors.New("invalid vorbis stream")
	}
	return raw{pcm: pcm, channels: format.Channels, rate: format.SampleRate}, nil
}

const opusRate = 48000

func decodeOpus(r io.ReadSeeker) (raw, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return raw{}, err
	}
	defer dec.Destroy()

	ch := max(dec.ChannelCount(), 1)
	buf := make([]int16, opusRate/2*ch)

	var pcm []float32
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16sToFloat(buf[:n*ch])...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return raw{}, err
		}
	}

	return raw{pcm: pcm, channels: ch, rate: opusRate}, nil
}

func intsToFloat(data []int, depth int) []float32 {
	scale := 1 / float64(int64(1)<<(depth-1))
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(min(max(float64(v)*scale, -1), 1))
	}
	return out
}

func int16sToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}

// Downmix averages interleaved channels into mono.
func Downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}

	out := make([]float32, len(in)/channels)
	for i := range out {
		var sum float64
		for _, v := range in[i*channels : (i+1)*channels] {
			sum += float64(v)
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// Resample converts between rates with linear interpolation.
func Resample(in []float32, from, to int) []float32 {
	if from == to || from <= 0 || len(in) == 0 {
		return in
	}

	ratio := float64(to) / float64(from)
	out := make([]float32, int(math.Ceil(float64(len(in))*ratio)))
	last := len(in) - 1

	for i := range out {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(src - float64(i0))
		out[i] = in[i0]*(1-frac) + in[i0+1]*frac
	}
	return out
}
