// Package tts speaks assistant replies through espeak-ng.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
nt_init(void)
{
	return espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
}

static int
nt_voice(const char *lang)
{
	espeak_VOICE v;
	memset(&v, 0, sizeof(v));
	v.languages = lang;
	return espeak_SetVoiceByProperties(&v) == EE_OK ? 0 : -1;
}

static int
nt_say(const char *text, int rate)
{
	if (!text)
	{ return -1; }

	espeak_SetParameter(espeakRATE, rate, 0);
	if (espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -1; }

	return espeak_Synchronize() == EE_OK ? 0 : -1;
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"
)

const DefaultRate = 150

var ErrInit = errors.New("espeak init failed")

// Espeak is a blocking speaker. Speech is serialized, the engine is
// initialized on first use.
type Espeak struct {
	Voice string
	Rate  int

	mu    sync.Mutex
	ready bool
}

func NewEspeak(voice string, rate int) *Espeak {
	if voice == "" {
		voice = "en"
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Espeak{Voice: voice, Rate: rate}
}

func (e *Espeak) init() error {
	if e.ready {
		return nil
	}

	if rc := C.nt_init(); rc < 0 {
		return fmt.Errorf("%w: %d", ErrInit, int(rc))
	}

	cvoice := C.CString(e.Voice)
	defer C.free(unsafe.Pointer(cvoice))

	if rc := C.nt_voice(cvoice); rc != 0 {
		C.espeak_Terminate()
		return fmt.Errorf("%w: voice %q", ErrInit, e.Voice)
	}

	e.ready = true
	return nil
}

// Speak plays text and returns when playback is over. ctx is only checked
// before synthesis starts.
func (e *Espeak) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.init(); err != nil {
		return err
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	if rc := C.nt_say(ctext, C.int(e.Rate)); rc != 0 {
		return fmt.Errorf("espeak synth failed: %d", int(rc))
	}

	return nil
}

func (e *Espeak) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return nil
	}
	e.ready = false
	C.espeak_Terminate()
	return nil
}
