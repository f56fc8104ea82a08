package main

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	cli "github.com/spf13/pflag"

	"neurotask/internal/audio"
	"neurotask/internal/bus"
	"neurotask/internal/ipc"
	"neurotask/internal/logging"
	"neurotask/internal/notify"
	"neurotask/internal/nlu"
	"neurotask/internal/proxy"
	"neurotask/internal/session"
	"neurotask/internal/transcript"
	"neurotask/internal/tts"
	"neurotask/internal/ui"
	"neurotask/internal/voice"
	"neurotask/pkg/stt"
	"neurotask/pkg/util"
)

const installHint = "Install: portaudio, espeak-ng and a whisper.cpp model (set NEUROTASK_WHISPER_MODEL)"

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	modelPath := cli.StringP("model", "m", "", "Whisper model (default $NEUROTASK_WHISPER_MODEL or models/ggml-base.en.bin)")
	lang := cli.String("lang", "en", "Recognition language")
	socketPath := cli.StringP("socket", "s", "", "Control socket (default $NEUROTASK_SOCKET or "+ipc.DefaultSocket+")")
	autostart := cli.Bool("autostart", false, "Start listening immediately")
	chat := cli.Bool("chat", false, "Ask OpenAI about utterances no rule matches")
	chatModel := cli.String("chat-model", "", "OpenAI chat model")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS5 proxy for the chat client")
	busURL := cli.String("bus", "", "Websocket URL to publish the transcript to")
	cuePath := cli.String("cue", "beep.mp3", "Listening cue (mp3), skipped if missing")
	duck := cli.Bool("duck", false, "Lower other audio streams while listening")
	replayDir := cli.String("replay", "", "Read utterances from audio files in this directory instead of the microphone")
	rate := cli.Int("rate", tts.DefaultRate, "Speech rate")
	voiceName := cli.String("voice", "en", "espeak-ng voice")
	cli.Parse()

	logging.Setup(os.Stderr, "voice", *logLevel)
	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file", "path", *envFile)
	}

	exeDir := util.ExecutableDir()

	tlog := transcript.New(transcript.SinkFunc(func(e transcript.Entry) {
		fmt.Println(e.String())
	}))

	if *busURL != "" {
		b, err := bus.Dial(*busURL, "neurotask-voice")
		if err != nil {
			log.Warn("Transcript bus unavailable", "url", *busURL, "err", err)
		} else {
			defer b.Close()
			tlog.Subscribe(b)
		}
	}

	responder := buildResponder(*chat, *chatModel, *proxyAddr)

	var listener voice.Listener
	if *replayDir != "" {
		listener = audio.NewReplay(*replayDir)
	} else {
		listener = audio.NewMicrophone(audio.DefaultListenOptions())
	}

	var unavailable error
	if *replayDir == "" {
		if err := audio.Available(); err != nil {
			unavailable = err
		}
	}

	path := resolveModel(*modelPath, exeDir)
	recognizer, err := stt.NewTranscriber(path, stt.Options{Language: *lang})
	if err != nil {
		unavailable = err
	} else {
		defer recognizer.Close()
	}

	speaker := tts.NewEspeak(*voiceName, *rate)
	defer speaker.Close()

	w := &voice.Worker{
		Listener:   listener,
		Recognizer: recognizer,
		Speaker:    speaker,
		Responder:  responder,
		Transcript: tlog,
	}

	if p, ok := util.FirstExisting(*cuePath, filepath.Join(exeDir, *cuePath)); ok {
		w.OnListen = notify.NewCue(p).PlayAsync
	}

	if *duck {
		w.Ducker = audio.NewDucker("neurotask-voice", "espeak-ng")
	}

	w.OnStatus = func(s string) {
		fmt.Fprintln(os.Stderr, ui.Status(s))
	}

	s := session.New("voice", w)
	s.OnError = func(err error) {
		if session.IsFatal(err) {
			log.Error("Voice session ended", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctl := &controller{ctx: ctx, session: s, worker: w, log: tlog, unavailable: unavailable}

	sock := *socketPath
	if sock == "" {
		sock = ipc.SocketPath()
	}
	srv, err := ipc.Listen(sock, ctl.handle)
	if err != nil {
		log.Error("Failed ipc server", "socket", sock, "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	if unavailable != nil {
		tlog.System("Voice features not available!")
		tlog.System(installHint)
		log.Warn("Voice disabled", "err", unavailable)
	} else {
		tlog.System("Ready! Run 'neurotask-ctl start' to begin.")
		log.Info("Boot up - successful", "socket", sock)
	}

	if *autostart && unavailable == nil {
		if rep := ctl.handle(ipc.Request{Cmd: ipc.CmdStart}); !rep.OK {
			log.Error("Autostart failed", "err", rep.Error)
		}
	}

	<-ctx.Done()
	log.Info("Shutting down")
	s.Shutdown()
}

func resolveModel(flagPath, exeDir string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv("NEUROTASK_WHISPER_MODEL"); p != "" {
		return p
	}
	return filepath.Join(exeDir, "models", "ggml-base.en.bin")
}

func buildResponder(chat bool, model, proxyAddr string) voice.Responder {
	rules := nlu.NewDispatcher()
	if !chat {
		return rules
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Warn("OPENAI_API_KEY not set, chat fallback disabled")
		return rules
	}

	httpClient, err := proxy.NewClient(proxyAddr)
	if err != nil {
		log.Warn("Failed to dial socks proxy, chat fallback disabled", "proxy", proxyAddr, "err", err)
		return rules
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)

	log.Debug("Chat fallback enabled", "model", model, "proxy", proxyAddr)
	return &nlu.ChatResponder{Rules: rules, Chat: nlu.NewOpenAI(client, model)}
}
