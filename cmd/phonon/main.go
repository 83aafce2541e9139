// Command phonon compiles a program (from -file or -eval) and either
// renders it to a WAV file or plays it live while listening for further
// /eval, /hush and /panic messages over OSC.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cbegin/phonon"
	"github.com/cbegin/phonon/internal/audioio"
	"github.com/cbegin/phonon/internal/bank"
	"github.com/cbegin/phonon/internal/compiler"
	"github.com/cbegin/phonon/internal/oscctl"
	"github.com/cbegin/phonon/internal/sourcelang"
)

const defaultProgram = "out: sine 440"

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "engine sample rate")
		voices     = flag.Int("voices", 16, "voice pool polyphony")
		samplesDir = flag.String("samples", "", "directory of .wav files to load into the sample bank (filename stem = bank name)")
		srcPath    = flag.String("file", "", "path to a phonon program")
		srcInline  = flag.String("eval", "", "inline phonon program")
		outPath    = flag.String("out", "", "render to this WAV file instead of live playback")
		renderSecs = flag.Float64("seconds", 4.0, "render length in seconds, with -out")
		oscAddr    = flag.String("osc", "127.0.0.1:7770", "OSC control address (empty disables the control server)")
	)
	flag.Parse()

	// Accepted for interface compatibility with the original control
	// surface; this repo implements only the one (hybrid) engine
	// architecture the rest of this file wires up.
	_ = os.Getenv("ENABLE_HYBRID_ARCH")

	src, err := resolveProgram(*srcPath, *srcInline)
	if err != nil {
		log.Fatal(err)
	}

	b := bank.NewBank()
	if *samplesDir != "" {
		if err := loadSampleDir(b, *samplesDir); err != nil {
			log.Fatal(err)
		}
	}

	c := compiler.New(b, compiler.WithSampleRate(*sampleRate), compiler.WithVoicePolyphony(*voices))
	engine := phonon.New(c, *sampleRate)

	compile := func(text string) error {
		stmts, err := sourcelang.Parse(text)
		if err != nil {
			return err
		}
		return engine.Compile(stmts)
	}
	if err := compile(src); err != nil {
		log.Fatal(err)
	}

	if *outPath != "" {
		renderToFile(engine, *outPath, *renderSecs)
		return
	}

	player, err := audioio.NewPlayer(*sampleRate, engine.ProcessBuffer)
	if err != nil {
		log.Fatal(err)
	}
	player.Play()

	if *oscAddr != "" {
		server := oscctl.NewServer(*oscAddr, engine, compile)
		go func() {
			if err := server.ListenAndServe(); err != nil {
				log.Printf("oscctl: %v", err)
			}
		}()
		fmt.Printf("listening for /eval, /hush, /panic on %s\n", *oscAddr)
	}

	ch := engine.Watch()
	for event := range ch {
		switch event.Kind {
		case phonon.EventCompiled:
			fmt.Println("compiled")
		case phonon.EventCompileError:
			fmt.Printf("compile error: %v\n", event.Err)
		case phonon.EventHush:
			fmt.Println("hushed")
		case phonon.EventPanic:
			fmt.Println("panic")
		}
	}
}

func resolveProgram(path, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultProgram, nil
}

// loadSampleDir loads every *.wav file directly inside dir into the bank,
// using the file's stem (without extension, and without a trailing
// "_<digits>" ordinal) as the bank name. "bd.wav", "bd_1.wav" ... load as
// successive variants of "bd" in directory order.
func loadSampleDir(b *bank.Bank, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("phonon: reading %s: %w", path, err)
		}
		samples, rate, err := audioio.DecodeWAVMono(data)
		if err != nil {
			return fmt.Errorf("phonon: decoding %s: %w", path, err)
		}
		b.Load(sampleNameFromFile(e.Name()), &bank.PCM{Data: samples, SampleRate: rate})
	}
	return nil
}

// sampleNameFromFile strips the extension and an optional trailing
// "_<digits>" disambiguator some sample packs use for numbered variants
// of the same name (e.g. "bd_2.wav" -> "bd").
func sampleNameFromFile(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.LastIndexByte(stem, '_'); i >= 0 {
		if _, err := strconv.Atoi(stem[i+1:]); err == nil {
			return stem[:i]
		}
	}
	return stem
}

func renderToFile(engine *phonon.Engine, path string, seconds float64) {
	n := int(seconds * float64(engine.SampleRate()))
	l, r := engine.RenderStereo(n)
	interleaved := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		interleaved[2*i] = l[i]
		interleaved[2*i+1] = r[i]
	}
	data := audioio.EncodeWAVFloat32LE(interleaved, engine.SampleRate(), 2)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%.2fs)\n", path, time.Duration(seconds*float64(time.Second)).Seconds())
}
