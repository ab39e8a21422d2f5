package audio_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"voice-quiz/internal/application"
	"voice-quiz/internal/infra/audio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEncodeWAV_Header(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767}
	wav := audio.EncodeWAV(samples, 16000)

	if len(wav) != 44+len(samples)*2 {
		t.Fatalf("length: got %d, want %d", len(wav), 44+len(samples)*2)
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Errorf("unexpected header: %q", wav[:44])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 16000 {
		t.Errorf("sample rate: got %d, want 16000", rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(samples)*2) {
		t.Errorf("data size: got %d, want %d", size, len(samples)*2)
	}
	if got := int16(binary.LittleEndian.Uint16(wav[46:48])); got != 1000 {
		t.Errorf("second sample: got %d, want 1000", got)
	}
}

func TestDetectMIME(t *testing.T) {
	tests := []struct {
		name string
		clip []byte
		want string
	}{
		{"wav", audio.EncodeWAV([]int16{1, 2}, 16000), "audio/wav"},
		{"ogg", []byte("OggS\x00\x02"), "audio/ogg"},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, "audio/webm"},
		{"mp3 id3", []byte("ID3\x04\x00"), "audio/mpeg"},
		{"mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x00}, "audio/mpeg"},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), "audio/mp4"},
		{"unknown", []byte("hello"), "audio/wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := audio.DetectMIME(tt.clip); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLevel(t *testing.T) {
	if got := audio.Level(nil); got != 0 {
		t.Errorf("empty: got %v, want 0", got)
	}
	if got := audio.Level([]int16{8192, -8192, 8192, -8192}); got != 1 {
		t.Errorf("reference amplitude: got %v, want 1", got)
	}
	if got := audio.Level([]int16{32767, -32768}); got != 2 {
		t.Errorf("clamped: got %v, want 2", got)
	}
}

func TestTone_Durations(t *testing.T) {
	tests := []struct {
		cue  application.Cue
		want int
	}{
		{application.CueListenStart, 2000},
		{application.CueListenStop, 2000},
		{application.CueCorrect, 3000},
		{application.CueIncorrect, 3000},
	}

	for _, tt := range tests {
		samples := audio.Tone(tt.cue, 10000)
		if len(samples) != tt.want {
			t.Errorf("%s: got %d samples, want %d", tt.cue, len(samples), tt.want)
		}
		if audio.Level(samples) == 0 {
			t.Errorf("%s: tone is silent", tt.cue)
		}
	}

	if got := audio.Tone("unknown", 10000); got != nil {
		t.Errorf("unknown cue: got %d samples, want none", len(got))
	}
}

type blockingPlayer struct {
	mu      sync.Mutex
	played  int
	release chan struct{}
}

func (p *blockingPlayer) Play(ctx context.Context, _ []int16, _ int) error {
	p.mu.Lock()
	p.played++
	p.mu.Unlock()
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	return nil
}

func TestToneCues_PlayNeverBlocks(t *testing.T) {
	player := &blockingPlayer{release: make(chan struct{})}
	cues := audio.NewToneCues(player, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cues.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			cues.Play(application.CueCorrect)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Play blocked while the player was busy")
	}
}

func TestFileRecorder_ConsumesClipsInOrder(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"answer1.wav": []byte("RIFF....WAVE first"),
		"answer2.wav": []byte("RIFF....WAVE second"),
		"notes.txt":   []byte("ignored"),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
	}

	rec := audio.NewFileRecorder(dir, testLogger())
	if err := rec.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, want := range []string{"answer1.wav", "answer2.wav"} {
		var level float64
		if err := rec.Begin(context.Background(), func(l float64) { level = l }); err != nil {
			t.Fatalf("begin: %v", err)
		}
		clip, err := rec.End()
		if err != nil {
			t.Fatalf("end: %v", err)
		}
		if !bytes.Equal(clip, files[want]) {
			t.Errorf("clip: got %q, want contents of %s", clip, want)
		}
		if level != 1 {
			t.Errorf("level: got %v, want 1", level)
		}
		if _, err := os.Stat(filepath.Join(dir, want+".processed")); err != nil {
			t.Errorf("%s not marked processed: %v", want, err)
		}
	}

	if err := rec.Begin(context.Background(), nil); err != nil {
		t.Fatalf("begin on empty dir: %v", err)
	}
	clip, err := rec.End()
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(clip) != 0 {
		t.Errorf("empty directory should yield an empty clip, got %d bytes", len(clip))
	}
}

func TestFileRecorder_EndWithoutBegin(t *testing.T) {
	rec := audio.NewFileRecorder(t.TempDir(), testLogger())
	clip, err := rec.End()
	if err != nil || clip != nil {
		t.Errorf("got %q, %v; want nil, nil", clip, err)
	}
}
