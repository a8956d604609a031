package record

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"
)

// ManifestVersion is the current manifest layout.
const ManifestVersion = 1

// Manifest describes a sealed recording.
type Manifest struct {
	Version int `msgpack:"version"`

	VideoPath   string `msgpack:"video_path"`
	VideoDigest string `msgpack:"video_digest"`
	Frames      uint64 `msgpack:"frames"`
	Width       int    `msgpack:"width"`
	Height      int    `msgpack:"height"`
	FPS         int    `msgpack:"fps"`

	AudioPath    string `msgpack:"audio_path"`
	AudioDigest  string `msgpack:"audio_digest"`
	AudioChunks  int    `msgpack:"audio_chunks"`
	AudioSamples int    `msgpack:"audio_samples"`
	SampleRate   int    `msgpack:"sample_rate"`

	Started time.Time `msgpack:"started"`
	Sealed  time.Time `msgpack:"sealed"`
}

// AudioDuration returns the recorded audio length.
func (m *Manifest) AudioDuration() time.Duration {
	if m.SampleRate <= 0 {
		return 0
	}
	return time.Duration(m.AudioSamples) * time.Second / time.Duration(m.SampleRate)
}

// ManifestPath returns the seal marker path for a video sink.
func ManifestPath(videoPath string) string {
	return videoPath + ".manifest"
}

// FileDigest returns the hex BLAKE2b-256 digest of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteManifest stores m at path through a synced temporary file so the
// marker never exists half-written.
func WriteManifest(path string, m *Manifest) error {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: version %d", ErrManifest, m.Version)
	}
	return &m, nil
}
