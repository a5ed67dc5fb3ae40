package ffmpegsource

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/user/moviebarcode/pkg/pipeline"
)

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = fmt.Errorf("%w: ffmpeg not found", pipeline.ErrDecoderUnavailable)

	// ErrFFprobeNotFound is returned when no ffprobe binary can be located.
	ErrFFprobeNotFound = fmt.Errorf("%w: ffprobe not found", pipeline.ErrDecoderUnavailable)
)

// FindFFmpeg searches for ffmpeg.
// Priority: 1) custom, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg(custom string) (string, error) {
	return findTool("ffmpeg", custom, "FFMPEG_PATH", ErrFFmpegNotFound)
}

// FindFFprobe searches for ffprobe.
// Priority: 1) custom, 2) FFPROBE_PATH env, 3) PATH, 4) common locations
func FindFFprobe(custom string) (string, error) {
	return findTool("ffprobe", custom, "FFPROBE_PATH", ErrFFprobeNotFound)
}

// IsAvailable reports whether both ffmpeg and ffprobe can be located.
func IsAvailable() bool {
	if _, err := FindFFmpeg(""); err != nil {
		return false
	}
	_, err := FindFFprobe("")
	return err == nil
}

func findTool(name, custom, envVar string, notFound error) (string, error) {
	if custom != "" {
		if p, ok := resolve(custom); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: custom path %s", notFound, custom)
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if p, ok := resolve(envPath); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s %s", notFound, envVar, envPath)
	}

	execName := name
	if runtime.GOOS == "windows" {
		execName = name + ".exe"
	}

	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	for _, p := range commonPaths(execName) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

// resolve accepts either a path to an existing file or a bare command name
// found on PATH.
func resolve(p string) (string, bool) {
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	if !strings.ContainsRune(p, os.PathSeparator) {
		if found, err := exec.LookPath(p); err == nil {
			return found, true
		}
	}
	return "", false
}

func commonPaths(execName string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin\` + execName,
			`C:\Program Files\ffmpeg\bin\` + execName,
			`C:\Program Files (x86)\ffmpeg\bin\` + execName,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/" + execName,
			"/usr/local/bin/" + execName,
			"/usr/bin/" + execName,
		}
	default:
		return []string{
			"/usr/bin/" + execName,
			"/usr/local/bin/" + execName,
			"/opt/homebrew/bin/" + execName,
			"/snap/bin/" + execName,
		}
	}
}
