package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// videoExtensions are the files picked up when a directory is given.
var videoExtensions = map[string]bool{
	".3gp": true, ".avi": true, ".flv": true, ".m2ts": true, ".m4v": true,
	".mkv": true, ".mov": true, ".mp4": true, ".mpeg": true, ".mpg": true,
	".mts": true, ".ogv": true, ".ts": true, ".webm": true, ".wmv": true,
}

func isVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// collectInputs expands the input arguments into the list of files to
// process. An argument may be a file, a directory (its video files) or a
// wildcard pattern on the file name ("clips/*.mkv"). With recursive set,
// directories and patterns also match in subdirectories. Plain file
// arguments are kept even when missing so that validation reports them.
func collectInputs(args []string, recursive bool) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		if strings.ContainsAny(filepath.Base(arg), "*?[") {
			dir, pattern := filepath.Dir(arg), filepath.Base(arg)
			if _, err := filepath.Match(pattern, ""); err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			matched, err := listFiles(dir, recursive, func(name string) bool {
				ok, _ := filepath.Match(pattern, name)
				return ok
			})
			if err != nil {
				return nil, err
			}
			for _, f := range matched {
				add(f)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			add(arg)
			continue
		}
		matched, err := listFiles(arg, recursive, isVideo)
		if err != nil {
			return nil, err
		}
		for _, f := range matched {
			add(f)
		}
	}

	return files, nil
}

// listFiles returns the regular files in dir whose base name satisfies
// match, in lexical order.
func listFiles(dir string, recursive bool, match func(name string) bool) ([]string, error) {
	var files []string

	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read directory: %w", err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() && match(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return files, nil
}
