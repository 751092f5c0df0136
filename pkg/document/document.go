// Copyright 2025 walteh LLC
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

package document

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 Document is a text file held as an ordered sequence of lines
type Document struct {
	// Lines holds every line without its terminator
	Lines []string
	// TrailingNewline records whether the text ended with a line terminator
	TrailingNewline bool
	// Path is where the document was loaded from, if anywhere
	Path string
}

// 🏭 Parse splits text into a document
func Parse(text string) *Document {
	doc := &Document{}
	if text == "" {
		return doc
	}
	if strings.HasSuffix(text, "\n") {
		doc.TrailingNewline = true
		text = strings.TrimSuffix(text, "\n")
	}
	doc.Lines = strings.Split(text, "\n")
	return doc
}

// SplitLines splits a block of text into lines for insertion
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// String joins the document back into text
func (d *Document) String() string {
	if len(d.Lines) == 0 {
		return ""
	}
	out := strings.Join(d.Lines, "\n")
	if d.TrailingNewline {
		out += "\n"
	}
	return out
}

// Bytes is String as a byte slice
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

// Len returns the number of lines
func (d *Document) Len() int {
	return len(d.Lines)
}

// Clone returns a deep copy
func (d *Document) Clone() *Document {
	return &Document{
		Lines:           slices.Clone(d.Lines),
		TrailingNewline: d.TrailingNewline,
		Path:            d.Path,
	}
}

// ➕ Insert inserts lines before index i, clamping i to the document bounds
func (d *Document) Insert(i int, lines ...string) {
	i = d.clamp(i)
	if len(d.Lines) == 0 && len(lines) > 0 {
		d.TrailingNewline = true
	}
	d.Lines = slices.Insert(d.Lines, i, lines...)
}

// ➖ Delete removes lines in [from, to), clamping both bounds
func (d *Document) Delete(from, to int) {
	from, to = d.clamp(from), d.clamp(to)
	if from >= to {
		return
	}
	d.Lines = slices.Delete(d.Lines, from, to)
}

func (d *Document) clamp(i int) int {
	switch {
	case i < 0:
		return 0
	case i > len(d.Lines):
		return len(d.Lines)
	default:
		return i
	}
}

// 📥 Read parses a document from a reader
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}
	return Parse(string(data)), nil
}

// 📥 Load reads a document from disk
func Load(ctx context.Context, path string) (*Document, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading document")

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("reading document %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Read(f)
	if err != nil {
		return nil, errors.Errorf("reading document %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// 💾 Save writes the document atomically to path, keeping the original mode
func (d *Document) Save(ctx context.Context, path string) error {
	zerolog.Ctx(ctx).Debug().Str("path", path).Int("lines", d.Len()).Msg("saving document")

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return WriteFileAtomic(path, d.Bytes(), mode)
}

// WriteFileAtomic writes content to a temp file next to path and renames it into place
func WriteFileAtomic(path string, content []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// BackupSuffix is appended to a path to name its backup
const BackupSuffix = ".bak"

// BackupPath returns where Backup stores a copy of path
func BackupPath(path string) string {
	return path + BackupSuffix
}

// 🗄️ Backup copies the file at path to its backup location.
// A missing file is not an error.
func Backup(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", errors.Errorf("reading %s for backup: %w", path, err)
	}

	backupPath := BackupPath(path)
	if err := WriteFileAtomic(backupPath, data, 0644); err != nil {
		return "", errors.Errorf("creating backup: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("backup", backupPath).Msg("backed up document")
	return backupPath, nil
}

// ErrNoBackup is returned by Restore when path has no backup
var ErrNoBackup = errors.Base("backup file does not exist")

// ♻️ Restore moves the backup of path back into place
func Restore(ctx context.Context, path string) error {
	backupPath := BackupPath(path)
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return errors.Errorf("%s: %w", backupPath, ErrNoBackup)
	} else if err != nil {
		return errors.Errorf("checking backup existence: %w", err)
	}

	if err := os.Rename(backupPath, path); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("restored document from backup")
	return nil
}
