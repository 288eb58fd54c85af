// Package lesson bundles the ownership walkthrough scripts and their notes.
//
// A lesson is an .own script with an optional header of `// key: value`
// comment lines. `// expect: OWN3001` marks a script that must be rejected
// with that code; a sibling .out file holds the expected output of a script
// that must pass, and a sibling .md file holds its notes.
package lesson

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"ownlab/internal/diag"
)

//go:embed scripts
var embedded embed.FS

const root = "scripts"

// Ext is the script extension.
const Ext = ".own"

// Lesson is one runnable script.
type Lesson struct {
	// Name is the slash separated path without extension, e.g. "ch4-errors/dangle".
	Name   string
	Title  string
	Path   string
	Source []byte
	// Notes is the markdown attached to the lesson or its group.
	Notes string
	// Expect is the code the run must stop with, or UnknownCode for scripts
	// that must succeed.
	Expect diag.Code
	// Output is the expected program output; empty means unchecked.
	Output string
}

// Rejected reports whether the lesson is expected to fail.
func (l *Lesson) Rejected() bool { return l.Expect != diag.UnknownCode }

// Group returns the first path segment of the name ("ch4-errors" for
// "ch4-errors/dangle", "ch3" for "ch3").
func (l *Lesson) Group() string {
	group, _, _ := strings.Cut(l.Name, "/")
	return group
}

// Builtin returns the embedded lessons ordered by name.
func Builtin() ([]Lesson, error) {
	sub, err := fs.Sub(embedded, root)
	if err != nil {
		return nil, err
	}
	return load(sub, "lesson:")
}

// LoadDir reads extra lessons from dir on disk.
func LoadDir(dir string) ([]Lesson, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("lessons dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lessons dir: %s is not a directory", dir)
	}
	return load(os.DirFS(dir), filepath.ToSlash(dir)+"/")
}

// Find returns the lesson with the given name.
func Find(lessons []Lesson, name string) (Lesson, bool) {
	name = strings.TrimSuffix(name, Ext)
	for _, l := range lessons {
		if l.Name == name {
			return l, true
		}
	}
	return Lesson{}, false
}

// Select returns the lessons whose name equals one of names or lives under
// one of them as a group. An empty names list selects everything.
func Select(lessons []Lesson, names ...string) ([]Lesson, error) {
	if len(names) == 0 {
		return lessons, nil
	}
	var out []Lesson
	for _, name := range names {
		name = strings.TrimSuffix(name, Ext)
		n := len(out)
		for _, l := range lessons {
			if l.Name == name || strings.HasPrefix(l.Name, name+"/") {
				out = append(out, l)
			}
		}
		if len(out) == n {
			return nil, fmt.Errorf("unknown lesson %q", name)
		}
	}
	return out, nil
}

func load(fsys fs.FS, prefix string) ([]Lesson, error) {
	var lessons []Lesson
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != Ext {
			return nil
		}
		l, err := readLesson(fsys, p)
		if err != nil {
			return err
		}
		l.Path = prefix + p
		lessons = append(lessons, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Name < lessons[j].Name })
	return lessons, nil
}

func readLesson(fsys fs.FS, p string) (Lesson, error) {
	src, err := fs.ReadFile(fsys, p)
	if err != nil {
		return Lesson{}, err
	}
	name := strings.TrimSuffix(p, Ext)
	l := Lesson{Name: name, Source: src}
	header := parseHeader(src)
	l.Title = header["title"]
	if id, ok := header["expect"]; ok {
		code, ok := diag.ParseCode(id)
		if !ok {
			return Lesson{}, fmt.Errorf("%s: unknown expected code %q", p, id)
		}
		l.Expect = code
	}
	if out, err := fs.ReadFile(fsys, name+".out"); err == nil {
		l.Output = string(out)
	}
	// Notes belong to the script itself or, failing that, to its directory.
	for _, md := range []string{name + ".md", path.Dir(name) + ".md"} {
		if notes, err := fs.ReadFile(fsys, md); err == nil {
			l.Notes = string(notes)
			break
		}
	}
	return l, nil
}

// parseHeader collects `// key: value` lines at the top of src.
func parseHeader(src []byte) map[string]string {
	out := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rest, ok := strings.CutPrefix(line, "//")
		if !ok || strings.HasPrefix(rest, "/") {
			break
		}
		key, value, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out
}
