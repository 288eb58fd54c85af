package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"ownlab/internal/diag"
	"ownlab/internal/source"
	"ownlab/internal/version"
)

// Bump when DiskPayload changes shape; older entries then read as misses.
const diskCacheSchemaVersion uint16 = 1

// DiskCache keeps check results as one msgpack file per key. Writes go
// through a temp file and a rename, so readers never see a partial entry
// and concurrent writers of one key simply race to the same content.
type DiskCache struct {
	dir string
}

// DiskPayload is the cached outcome of checking one script.
type DiskPayload struct {
	Schema      uint16
	Tool        string
	Path        string
	ContentHash [32]byte
	Diagnostics []CachedDiagnostic
}

// CachedDiagnostic stores spans as offsets; the file id is reassigned on
// restore.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Start    uint32
	End      uint32
	Message  string
	Notes    []CachedNote
}

type CachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

// CacheKey identifies one check: the script content, the tool version and
// the run settings that can change the outcome.
type CacheKey [32]byte

func (k CacheKey) String() string { return hex.EncodeToString(k[:]) }

func checkKey(file *source.File, entry string, maxDepth int) CacheKey {
	h := sha256.New()
	h.Write(file.Hash[:])
	for _, s := range []string{version.Version, entry} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	h.Write(binary.LittleEndian.AppendUint64(nil, uint64(max(maxDepth, 0))))
	var k CacheKey
	copy(k[:], h.Sum(nil))
	return k
}

// OpenDiskCache uses $XDG_CACHE_HOME/app, or ~/.cache/app.
func OpenDiskCache(app string) (*DiskCache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	c := &DiskCache{dir: dir}
	if err := os.MkdirAll(c.checksDir(), 0o755); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *DiskCache) checksDir() string { return filepath.Join(c.dir, "checks") }

func (c *DiskCache) pathFor(key CacheKey) string {
	return filepath.Join(c.checksDir(), key.String()+".mp")
}

// Put stores payload under key. A nil cache accepts and drops everything.
func (c *DiskCache) Put(key CacheKey, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(c.checksDir(), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if err = errors.Join(err, f.Close()); err == nil {
		err = os.Rename(tmp, c.pathFor(key))
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	return err
}

// Get loads the payload for key into out. Missing entries and entries of
// another schema are misses, not errors.
func (c *DiskCache) Get(key CacheKey, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := os.ReadFile(c.pathFor(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("cache entry %s: %w", key, err)
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	if err := os.RemoveAll(c.checksDir()); err != nil {
		return err
	}
	return os.MkdirAll(c.checksDir(), 0o755)
}

func newDiskPayload(file *source.File, bag *diag.Bag) *DiskPayload {
	payload := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Tool:        version.Version,
		Path:        file.Path,
		ContentHash: file.Hash,
	}
	for _, d := range bag.Items() {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Message:  d.Message,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		payload.Diagnostics = append(payload.Diagnostics, cd)
	}
	return payload
}

// restore rebuilds the diagnostics against fileID.
func (p *DiskPayload) restore(fileID source.FileID, maxDiagnostics int) *diag.Bag {
	bag := diag.NewBag(maxDiagnostics)
	at := func(start, end uint32) source.Span { return source.Span{File: fileID, Start: start, End: end} }
	for _, cd := range p.Diagnostics {
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), at(cd.Start, cd.End), cd.Message)
		for _, n := range cd.Notes {
			d = d.WithNote(at(n.Start, n.End), n.Msg)
		}
		bag.Add(d)
	}
	return bag
}
