package raid

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/addisonbair/mdraid-sidecars/pkg/log"
)

var syncCompletedPattern = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)

// Reader builds ArrayState snapshots from sysfs.
type Reader struct {
	fs      FS
	devRoot string
}

// NewReader returns a Reader over fsys. devRoot is where block device nodes
// live, normally /dev.
func NewReader(fsys FS, devRoot string) *Reader {
	if devRoot == "" {
		devRoot = DefaultDevRoot
	}
	return &Reader{fs: fsys, devRoot: devRoot}
}

// ReadArray reads the md attributes and members of one array.
//
// Missing base directories, or mandatory files vanishing mid-read, yield a
// KindTargetGone error. Read timeouts propagate as KindReadTimeout. Malformed
// mandatory content is KindInternal.
func (r *Reader) ReadArray(ctx context.Context, name string) (*ArrayState, error) {
	log.Debug().Str("array", name).Msg("Checking device")

	baseDir := path.Join("block", name)
	mdDir := path.Join(baseDir, "md")
	for _, dir := range []string{baseDir, mdDir} {
		if !r.fs.IsDir(dir) {
			return nil, newError(KindTargetGone, name, dir, fmt.Errorf("directory doesn't exist"))
		}
	}

	st := &ArrayState{Name: name}
	var err error

	if st.ArrayState, err = r.readString(ctx, name, path.Join(mdDir, "array_state")); err != nil {
		return nil, err
	}
	if st.Level, err = r.readString(ctx, name, path.Join(mdDir, "level")); err != nil {
		return nil, err
	}
	if st.Degraded, err = r.readOptionalBool(ctx, name, path.Join(mdDir, "degraded")); err != nil {
		return nil, err
	}
	if st.RaidDisks, err = r.readInt(ctx, name, path.Join(mdDir, "raid_disks")); err != nil {
		return nil, err
	}
	if st.RaidDisks < 0 {
		return nil, newError(KindInternal, name, path.Join(mdDir, "raid_disks"), fmt.Errorf("negative raid_disks %d", st.RaidDisks))
	}
	if st.Suspended, err = r.readOptionalBool(ctx, name, path.Join(mdDir, "suspended")); err != nil {
		return nil, err
	}

	syncActionFile := path.Join(mdDir, "sync_action")
	if r.fs.Exists(syncActionFile) {
		action, err := r.readString(ctx, name, syncActionFile)
		if err != nil {
			return nil, err
		}
		st.SyncAction = &action
	}

	syncCompletedFile := path.Join(mdDir, "sync_completed")
	if r.fs.Exists(syncCompletedFile) {
		raw, err := r.readString(ctx, name, syncCompletedFile)
		if err != nil {
			return nil, err
		}
		parseSyncCompleted(st, raw)
	}

	members, err := r.readMembers(ctx, name, mdDir)
	if err != nil {
		return nil, err
	}
	Classify(st, members)

	log.Debug().Str("array", name).Interface("state", st).Msg("Status results")
	return st, nil
}

// parseSyncCompleted handles "<synced> / <total>"; "none" and other content
// leave the progress unset.
func parseSyncCompleted(st *ArrayState, raw string) {
	m := syncCompletedPattern.FindStringSubmatch(raw)
	if m == nil {
		return
	}
	synced, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return
	}
	total, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return
	}
	st.SectorsSynced = &synced
	st.SectorsTotal = &total
	if total > 0 {
		st.SyncCompleted = ptr(float64(synced) / float64(total))
	}
}

func (r *Reader) readMembers(ctx context.Context, name, mdDir string) ([]*Member, error) {
	pattern := path.Join(mdDir, "dev-*")
	dirs, err := r.fs.Glob(pattern)
	if err != nil {
		return nil, newError(KindInternal, name, pattern, err)
	}
	log.Debug().Str("array", name).Strs("dirs", dirs).Msg("Found member dirs")

	members := make([]*Member, 0, len(dirs))
	for _, dir := range dirs {
		m := &Member{Path: dir}

		rawSlot, err := r.readString(ctx, name, path.Join(dir, "slot"))
		if err != nil {
			return nil, err
		}
		if slot, err := strconv.Atoi(rawSlot); err == nil {
			m.Slot = &slot
		}

		if m.State, err = r.readString(ctx, name, path.Join(dir, "state")); err != nil {
			return nil, err
		}

		blockLink := path.Join(dir, "block")
		target, err := r.fs.Readlink(blockLink)
		if err != nil {
			if isNotExist(err) {
				return nil, newError(KindTargetGone, name, blockLink, err)
			}
			return nil, newError(KindInternal, name, blockLink, err)
		}
		m.BlockDevice = path.Join("/dev", path.Base(path.Clean(path.Join(dir, target))))

		if m.Slot != nil {
			m.SlotLink = path.Join(mdDir, fmt.Sprintf("rd%d", *m.Slot))
			m.SlotLinkExists = r.fs.Exists(m.SlotLink)
		}
		members = append(members, m)
	}
	return members, nil
}

// readString reads a file and trims surrounding whitespace.
func (r *Reader) readString(ctx context.Context, name, file string) (string, error) {
	data, err := r.fs.ReadFile(ctx, file)
	if err != nil {
		return "", r.wrap(name, file, err)
	}
	return strings.TrimSpace(data), nil
}

func (r *Reader) readInt(ctx context.Context, name, file string) (int, error) {
	raw, err := r.readString(ctx, name, file)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newError(KindInternal, name, file, err)
	}
	return n, nil
}

func (r *Reader) readOptionalBool(ctx context.Context, name, file string) (*bool, error) {
	if !r.fs.Exists(file) {
		return nil, nil
	}
	n, err := r.readInt(ctx, name, file)
	if err != nil {
		return nil, err
	}
	return ptr(n != 0), nil
}

// wrap attaches the array name to read errors and classifies them.
func (r *Reader) wrap(name, file string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		if e.Target == "" {
			e.Target = name
		}
		return e
	}
	if isNotExist(err) {
		return newError(KindTargetGone, name, file, err)
	}
	return newError(KindInternal, name, file, err)
}
