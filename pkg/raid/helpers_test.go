package raid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMember struct {
	dev      string // e.g. "sdb"
	slot     string // "0", "1", "none"
	state    string
	noRdLink bool
}

type fakeArray struct {
	name    string
	attrs   map[string]string // md/<file> -> content
	members []fakeMember
}

// cleanArray returns a healthy two-disk raid1.
func cleanArray(name string) fakeArray {
	return fakeArray{
		name: name,
		attrs: map[string]string{
			"array_state":    "clean\n",
			"level":          "raid1\n",
			"raid_disks":     "2\n",
			"degraded":       "0\n",
			"suspended":      "0\n",
			"sync_action":    "idle\n",
			"sync_completed": "none\n",
		},
		members: []fakeMember{
			{dev: "sda1", slot: "0", state: "in_sync"},
			{dev: "sdb1", slot: "1", state: "in_sync"},
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeArray lays out block/<name>/md the way the md driver does.
func writeArray(t *testing.T, root string, a fakeArray) {
	t.Helper()
	mdDir := filepath.Join(root, "block", a.name, "md")
	require.NoError(t, os.MkdirAll(mdDir, 0o755))

	for file, content := range a.attrs {
		writeFile(t, filepath.Join(mdDir, file), content)
	}
	for _, m := range a.members {
		devDir := filepath.Join(mdDir, "dev-"+m.dev)
		writeFile(t, filepath.Join(devDir, "slot"), m.slot+"\n")
		writeFile(t, filepath.Join(devDir, "state"), m.state+"\n")
		target := "../../../../../devices/pci0000:00/ata1/host0/block/" + strings.TrimRight(m.dev, "0123456789") + "/" + m.dev
		require.NoError(t, os.Symlink(target, filepath.Join(devDir, "block")))
		if m.slot != "none" && !m.noRdLink {
			require.NoError(t, os.Symlink("dev-"+m.dev, filepath.Join(mdDir, "rd"+m.slot)))
		}
	}
}

func newTestReader(t *testing.T, arrays ...fakeArray) (*Reader, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "block"), 0o755))
	for _, a := range arrays {
		writeArray(t, root, a)
	}
	return NewReader(NewSysFS(root, 0), filepath.Join(root, "dev")), root
}
