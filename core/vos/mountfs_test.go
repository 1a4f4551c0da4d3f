package vos_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephlewis42/clam/core/vos"
	"github.com/josephlewis42/clam/core/vos/vostest"
)

func newMountFS(t *testing.T) (mfs *vos.MountFS, root, tmp afero.Fs) {
	t.Helper()

	root = afero.NewMemMapFs()
	require.NoError(t, root.MkdirAll("/tmp/cache", 0755))
	require.NoError(t, afero.WriteFile(root, "/etc/motd", []byte("hi"), 0644))

	tmp = afero.NewMemMapFs()
	mfs = vos.NewMountFS(root)
	require.NoError(t, mfs.Mount("/tmp", tmp))
	return mfs, root, tmp
}

func TestMountFS(t *testing.T) {
	mfs, root, tmp := newMountFS(t)

	require.NoError(t, afero.WriteFile(mfs, "/tmp/a.txt", []byte("a"), 0644))
	require.NoError(t, mfs.MkdirAll("/tmp/sub/dir", 0755))

	exists, err := afero.Exists(tmp, "/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.Exists(root, "/tmp/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	isDir, err := afero.IsDir(mfs, "/tmp/sub/dir/")
	require.NoError(t, err)
	assert.True(t, isDir)

	// The mounted filesystem hides what was under the mount point.
	exists, err = afero.Exists(mfs, "/tmp/cache")
	require.NoError(t, err)
	assert.False(t, exists)

	data, err := afero.ReadFile(mfs, "/etc/../etc/motd")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestMountFS_Resolve(t *testing.T) {
	mfs, root, tmp := newMountFS(t)
	nested := afero.NewMemMapFs()
	require.NoError(t, tmp.MkdirAll("/nested", 0755))
	require.NoError(t, mfs.Mount("/tmp/nested", nested))

	cases := map[string]struct {
		name     string
		wantFS   afero.Fs
		wantPath string
	}{
		"root":          {"/", root, "/"},
		"outside":       {"/etc/motd", root, "/etc/motd"},
		"mount point":   {"/tmp", tmp, "/"},
		"trailing":      {"/tmp/", tmp, "/"},
		"inside":        {"/tmp/a/b", tmp, "/a/b"},
		"prefix only":   {"/tmpfiles", root, "/tmpfiles"},
		"deepest first": {"/tmp/nested/x", nested, "/x"},
		"relative":      {"tmp/x", tmp, "/x"},
	}

	for tn, tc := range cases {
		tc := tc
		t.Run(tn, func(t *testing.T) {
			gotFS, gotPath := mfs.Resolve(tc.name)

			assert.True(t, gotFS == tc.wantFS, "wrong filesystem")
			assert.Equal(t, tc.wantPath, gotPath)
		})
	}
}

func TestMountFS_Mount_errors(t *testing.T) {
	mfs, _, _ := newMountFS(t)

	cases := map[string]struct {
		dir     string
		wantErr string
	}{
		"root":          {"/", `invalid mount path "/": can't replace the root`},
		"missing":       {"/missing", `invalid mount path "/missing"`},
		"not directory": {"/etc/motd", `invalid mount path "/etc/motd": not a directory`},
	}

	for tn, tc := range cases {
		tc := tc
		t.Run(tn, func(t *testing.T) {
			err := mfs.Mount(tc.dir, afero.NewMemMapFs())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestMountFS_Rename(t *testing.T) {
	mfs, _, _ := newMountFS(t)
	require.NoError(t, afero.WriteFile(mfs, "/tmp/a", nil, 0644))

	assert.NoError(t, mfs.Rename("/tmp/a", "/tmp/b"))

	err := mfs.Rename("/tmp/b", "/etc/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cross-device link")
}

func TestTenantOS_Mount(t *testing.T) {
	shared := vostest.NewSharedOS(nil)
	noop := func(vos.VOS) int { return 0 }

	alice := vos.NewTenantOS(shared, nil, "alice")
	require.NoError(t, alice.Mount("/tmp", afero.NewMemMapFs()))
	bob := vos.NewTenantOS(shared, nil, "bob")

	aliceProc, err := alice.InitProc(noop, []string{"sh"}, nil)
	require.NoError(t, err)
	bobProc, err := bob.InitProc(noop, []string{"sh"}, nil)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(aliceProc, "/tmp/private", nil, 0644))
	require.NoError(t, afero.WriteFile(aliceProc, "/etc/shared", nil, 0644))

	exists, err := afero.Exists(bobProc, "/tmp/private")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.Exists(bobProc, "/etc/shared")
	require.NoError(t, err)
	assert.True(t, exists)

	// A second mount reuses the session's MountFS.
	require.NoError(t, alice.Mount("/home", afero.NewMemMapFs()))
	aliceProc, err = alice.InitProc(noop, []string{"sh"}, nil)
	require.NoError(t, err)
	exists, err = afero.Exists(aliceProc, "/tmp/private")
	require.NoError(t, err)
	assert.True(t, exists)
}
