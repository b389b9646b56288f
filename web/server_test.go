package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/glacier_browser/pack"
	"github.com/mogaika/glacier_browser/pack/mjba"
	"github.com/mogaika/glacier_browser/pack/mrtr"
	"github.com/mogaika/glacier_browser/pack/vtxd"
	"github.com/mogaika/glacier_browser/vfs"
)

func writeInstance(t *testing.T, dir, name string, inst pack.Instance) {
	data, err := inst.Marshal(nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0666))
}

func testServer(t *testing.T) *httptest.Server {
	dir := t.TempDir()

	rig := &mrtr.Rig{
		Parents:     []int32{-1, 0},
		Quaternions: []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()},
		Positions:   []mgl32.Vec4{{}, {0, 0, 1, 0}},
		Names:       []string{"root", "head"},
	}
	writeInstance(t, dir, "rig.MRTR", rig)

	clip := &mjba.Clip{
		BoneMap: mjba.BoneMap{
			Fps:             30,
			MrtrBoneIndices: []int16{0, 1},
			UsedBoneIndices: []int16{0, 1},
		},
		Animation: mjba.Animation{Fps: 30},
	}
	require.NoError(t, clip.SetTracks(2, []mjba.BoneTrack{
		{Rotations: []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()}, Translations: make([]mgl32.Vec3, 2)},
		{Rotations: []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatRotate(1, mgl32.Vec3{1, 0, 0})}, Translations: make([]mgl32.Vec3, 2)},
	}))
	writeInstance(t, dir, "walk.MJBA", clip)

	writeInstance(t, dir, "colors.VTXD", &vtxd.VertexData{SubMeshes: []vtxd.SubMesh{
		{Id: 4, Colors: []vtxd.Color{{255, 0, 0, 255}, {0, 255, 0, 255}}},
	}})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.BORG"), []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0666))

	logger, _ := test.NewNullLogger()
	s, err := NewServer(vfs.NewDirectoryDriver(dir), 1, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (int, []byte) {
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestDirListing(t *testing.T) {
	ts := testServer(t)
	status, body := get(t, ts, "/json/dir")
	require.Equal(t, http.StatusOK, status)

	var entries []DirEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 5)
	assert.Equal(t, "broken.BORG", entries[0].Name)
	assert.True(t, entries[0].Supported)
	assert.Equal(t, "readme.txt", entries[2].Name)
	assert.Equal(t, ".TXT", entries[2].Format)
	assert.Equal(t, int64(2), entries[2].Size)
	assert.False(t, entries[2].Supported)
}

func TestJsonFileIsCached(t *testing.T) {
	ts := testServer(t)
	for i := 0; i < 2; i++ {
		status, body := get(t, ts, "/json/file/rig.MRTR")
		require.Equal(t, http.StatusOK, status, string(body))
		var rig mrtr.Rig
		require.NoError(t, json.Unmarshal(body, &rig))
		assert.Equal(t, []string{"root", "head"}, rig.Names)
	}

	_, metrics := get(t, ts, "/metrics")
	assert.Contains(t, string(metrics), "glacier_browser_json_cache_hits_total 1")
	assert.Contains(t, string(metrics), `glacier_browser_decoded_files_total{format=".MRTR"} 1`)
}

func TestDecodeFailures(t *testing.T) {
	ts := testServer(t)
	status, body := get(t, ts, "/json/file/broken.BORG")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body), "error")

	status, _ = get(t, ts, "/json/file/readme.txt")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, ts, "/json/file/missing.PRIM")
	assert.Equal(t, http.StatusNotFound, status)

	_, metrics := get(t, ts, "/metrics")
	assert.Contains(t, string(metrics), `glacier_browser_decode_failures_total{format=".BORG",kind="structure"} 1`)
}

func TestDump(t *testing.T) {
	ts := testServer(t)
	status, body := get(t, ts, "/dump/file/colors.VTXD?depth=2")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "VertexData")
}

func TestGLTFAnimation(t *testing.T) {
	ts := testServer(t)
	status, body := get(t, ts, "/gltf/walk.MJBA?rig=rig.MRTR")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, strings.HasPrefix(string(body), "glTF"))

	status, _ = get(t, ts, "/gltf/walk.MJBA")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = get(t, ts, "/gltf/colors.VTXD")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPreview(t *testing.T) {
	ts := testServer(t)
	status, body := get(t, ts, "/preview/colors.VTXD?submesh=4&scale=2")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "\x89PNG", string(body[:4]))

	status, _ = get(t, ts, "/preview/colors.VTXD?submesh=5")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, ts, "/preview/rig.MRTR")
	assert.Equal(t, http.StatusBadRequest, status)
}
