package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contexter", "config.json")
	reg, err := Open(path)
	require.NoError(t, err)
	return reg, path
}

func readConfigFile(t *testing.T, path string) Config {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var config Config
	require.NoError(t, json.Unmarshal(data, &config))
	return config
}

func Test_Open_MissingFileYieldsDefaults(t *testing.T) {
	reg, path := openTemp(t)

	snapshot := reg.Snapshot()
	assert.Equal(t, uint16(DefaultPort), snapshot.Port)
	assert.Equal(t, DefaultListenAddress, snapshot.ListenAddress)
	assert.Empty(t, snapshot.Projects)
	assert.Empty(t, snapshot.APIKeys)
	assert.NotNil(t, snapshot.Projects)
	assert.NotNil(t, snapshot.APIKeys)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "opening must not create the file")
}

func Test_Open_NormalisesMissingMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"projects":null,"port":4000,"listen_address":"0.0.0.0"}`), 0o600))

	reg, err := Open(path)
	require.NoError(t, err)

	snapshot := reg.Snapshot()
	assert.Equal(t, uint16(4000), snapshot.Port)
	assert.Equal(t, "0.0.0.0", snapshot.ListenAddress)
	assert.NotNil(t, snapshot.Projects)
	assert.NotNil(t, snapshot.APIKeys)
}

func Test_Open_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}

func Test_Registry_AddProjectPersists(t *testing.T) {
	reg, path := openTemp(t)
	projectDir := t.TempDir()

	require.NoError(t, reg.AddProject("app", projectDir))

	root, ok := reg.Project("app")
	require.True(t, ok)
	assert.Equal(t, projectDir, root)

	onDisk := readConfigFile(t, path)
	assert.Equal(t, projectDir, onDisk.Projects["app"])

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	reopened, err := Open(path)
	require.NoError(t, err)
	root, ok = reopened.Project("app")
	assert.True(t, ok)
	assert.Equal(t, projectDir, root)
}

func Test_Registry_AddProjectRejectsInvalidInput(t *testing.T) {
	reg, _ := openTemp(t)

	assert.ErrorIs(t, reg.AddProject("", t.TempDir()), ErrInvalidName)
	assert.Error(t, reg.AddProject("missing", filepath.Join(t.TempDir(), "nope")))

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, reg.AddProject("file", file))

	assert.Empty(t, reg.Projects())
}

func Test_Registry_RemoveMissingProjectDoesNotWrite(t *testing.T) {
	reg, path := openTemp(t)

	removed, err := reg.RemoveProject("missing")
	require.NoError(t, err)
	assert.False(t, removed)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be written for a no-op removal")
}

func Test_Registry_RemoveProject(t *testing.T) {
	reg, path := openTemp(t)
	require.NoError(t, reg.AddProject("app", t.TempDir()))

	removed, err := reg.RemoveProject("app")
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok := reg.Project("app")
	assert.False(t, ok)
	assert.Empty(t, readConfigFile(t, path).Projects)
}

func Test_Registry_ProjectsSortedByName(t *testing.T) {
	reg, _ := openTemp(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.AddProject(name, t.TempDir()))
	}

	projects := reg.Projects()
	require.Len(t, projects, 3)
	assert.Equal(t, "alpha", projects[0].Name)
	assert.Equal(t, "mid", projects[1].Name)
	assert.Equal(t, "zeta", projects[2].Name)
}

func Test_Registry_CredentialRoundTrip(t *testing.T) {
	reg, path := openTemp(t)

	secret, err := reg.GenerateCredential("laptop")
	require.NoError(t, err)
	assert.Len(t, secret, 43, "32 bytes in unpadded base64")

	assert.True(t, reg.Authorize(secret))
	assert.False(t, reg.Authorize(secret+"x"))
	assert.False(t, reg.Authorize(""))

	onDisk := readConfigFile(t, path)
	assert.Equal(t, hashSecret(secret), onDisk.APIKeys["laptop"])
	assert.NotContains(t, onDisk.APIKeys["laptop"], secret)

	removed, err := reg.RemoveCredential("laptop")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, reg.Authorize(secret))
}

func Test_Registry_RegenerateReplacesCredential(t *testing.T) {
	reg, _ := openTemp(t)

	first, err := reg.GenerateCredential("ci")
	require.NoError(t, err)
	second, err := reg.GenerateCredential("ci")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.False(t, reg.Authorize(first))
	assert.True(t, reg.Authorize(second))
	assert.Equal(t, []string{"ci"}, reg.CredentialNames())
}

func Test_Registry_AuthorizeAnyOfSeveral(t *testing.T) {
	reg, _ := openTemp(t)
	var secrets []string
	for _, name := range []string{"a", "b", "c"} {
		secret, err := reg.GenerateCredential(name)
		require.NoError(t, err)
		secrets = append(secrets, secret)
	}

	for _, secret := range secrets {
		assert.True(t, reg.Authorize(secret))
	}
	assert.Equal(t, []string{"a", "b", "c"}, reg.CredentialNames())
}

func Test_Registry_EmptyCredentialSetRejects(t *testing.T) {
	reg, _ := openTemp(t)

	assert.False(t, reg.Authorize(""))
	assert.False(t, reg.Authorize("anything"))
	assert.False(t, reg.Authorize(dummyDigest))
}

func Test_matchDigest_DummyNeverMatches(t *testing.T) {
	assert.False(t, matchDigest(dummyDigest, nil))
	assert.False(t, matchDigest(dummyDigest, []string{hashSecret("real")}))
	assert.True(t, matchDigest(hashSecret("real"), []string{hashSecret("other"), hashSecret("real")}))
}

func Test_Registry_RemoveMissingCredential(t *testing.T) {
	reg, _ := openTemp(t)

	removed, err := reg.RemoveCredential("ghost")
	require.NoError(t, err)
	assert.False(t, removed)
}

func Test_Registry_ListenSettings(t *testing.T) {
	reg, path := openTemp(t)

	require.NoError(t, reg.SetPort(8080))
	require.NoError(t, reg.SetListenAddress("0.0.0.0"))
	assert.Error(t, reg.SetPort(0))
	assert.Error(t, reg.SetListenAddress(""))

	onDisk := readConfigFile(t, path)
	assert.Equal(t, uint16(8080), onDisk.Port)
	assert.Equal(t, "0.0.0.0", onDisk.ListenAddress)
}

func Test_Registry_FailedWriteLeavesStateUnchanged(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions behave differently on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	dir := t.TempDir()
	reg, err := Open(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	assert.Error(t, reg.SetPort(9999))
	assert.Equal(t, uint16(DefaultPort), reg.Snapshot().Port)

	_, err = reg.GenerateCredential("ci")
	assert.Error(t, err)
	assert.Empty(t, reg.CredentialNames())
}

func Test_Registry_SnapshotIsACopy(t *testing.T) {
	reg, _ := openTemp(t)
	require.NoError(t, reg.AddProject("app", t.TempDir()))

	snapshot := reg.Snapshot()
	snapshot.Projects["injected"] = "/tmp"
	snapshot.Port = 1

	_, ok := reg.Project("injected")
	assert.False(t, ok)
	assert.Equal(t, uint16(DefaultPort), reg.Snapshot().Port)
}

func Test_Registry_Reload(t *testing.T) {
	reg, path := openTemp(t)
	require.NoError(t, reg.SetPort(4000))

	other, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, other.AddProject("external", t.TempDir()))

	_, ok := reg.Project("external")
	require.False(t, ok)

	require.NoError(t, reg.Reload())
	_, ok = reg.Project("external")
	assert.True(t, ok)
	assert.Equal(t, uint16(4000), reg.Snapshot().Port)
}

func Test_Registry_ReloadInvalidKeepsState(t *testing.T) {
	reg, path := openTemp(t)
	require.NoError(t, reg.AddProject("app", t.TempDir()))
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	assert.Error(t, reg.Reload())
	_, ok := reg.Project("app")
	assert.True(t, ok)
}

func Test_Registry_ConcurrentAccess(t *testing.T) {
	reg, _ := openTemp(t)
	secret, err := reg.GenerateCredential("ci")
	require.NoError(t, err)

	projectDir := t.TempDir()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_ = reg.AddProject("p", projectDir)
			_, _ = reg.RemoveProject("p")
		}
	}()
	for i := 0; i < 200; i++ {
		assert.True(t, reg.Authorize(secret))
		reg.Projects()
	}
	<-done
}

func Test_Registry_ReloadDuringMutationsLosesNothing(t *testing.T) {
	reg, path := openTemp(t)
	projectDir := t.TempDir()

	const writers = 8
	stop := make(chan struct{})
	reloaded := make(chan struct{})
	go func() {
		defer close(reloaded)
		for {
			select {
			case <-stop:
				return
			default:
				_ = reg.Reload()
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		name := fmt.Sprintf("p%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, reg.AddProject(name, projectDir))
		}()
	}
	wg.Wait()
	close(stop)
	<-reloaded

	assert.Len(t, reg.Snapshot().Projects, writers)
	assert.Len(t, readConfigFile(t, path).Projects, writers)
}

func Test_DefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	assert.Equal(t, "config.json", filepath.Base(path))
	assert.Equal(t, "contexter", filepath.Base(filepath.Dir(path)))
}
