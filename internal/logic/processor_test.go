package logic

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linsomniac/fernetcrypt/internal/config"
	"github.com/linsomniac/fernetcrypt/internal/encryption"
)

var secret = []byte("processor test password") //nolint:gochecknoglobals

func testConfig(files ...string) *config.Config {
	return &config.Config{
		Mode:          "tagged",
		Cipher:        "ctr-hmac",
		ChunkSize:     1024,
		Iterations:    1000,
		EncryptSuffix: ".fc",
		Parallel:      2,
		Quiet:         true,
		Files:         files,
	}
}

func newTestProcessor(t *testing.T, cfg *config.Config) *Processor {
	t.Helper()

	proc, err := NewProcessor(cfg, secret, NewLogger(io.Discard, true))
	require.NoError(t, err)

	return proc
}

func writeFile(t *testing.T, path string, data []byte, perm os.FileMode) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, data, perm))
}

func TestEncryptDecryptFiles(t *testing.T) {
	dir := t.TempDir()

	contents := map[string][]byte{
		"empty.txt": {},
		"small.txt": []byte("hello"),
		"large.bin": bytes.Repeat([]byte("0123456789"), 1000),
	}

	var files []string

	for name, data := range contents {
		path := filepath.Join(dir, name)
		writeFile(t, path, data, 0o644)
		files = append(files, path)
	}

	processed, errored, _, err := newTestProcessor(t, testConfig(files...)).ProcessFiles()
	require.NoError(t, err)
	assert.Equal(t, len(files), processed)
	assert.Zero(t, errored)

	var encrypted []string

	for _, file := range files {
		container, err := os.ReadFile(file + ".fc")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(container, []byte(encryption.Magic)))

		encrypted = append(encrypted, file+".fc")
	}

	cfg := testConfig(encrypted...)
	cfg.Decrypt = true
	cfg.DecryptSuffix = ".out"

	processed, errored, _, err = newTestProcessor(t, cfg).ProcessFiles()
	require.NoError(t, err)
	assert.Equal(t, len(files), processed)
	assert.Zero(t, errored)

	for name, data := range contents {
		got, err := os.ReadFile(filepath.Join(dir, name+".out"))
		require.NoError(t, err)
		assert.Equal(t, data, got, name)
	}
}

func TestFailedDecryptLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "secret.txt")
	writeFile(t, plain, bytes.Repeat([]byte("x"), 5000), 0o600)

	_, _, _, err := newTestProcessor(t, testConfig(plain)).ProcessFiles()
	require.NoError(t, err)

	container := plain + ".fc"
	data, err := os.ReadFile(container)
	require.NoError(t, err)

	data[len(data)-1] ^= 0x01
	writeFile(t, container, data, 0o600)

	cfg := testConfig(container)
	cfg.Decrypt = true
	cfg.Output = filepath.Join(dir, "restored.txt")

	processed, errored, _, err := newTestProcessor(t, cfg).ProcessFiles()
	require.ErrorIs(t, err, encryption.ErrAuthentication)
	assert.Zero(t, processed)
	assert.Equal(t, 1, errored)

	_, statErr := os.Stat(cfg.Output)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "a failed decryption must not leave partial plaintext")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".fernetcrypt-", "temporary file left behind")
	}
}

func TestWrongPasswordFile(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "a.txt")
	writeFile(t, plain, []byte("abc"), 0o600)

	_, _, _, err := newTestProcessor(t, testConfig(plain)).ProcessFiles()
	require.NoError(t, err)

	cfg := testConfig(plain + ".fc")
	cfg.Decrypt = true
	cfg.Output = filepath.Join(dir, "b.txt")

	proc, err := NewProcessor(cfg, []byte("another password"), NewLogger(io.Discard, false))
	require.NoError(t, err)

	_, _, _, err = proc.ProcessFiles()
	require.ErrorIs(t, err, encryption.ErrAuthentication)
}

func TestDeleteAndPreserve(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "run.sh")
	writeFile(t, plain, []byte("#!/bin/sh\necho hi\n"), 0o755)

	modTime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(plain, modTime, modTime))

	cfg := testConfig(plain)
	cfg.Delete = true
	cfg.PreserveTimestamps = true

	_, _, _, err := newTestProcessor(t, cfg).ProcessFiles()
	require.NoError(t, err)

	_, err = os.Stat(plain)
	assert.ErrorIs(t, err, os.ErrNotExist, "the original should be deleted")

	info, err := os.Stat(plain + ".fc")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(modTime))
	assert.NotZero(t, info.Mode()&0o111, "executable bit is carried over")
	assert.Zero(t, info.Mode()&0o066, "output is private to the owner")
}

func TestStdinToStdout(t *testing.T) {
	plaintext := bytes.Repeat([]byte("stream me "), 300)

	cfg := testConfig(config.Stdio)
	cfg.Output = config.Stdio
	cfg.Mode = "raw"
	cfg.Cipher = "aes-siv"

	var container bytes.Buffer

	enc := newTestProcessor(t, cfg)
	enc.stdin = bytes.NewReader(plaintext)
	enc.stdout = &container

	_, _, size, err := enc.ProcessFiles()
	require.NoError(t, err)
	assert.EqualValues(t, container.Len(), size)
	assert.False(t, bytes.HasPrefix(container.Bytes(), []byte(encryption.Magic)))

	decCfg := *cfg
	decCfg.Decrypt = true

	var restored bytes.Buffer

	dec := newTestProcessor(t, &decCfg)
	dec.stdin = bytes.NewReader(container.Bytes())
	dec.stdout = &restored

	_, _, size, err = dec.ProcessFiles()
	require.NoError(t, err)
	assert.EqualValues(t, len(plaintext), size)
	assert.Equal(t, plaintext, restored.Bytes())
}

func TestRefusesToOverwriteInput(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "noext")
	writeFile(t, container, []byte("whatever"), 0o600)

	cfg := testConfig(container)
	cfg.Decrypt = true

	_, _, _, err := newTestProcessor(t, cfg).ProcessFiles()
	require.ErrorIs(t, err, encryption.ErrInvalidInput)

	data, err := os.ReadFile(container)
	require.NoError(t, err)
	assert.Equal(t, []byte("whatever"), data)
}

func TestRejectsDirectory(t *testing.T) {
	_, _, _, err := newTestProcessor(t, testConfig(t.TempDir())).ProcessFiles()
	require.ErrorIs(t, err, encryption.ErrInvalidInput)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		decrypt bool
		output  string
		want    string
	}{
		{"encrypt", "dir/a.txt", false, "", "dir/a.txt.fc"},
		{"decrypt", "dir/a.txt.fc", true, "", "dir/a.txt"},
		{"decrypt without suffix", "dir/a.txt", true, "", "dir/a.txt"},
		{"explicit output", "dir/a.txt", false, "b.fc", "b.fc"},
		{"stdout", "dir/a.txt", false, config.Stdio, config.Stdio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(tt.file)
			cfg.Decrypt = tt.decrypt
			cfg.Output = tt.output

			assert.Equal(t, filepath.FromSlash(tt.want), outputPath(tt.file, cfg))
		})
	}
}

func TestReadPasswordRefusesPromptOnStdin(t *testing.T) {
	cfg := testConfig(config.Stdio)
	cfg.Output = "out"

	_, err := readPassword(cfg)
	require.ErrorIs(t, err, encryption.ErrInvalidInput)
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer

	printStats(&out, 3, 1, 2048, 1500*time.Millisecond)

	assert.Contains(t, out.String(), "Processed: 3")
	assert.Contains(t, out.String(), "Errors:    1")
	assert.Contains(t, out.String(), "2.0 KiB")
	assert.Contains(t, out.String(), "1.5s")
}
