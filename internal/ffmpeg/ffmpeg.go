// Package ffmpeg makes sure an ffmpeg binary is available for the download
// tool's transcode steps: the system installation is preferred, otherwise a
// static build is downloaded and unpacked once.
package ffmpeg

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"clipdl/internal/config"
	"clipdl/pkg/fsx"
)

const (
	downloadTimeout    = 10 * time.Minute
	filePermExecutable = 0o755
)

// Installer resolves and, when missing, installs ffmpeg and ffprobe.
type Installer struct {
	log    *slog.Logger
	cfg    *config.Config
	client *http.Client

	goos   string
	goarch string
}

func New(log *slog.Logger, cfg *config.Config) *Installer {
	return &Installer{
		log:    log.With(slog.String("package", "ffmpeg")),
		cfg:    cfg,
		client: &http.Client{Timeout: downloadTimeout},
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
	}
}

// installDir is where downloaded binaries land.
func (i *Installer) installDir() string {
	if i.cfg.FFmpeg.Dir != "" {
		return i.cfg.FFmpeg.Dir
	}

	return i.cfg.Dir.Cache
}

// Ensure returns the path of a usable ffmpeg binary, installing one when
// neither the system nor the install dir has it. Idempotent.
func (i *Installer) Ensure(ctx context.Context) (string, error) {
	if path, err := exec.LookPath(binaryName("ffmpeg")); err == nil {
		i.log.InfoContext(ctx, "using system ffmpeg", slog.String("path", path))

		return path, nil
	}

	installed := filepath.Join(i.installDir(), binaryName("ffmpeg"))
	if _, err := os.Stat(installed); err == nil {
		i.log.InfoContext(ctx, "using previously installed ffmpeg", slog.String("path", installed))

		return installed, nil
	}

	i.log.InfoContext(ctx, "ffmpeg not found, downloading", slog.String("dest", i.installDir()))

	if err := i.install(ctx); err != nil {
		return "", fmt.Errorf("install ffmpeg: %w", err)
	}

	return installed, nil
}

func (i *Installer) archiveURL() (string, error) {
	switch {
	case i.goos == "linux" && i.goarch == "arm64":
		return i.cfg.FFmpeg.LinuxARM64, nil
	case i.goos == "linux":
		return i.cfg.FFmpeg.LinuxAMD64, nil
	case i.goos == "windows":
		return i.cfg.FFmpeg.Windows, nil
	default:
		return "", fmt.Errorf("no ffmpeg build configured for %s/%s, install it manually", i.goos, i.goarch)
	}
}

func (i *Installer) install(ctx context.Context) error {
	url, err := i.archiveURL()
	if err != nil {
		return err
	}

	destDir := i.installDir()
	if err := fsx.EnsureDir(destDir); err != nil {
		return fmt.Errorf("install dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp(destDir, "ffmpeg-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()

	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	targets := map[string]struct{}{
		binaryName("ffmpeg"):  {},
		binaryName("ffprobe"): {},
	}

	switch {
	case strings.HasSuffix(url, ".tar.xz"):
		err = extractFromTarXZ(tmpPath, destDir, targets)
	case strings.HasSuffix(url, ".zip"):
		err = extractFromZip(tmpPath, destDir, targets)
	default:
		err = fmt.Errorf("unsupported archive format: %s", url)
	}

	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	i.log.InfoContext(ctx, "ffmpeg installed", slog.String("dir", destDir))

	return nil
}

func binaryName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}

	return base
}

func extractFromTarXZ(archivePath, destDir string, targets map[string]struct{}) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open tar.xz: %w", err)
	}
	defer file.Close()

	xzReader, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	return extractTarSelected(xzReader, destDir, targets)
}

func extractFromZip(zipPath, destDir string, targets map[string]struct{}) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	extracted := 0

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		filename := file.FileInfo().Name()
		if _, ok := targets[filename]; !ok {
			continue
		}

		if err := copyZipFile(file, filepath.Join(destDir, filename)); err != nil {
			return err
		}

		extracted++

		if extracted == len(targets) {
			return nil
		}
	}

	if extracted == 0 {
		return fmt.Errorf("no target files found in zip archive")
	}

	return nil
}

func copyZipFile(file *zip.File, destPath string) error {
	fileReader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open file in zip: %w", err)
	}
	defer fileReader.Close()

	outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
	if err != nil {
		return fmt.Errorf("create dest file: %w", err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, fileReader); err != nil {
		return fmt.Errorf("extract file: %w", err)
	}

	return nil
}

func extractTarSelected(reader io.Reader, destDir string, targets map[string]struct{}) error {
	tarReader := tar.NewReader(reader)
	extracted := 0

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		filename := filepath.Base(header.Name)
		if _, ok := targets[filename]; !ok {
			continue
		}

		destPath := filepath.Join(destDir, filename)

		outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
		if err != nil {
			return fmt.Errorf("create dest file: %w", err)
		}

		if _, err := io.Copy(outFile, tarReader); err != nil {
			outFile.Close()

			return fmt.Errorf("extract file: %w", err)
		}

		outFile.Close()

		extracted++

		if extracted == len(targets) {
			return nil
		}
	}

	if extracted == 0 {
		return fmt.Errorf("no target files found in tar archive")
	}

	return nil
}
