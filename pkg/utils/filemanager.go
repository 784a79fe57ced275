// =============================================================================
// SUNAT Detracciones - File Manager Utility
// =============================================================================
//
// This module provides the file handling around one pipeline run:
//   - Input discovery (.xml and .zip, recursive, case-insensitive)
//   - Zip expansion into a private staging directory
//   - De-duplication and deterministic ordering of XML paths
//   - XML counting for quota checks
//   - Bundling of the run outputs into detracciones_<ruc>.zip
//
// STAGING STRATEGY:
//   - Each FileManager owns one staging directory, created on first use
//   - Zip members keep only their base name; a later member with the same
//     name overwrites an earlier one, including across different zips
//   - Cleanup removes the staging directory; it is safe to call twice
//
// =============================================================================

package utils

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for one pipeline run.
type FileManager struct {
	// InputDir is the directory scanned for .xml and .zip files.
	InputDir string

	// OutputDir is the directory receiving the .txt and the reports.
	OutputDir string

	// StagingRoot is where the private staging directory is created.
	// Default: os.TempDir()
	StagingRoot string

	stagingDir string
	logger     logrus.FieldLogger
}

// NewFileManager creates a FileManager for the given directories.
func NewFileManager(inputDir, outputDir string, logger logrus.FieldLogger) *FileManager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileManager{
		InputDir:  inputDir,
		OutputDir: outputDir,
		logger:    logger.WithField("component", "filemanager"),
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureOutputDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "create output directory %s", fm.OutputDir)
	}
	return nil
}

// StagingDir returns the staging directory, creating it on first use.
func (fm *FileManager) StagingDir() (string, error) {
	if fm.stagingDir != "" {
		return fm.stagingDir, nil
	}
	dir, err := os.MkdirTemp(fm.StagingRoot, "detracciones-"+uuid.NewString()+"-")
	if err != nil {
		return "", errors.Wrap(err, "create staging directory")
	}
	fm.stagingDir = dir
	return dir, nil
}

// Cleanup removes the staging directory and everything extracted into it.
func (fm *FileManager) Cleanup() error {
	if fm.stagingDir == "" {
		return nil
	}
	dir := fm.stagingDir
	fm.stagingDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "remove staging directory %s", dir)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// hasExt reports whether name ends in ext, ignoring case.
func hasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// discover walks dir and returns the .xml and .zip files it contains.
func discover(dir string) (xmls, zips []string, err error) {
	err = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch {
		case hasExt(p, ".xml"):
			xmls = append(xmls, p)
		case hasExt(p, ".zip"):
			zips = append(zips, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "scan %s", dir)
	}
	return xmls, zips, nil
}

// CollectXMLFiles returns every XML document of the run: loose .xml files
// plus the .xml members of every readable zip.
//
// RETURNS:
//   - Resolved absolute paths, de-duplicated and sorted. May be empty.
//   - An error if the input directory cannot be scanned or staging fails.
//
// NOTE: A corrupt zip is logged as a warning and skipped; its members are
// simply absent from the result.
func (fm *FileManager) CollectXMLFiles() ([]string, error) {
	xmls, zips, err := discover(fm.InputDir)
	if err != nil {
		return nil, err
	}

	if len(zips) > 0 {
		staging, err := fm.StagingDir()
		if err != nil {
			return nil, err
		}
		for _, z := range zips {
			extracted, err := ExtractXMLs(z, staging)
			if err != nil {
				fm.logger.WithError(err).WithField("zip", z).Warn("Skipping invalid zip")
				continue
			}
			fm.logger.WithField("zip", filepath.Base(z)).Debugf("Extracted %d XML file(s)", len(extracted))
			xmls = append(xmls, extracted...)
		}
	}

	seen := make(map[string]struct{}, len(xmls))
	result := make([]string, 0, len(xmls))
	for _, p := range xmls {
		resolved, err := resolve(p)
		if err != nil {
			fm.logger.WithError(err).WithField("file", p).Warn("Skipping unreadable path")
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		result = append(result, resolved)
	}

	sort.Strings(result)
	return result, nil
}

// resolve returns the absolute, symlink-free form of p.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// =============================================================================
// ZIP HANDLING
// =============================================================================

// xmlMember reports whether a zip member is an XML document and returns the
// base name it is extracted under.
func xmlMember(f *zip.File) (string, bool) {
	if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
		return "", false
	}
	name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	return name, true
}

// ExtractXMLs writes the .xml members of zipPath into dir, flattening any
// internal directories.
//
// RETURNS:
//   - The paths of the extracted files, in archive order.
//   - An error if the archive cannot be read.
func ExtractXMLs(zipPath, dir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open zip %s", filepath.Base(zipPath))
	}
	defer r.Close()

	var extracted []string
	for _, f := range r.File {
		name, ok := xmlMember(f)
		if !ok {
			continue
		}
		out := filepath.Join(dir, name)
		if err := extractMember(f, out); err != nil {
			return extracted, errors.Wrapf(err, "extract %s", f.Name)
		}
		extracted = append(extracted, out)
	}
	return extracted, nil
}

func extractMember(f *zip.File, out string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

// CountXMLFiles counts the XML documents under dir, including the .xml
// members of zips. Unlike CollectXMLFiles, a corrupt zip is an error.
func CountXMLFiles(dir string) (int, error) {
	xmls, zips, err := discover(dir)
	if err != nil {
		return 0, err
	}

	count := len(xmls)
	for _, z := range zips {
		r, err := zip.OpenReader(z)
		if err != nil {
			return 0, errors.Wrapf(err, "open zip %s", filepath.Base(z))
		}
		for _, f := range r.File {
			if _, ok := xmlMember(f); ok {
				count++
			}
		}
		r.Close()
	}
	return count, nil
}

// =============================================================================
// OUTPUT BUNDLING
// =============================================================================

// unknownTaxID replaces the tax id when the .txt name is too short to hold one.
const unknownTaxID = "desconocido"

// TaxIDFromTxtName extracts the 11-digit tax id from a name such as
// "D20123456789250001.txt" (positions 1-11, after the leading "D").
func TaxIDFromTxtName(name string) string {
	base := filepath.Base(name)
	if len(base) < 12 {
		return unknownTaxID
	}
	return base[1:12]
}

// BundleName returns detracciones_<ruc>.zip for a generated .txt name.
func BundleName(txtName string) string {
	return "detracciones_" + TaxIDFromTxtName(txtName) + ".zip"
}

// BundleOutputs zips files (by base name) into dir/name.
//
// RETURNS:
//   - The full path of the bundle.
//   - An error if any file cannot be read or the bundle cannot be written.
func BundleOutputs(dir, name string, files []string) (string, error) {
	out := filepath.Join(dir, name)
	fh, err := os.Create(out)
	if err != nil {
		return "", errors.Wrap(err, "create bundle")
	}

	zw := zip.NewWriter(fh)
	for _, p := range files {
		if err := addToZip(zw, p); err != nil {
			zw.Close()
			fh.Close()
			os.Remove(out)
			return "", errors.Wrapf(err, "bundle %s", filepath.Base(p))
		}
	}

	if err := zw.Close(); err != nil {
		fh.Close()
		return "", errors.Wrap(err, "finalize bundle")
	}
	if err := fh.Close(); err != nil {
		return "", errors.Wrap(err, "close bundle")
	}
	return out, nil
}

func addToZip(zw *zip.Writer, p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.Base(p), Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// FileExists checks if a file exists.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
