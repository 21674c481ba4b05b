package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/wasmpack/internal/artifact"
	"github.com/roach88/wasmpack/internal/genmodule"
)

// EncodeResult describes the written Generated Module.
type EncodeResult struct {
	// Path is the Generated Module.
	Path string

	// Size is the module's size in bytes.
	Size int64

	// PayloadDigest and ModuleDigest identify the encoded bytes and the
	// module text.
	PayloadDigest string
	ModuleDigest  string
}

// Encode reads the Optimized Artifact and writes the Generated Module.
//
// The module is written to a sibling temp file and renamed into place, so a
// failed write never leaves a truncated module behind.
func Encode(plan *Plan) (*EncodeResult, error) {
	payload, err := artifact.Read(plan.Paths.Optimized)
	if err != nil {
		return nil, newIOError(StageEncoded, "reading optimized artifact", plan.Paths.Optimized, err)
	}

	content := genmodule.Render(payload)
	if err := writeFileAtomic(plan.Paths.Module, content); err != nil {
		return nil, newIOError(StageEncoded, "writing generated module", plan.Paths.Module, err)
	}

	return &EncodeResult{
		Path:          plan.Paths.Module,
		Size:          int64(len(content)),
		PayloadDigest: artifact.Digest(artifact.DomainOptimized, payload),
		ModuleDigest:  artifact.Digest(artifact.DomainModule, content),
	}, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating module directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
