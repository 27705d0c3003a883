package common

import (
	"fmt"
	"os"
	"path/filepath"

	"coverdraft/internal/errors"
	"coverdraft/internal/utils"
)

// FileProcessor wraps file IO with application error codes and logging.
type FileProcessor struct {
	logger *errors.Logger
}

func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads a file as text.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	data, err := fp.ReadFileBytes(filename)
	return string(data), err
}

// ReadFileBytes reads raw file content. Resume documents must be read
// as bytes since PDF and DOCX are binary formats.
func (fp *FileProcessor) ReadFileBytes(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err == nil {
		return data, nil
	}
	if os.IsNotExist(err) {
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	}
	return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
		fmt.Sprintf("Cannot read file: %s", filename), err)
}

// ReadDocument validates and reads a resume document for extraction.
// An unrecognized extension only warns; extraction may still succeed
// if the content sniffs as a supported format.
func (fp *FileProcessor) ReadDocument(filename string) ([]byte, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsDocumentFile(filename) {
		if fp.logger != nil {
			fp.logger.Warn("File is not a recognized resume document type",
				"filename", filename)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s is not a recognized resume document type\n", filename)
		}
	}

	return fp.ReadFileBytes(filename)
}

// WriteFile writes content to filename, creating parent directories as
// needed.
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateOutputFile checks that filename is writable. An empty name
// means stdout and is always valid.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
