package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"atscore/internal/ats"
	"atscore/internal/errors"
	"atscore/internal/types"
	"atscore/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

// NewFileProcessor creates a file processor. maxSize bounds input files; zero
// means unlimited.
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return string(content), nil
}

// ReadOptional reads filename, returning "" when filename is empty
func (fp *FileProcessor) ReadOptional(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	contents, err := fp.ValidateAndReadFiles(filename)
	if err != nil {
		return "", err
	}
	return contents[0], nil
}

// WriteFile writes content to a file, creating parent directories
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create directory for: %s", filename), err)
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateAndReadFiles validates and reads multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))

	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}
		if !utils.IsTextFile(filename) {
			fp.logger.Warn("File may not be a text file", "filename", filename)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}

	return contents, nil
}

// LoadHistory reads a JSON-lines score history. A missing file yields an empty history.
func (fp *FileProcessor) LoadHistory(filename string) (*ats.History, error) {
	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return ats.NewHistory(), nil
	}
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read history: %s", filename), err)
	}
	defer file.Close()

	history, err := ats.ReadHistory(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Malformed history file: %s", filename), err)
	}
	return history, nil
}

// AppendHistory appends entries to a JSON-lines history file
func (fp *FileProcessor) AppendHistory(filename string, entries []types.ScoreEntry) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot open history: %s", filename), err)
	}
	if err := ats.WriteEntries(file, entries); err != nil {
		_ = file.Close()
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write history: %s", filename), err)
	}
	return file.Close()
}
