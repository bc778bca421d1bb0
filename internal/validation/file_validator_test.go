package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "regpulse/internal/errors"
	"regpulse/internal/shared/testutil"
)

func newValidator(t *testing.T) *FileValidator {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewFileValidator(logger)
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("Regulation Name\nA\n"), 0o644))
	return path
}

func errType(t *testing.T, err error) apperrors.ErrorType {
	t.Helper()
	typ, ok := apperrors.TypeOf(err)
	require.True(t, ok, "got %T: %v", err, err)
	return typ
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{"csv", writeFile(t, dir, "regs.csv"), ""},
		{"tsv", writeFile(t, dir, "regs.tsv"), ""},
		{"no extension", writeFile(t, dir, "regs"), ""},
		{"missing", filepath.Join(dir, "missing.csv"), apperrors.ErrTypeNotFound},
		{"directory", dir, apperrors.ErrTypeValidation},
		{"workbook", writeFile(t, dir, "regs.xlsx"), apperrors.ErrTypeValidation},
		{"empty path", "", apperrors.ErrTypeConfig},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCSVFile(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errType(t, err))
		})
	}
}

func TestFileValidator_ValidateExcelFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{"xlsx", writeFile(t, dir, "regs.xlsx"), ""},
		{"upper case xlsm", writeFile(t, dir, "REGS.XLSM"), ""},
		{"csv", writeFile(t, dir, "regs.csv"), apperrors.ErrTypeValidation},
		{"lock file", writeFile(t, dir, "~$regs.xlsx"), apperrors.ErrTypeValidation},
		{"missing", filepath.Join(dir, "missing.xlsx"), apperrors.ErrTypeNotFound},
	}

	v := newValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateExcelFile(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errType(t, err))
		})
	}
}

func TestFileValidator_ValidateOutputFile(t *testing.T) {
	v := newValidator(t)
	dir := t.TempDir()

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(dir, "exports", "2024", "regs.csv")
		require.NoError(t, v.ValidateOutputFile(path))

		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects a directory", func(t *testing.T) {
		err := v.ValidateOutputFile(dir)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrTypeValidation, errType(t, err))
	})
}

func TestNewFileValidator_NilLogger(t *testing.T) {
	v := NewFileValidator(nil)
	require.NotNil(t, v.logger)
}
