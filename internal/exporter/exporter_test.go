package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"thumbdeck/internal/deck"
	apperrors "thumbdeck/internal/errors"
)

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name     string
		options  WriteOptions
		validate func(t *testing.T, content []byte)
	}{
		{
			name: "basic write with headers",
			options: WriteOptions{
				Headers: []string{"Name", "Age"},
				Records: [][]string{{"John", "25"}, {"Jane", "30"}},
			},
			validate: func(t *testing.T, content []byte) {
				assert.Equal(t, "Name,Age\nJohn,25\nJane,30\n", string(content))
			},
		},
		{
			name: "write with BOM prefix",
			options: WriteOptions{
				Headers:   []string{"title"},
				Records:   [][]string{{"Intro"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, content []byte) {
				assert.True(t, bytes.HasPrefix(content, utf8BOM))
				assert.Equal(t, "title\nIntro\n", string(content[3:]))
			},
		},
		{
			name: "special characters are quoted",
			options: WriteOptions{
				Headers: []string{"title", "subtitle"},
				Records: [][]string{{`Say "hi", again`, "line 1\nline 2"}},
			},
			validate: func(t *testing.T, content []byte) {
				records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
				require.NoError(t, err)
				require.Len(t, records, 2)
				assert.Equal(t, []string{`Say "hi", again`, "line 1\nline 2"}, records[1])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out.csv")
			require.NoError(t, WriteCSV(path, tt.options))

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			tt.validate(t, content)
		})
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, []string{"a", "b"}, [][]string{{"1", "x\ny"}, {"2", ""}}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"1", "x\ny"}, rows[1])
	assert.Equal(t, "2", rows[2][0])
}

func fillManifest(t *testing.T) *Manifest {
	t.Helper()
	m := NewManifest(2)
	assert.Equal(t, 2, m.LayoutCount())
	m.SetCanvasSize(deck.Canvas16x9)

	entries := []struct {
		layout   int
		title    string
		subtitle string
	}{
		{0, "Intro to HPC", "Tutorial #3\nUAB IT Research Computing\n2023-04-01"},
		{1, "Deep Dive (Part 2)", "\nUAB IT Research Computing\n2023-12-25"},
	}
	for _, e := range entries {
		s, err := m.AddSlide(e.layout)
		require.NoError(t, err)
		require.NoError(t, s.SetPlaceholderText(deck.TitlePlaceholder, e.title, deck.TitleFontSize))
		require.NoError(t, s.SetPlaceholderText(deck.SubtitlePlaceholder, e.subtitle, deck.SubtitleFontSize))
	}
	return m
}

func TestManifest_SaveCSV(t *testing.T) {
	m := fillManifest(t)
	path := filepath.Join(t.TempDir(), "slides.csv")
	require.NoError(t, m.Save(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM))).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		ManifestHeaders,
		{"1", "0", "Intro to HPC", "Tutorial #3\nUAB IT Research Computing\n2023-04-01"},
		{"2", "1", "Deep Dive (Part 2)", "\nUAB IT Research Computing\n2023-12-25"},
	}, records)
}

func TestManifest_SaveXLSX(t *testing.T) {
	m := fillManifest(t)
	path := filepath.Join(t.TempDir(), "slides.xlsx")
	require.NoError(t, m.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(SheetName, "C3")
	require.NoError(t, err)
	assert.Equal(t, "Deep Dive (Part 2)", title)
}

func TestManifest_Errors(t *testing.T) {
	m := NewManifest(1)

	_, err := m.AddSlide(1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnknownLayout))

	s, err := m.AddSlide(0)
	require.NoError(t, err)
	err = s.SetPlaceholderText(3, "x", deck.SubtitleFontSize)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTemplate))

	err = m.Save(filepath.Join(t.TempDir(), "slides.json"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
