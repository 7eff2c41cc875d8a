package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
)

func TestNew(t *testing.T) {
	testCases := map[string]Scan{
		"../data/happy_side/happySideRight_24.ply": {
			Path: "../data/happy_side/happySideRight_24.ply",
			Name: "happySideRight_24",
		},
		"scan.0.pcd": {Path: "scan.0.pcd", Name: "scan.0"},
		"noext":      {Path: "noext", Name: "noext"},
	}
	for path, expected := range testCases {
		if s := New(path); s != expected {
			t.Errorf("Expected %+v, got %+v", expected, s)
		}
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	files := []string{
		filepath.Join(dir, "happySideRight_120_angle_90_translation_0.3.ply"),
		filepath.Join(dir, "happySideRight_24_angle_90_translation_0.3.ply"),
		filepath.Join(sub, "happySideRight_0_angle_90_translation_0.3.ply"),
		filepath.Join(dir, "happySideRight_48_angle_90_translation_0.3.ply"),
		filepath.Join(dir, "happySideRight_48.ply"),
		filepath.Join(dir, "notes.txt"),
	}
	for _, f := range files {
		if err := os.WriteFile(f, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	scans, err := Discover(dir, regexp.MustCompile(`happySideRight_[0-9]+_angle_90_translation_0\.3\.ply$`))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range scans {
		names = append(names, s.Name)
	}
	expected := []string{
		"happySideRight_0_angle_90_translation_0.3",
		"happySideRight_24_angle_90_translation_0.3",
		"happySideRight_48_angle_90_translation_0.3",
		"happySideRight_120_angle_90_translation_0.3",
	}
	if !reflect.DeepEqual(expected, names) {
		t.Errorf("Expected %v, got %v", expected, names)
	}

	if _, err := Discover(filepath.Join(dir, "missing"), regexp.MustCompile(".")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestSort(t *testing.T) {
	scans := FromPaths([]string{"b", "s10", "s9", "a", "s09"})
	Sort(scans)
	var paths []string
	for _, s := range scans {
		paths = append(paths, s.Path)
	}
	expected := []string{"s09", "s9", "s10", "a", "b"}
	if !reflect.DeepEqual(expected, paths) {
		t.Errorf("Expected %v, got %v", expected, paths)
	}
}
