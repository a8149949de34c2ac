package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DetectServiceName infers a service name from the project at dir.
// It checks go.mod, then package.json, then falls back to the directory
// base name.
func DetectServiceName(dir string) string {
	if name := nameFromGoMod(filepath.Join(dir, "go.mod")); name != "" {
		return name
	}
	if name := nameFromPackageJSON(filepath.Join(dir, "package.json")); name != "" {
		return name
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}

// nameFromGoMod returns the last path element of the module directive.
func nameFromGoMod(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		modulePath := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		modulePath = strings.Trim(modulePath, `"`)
		if modulePath == "" {
			return ""
		}
		parts := strings.Split(modulePath, "/")
		return parts[len(parts)-1]
	}
	return ""
}

// nameFromPackageJSON returns the name field, with any npm scope stripped.
func nameFromPackageJSON(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}

	name := pkg.Name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
