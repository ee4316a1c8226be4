package action

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/vars"
)

func truncateEffect(path string, _ func(float64) bool) (int64, error) {
	return fileutil.Truncate(path)
}

// vacuumEffect rebuilds an SQLite database to release free pages.
func vacuumEffect(path string, _ func(float64) bool) (int64, error) {
	before := fileutil.Size(path)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return 0, fmt.Errorf("opening database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	if err := db.Exec("VACUUM").Error; err != nil {
		sqlDB.Close()
		return 0, fmt.Errorf("vacuum: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return 0, err
	}

	return max(before-fileutil.Size(path), 0), nil
}

// ─── JSON ────────────────────────────────────────────────────────────────────

func jsonFactory(attrs Attributes, table *vars.Table) (Provider, error) {
	address, err := attrs.Require("address")
	if err != nil {
		return nil, err
	}
	keys := strings.Split(strings.Trim(address, "/"), "/")
	return NewFileProvider(attrs, table, func(p string) command.Command {
		return command.Function{Path: p, Label: "Clean file", Effect: jsonDeleteEffect(keys)}
	})
}

// jsonDeleteEffect removes the entry at keys from a JSON document. Comments
// and trailing commas are tolerated on input but not preserved.
func jsonDeleteEffect(keys []string) command.Effect {
	return func(path string, _ func(float64) bool) (int64, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		var doc any
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return 0, fmt.Errorf("parsing %s: %w", path, err)
		}
		if !deleteJSONPath(doc, keys) {
			return 0, nil
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return 0, err
		}
		return rewrite(path, data, out)
	}
}

func deleteJSONPath(doc any, keys []string) bool {
	m, ok := doc.(map[string]any)
	if !ok || len(keys) == 0 {
		return false
	}
	if len(keys) == 1 {
		if _, exists := m[keys[0]]; !exists {
			return false
		}
		delete(m, keys[0])
		return true
	}
	return deleteJSONPath(m[keys[0]], keys[1:])
}

// ─── INI ─────────────────────────────────────────────────────────────────────

func iniFactory(attrs Attributes, table *vars.Table) (Provider, error) {
	section, err := attrs.Require("section")
	if err != nil {
		return nil, err
	}
	parameter := attrs.Get("parameter")
	return NewFileProvider(attrs, table, func(p string) command.Command {
		return command.Function{Path: p, Label: "Clean file", Effect: iniDeleteEffect(section, parameter)}
	})
}

// iniDeleteEffect removes a whole section, or one parameter of it.
func iniDeleteEffect(section, parameter string) command.Effect {
	return func(path string, _ func(float64) bool) (int64, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		out, changed := deleteINI(data, section, parameter)
		if !changed {
			return 0, nil
		}
		return rewrite(path, data, out)
	}
}

func deleteINI(data []byte, section, parameter string) ([]byte, bool) {
	var out bytes.Buffer
	current := ""
	changed := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			current = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			if parameter == "" && strings.EqualFold(current, section) {
				changed = true
				continue
			}
		} else if strings.EqualFold(current, section) {
			if parameter == "" {
				changed = true
				continue
			}
			key, _, found := strings.Cut(trimmed, "=")
			if found && strings.EqualFold(strings.TrimSpace(key), parameter) {
				changed = true
				continue
			}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes(), changed
}

// rewrite replaces the file contents keeping its mode and returns the
// number of bytes saved.
func rewrite(path string, before, after []byte) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, after, info.Mode().Perm()); err != nil {
		return 0, err
	}
	return max(int64(len(before)-len(after)), 0), nil
}
