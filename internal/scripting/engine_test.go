package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, set, name, src string) {
	t.Helper()
	p := filepath.Join(dir, set)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(p, name), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewEngineScriptSets(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr bool
		defined string
	}{
		{"no scripts", nil, false, ""},
		{"ai uses core helper", map[string]string{
			"core/helper.lua": "function helper() return 1 end",
			"ai/bot.lua":      "function bot_ai(ctx) return helper() end",
		}, false, "bot_ai"},
		{"other files ignored", map[string]string{
			"ai/notes.txt": "not lua (",
		}, false, ""},
		{"broken script", map[string]string{
			"ai/broken.lua": "function (",
		}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for rel, src := range tt.files {
				writeScript(t, dir, filepath.Dir(rel), filepath.Base(rel), src)
			}
			e, err := NewEngine(dir, zap.NewNop())
			if tt.wantErr {
				if err == nil {
					e.Close()
					t.Fatal("broken script accepted")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEngine: %v", err)
			}
			defer e.Close()
			if tt.defined != "" && !e.HasFunction(tt.defined) {
				t.Errorf("%s not defined", tt.defined)
			}
			if got := e.vm.GetGlobal("API_VERSION").String(); got != "1" {
				t.Errorf("API_VERSION = %s, want 1", got)
			}
		})
	}
}
