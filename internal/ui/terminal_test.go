package ui

import "testing"

func TestColorEnabled(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		want bool
	}{
		{"terminal", nil, true, true},
		{"pipe", nil, false, false},
		{"no color", map[string]string{"NO_COLOR": "1"}, true, false},
		{"no color beats force", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, true, false},
		{"force on pipe", map[string]string{"CLICOLOR_FORCE": "1"}, false, true},
		{"force zero ignored", map[string]string{"CLICOLOR_FORCE": "0"}, false, false},
		{"clicolor off", map[string]string{"CLICOLOR": "0"}, true, false},
		{"dumb terminal", map[string]string{"TERM": "dumb"}, true, false},
		{"force beats dumb", map[string]string{"TERM": "dumb", "CLICOLOR_FORCE": "yes"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			if got := colorEnabled(getenv, tt.tty); got != tt.want {
				t.Errorf("colorEnabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTerminal_Nil(t *testing.T) {
	if isTerminal(nil) {
		t.Error("nil file reported as terminal")
	}
}
