package ghri

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"absolute clean", "/a/b/c", "/a/b/c"},
		{"absolute with dot", "/a/./b", "/a/b"},
		{"absolute pops parent", "/a/b/../c", "/a/c"},
		{"absolute leading dotdot discarded", "/../a", "/a"},
		{"relative retains leading dotdot", "../a/b", "../a/b"},
		{"relative pops within", "a/b/../c", "a/c"},
		{"empty becomes dot", "", "."},
		{"root stays root", "/", "/"},
		{"backslashes normalized", `a\b\c`, "a/b/c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.input); got != tt.want {
				t.Errorf("normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsUnder(t *testing.T) {
	tests := []struct {
		name string
		p    string
		dir  string
		want bool
	}{
		{"direct child", "/root/owner/repo", "/root", true},
		{"equal to dir", "/root", "/root", true},
		{"sibling prefix collision", "/root-evil/x", "/root", false},
		{"traversal escape", "/root/owner/../../etc/passwd", "/root", false},
		{"deep nested", "/root/a/b/c", "/root/a", true},
		{"outside entirely", "/other/a", "/root", false},
		{"relative both", "a/b", "a", true},
		{"mismatched shape", "a/b", "/a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUnder(tt.p, tt.dir); got != tt.want {
				t.Errorf("isUnder(%q, %q) = %v, want %v", tt.p, tt.dir, got, tt.want)
			}
		})
	}
}

func TestRelativeFrom(t *testing.T) {
	tests := []struct {
		name    string
		fromDir string
		toPath  string
		want    string
		wantOk  bool
	}{
		{"child directory", "/root/owner/repo", "/root/owner/repo/v1.0.0", "v1.0.0", true},
		{"needs ascent", "/root/owner/repo/current", "/root/owner/repo/v1.0.0", "../v1.0.0", true},
		{"same dir", "/a/b", "/a/b", ".", true},
		{"mismatched shape", "/a/b", "c/d", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := relativeFrom(tt.fromDir, tt.toPath)
			if ok != tt.wantOk {
				t.Fatalf("relativeFrom(%q, %q) ok = %v, want %v", tt.fromDir, tt.toPath, ok, tt.wantOk)
			}
			if ok && got != tt.want {
				t.Errorf("relativeFrom(%q, %q) = %q, want %q", tt.fromDir, tt.toPath, got, tt.want)
			}
		})
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name    string
		baseDir string
		p       string
		want    string
	}{
		{"relative joins base", "/root/owner/repo", "v1.0.0", "/root/owner/repo/v1.0.0"},
		{"absolute passes through", "/root/owner/repo", "/elsewhere", "/elsewhere"},
		{"relative with ascent", "/root/owner/repo", "../other", "/root/owner/other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveRelative(tt.baseDir, tt.p); got != tt.want {
				t.Errorf("resolveRelative(%q, %q) = %q, want %q", tt.baseDir, tt.p, got, tt.want)
			}
		})
	}
}
