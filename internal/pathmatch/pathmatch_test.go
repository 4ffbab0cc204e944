package pathmatch

import "testing"

func TestMatcherMatches(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"literal", []string{"package.json"}, "package.json", true},
		{"literal wrong path", []string{"package.json"}, "src/package.json", false},
		{"star within segment", []string{"src/*.js"}, "src/app.js", true},
		{"star does not cross separator", []string{"src/*.js"}, "src/deep/app.js", false},
		{"doublestar any depth", []string{"**/package.json"}, "a/b/c/package.json", true},
		{"doublestar zero segments", []string{"**/package.json"}, "package.json", true},
		{"doublestar middle", []string{"src/**/*.ts"}, "src/a/b/app.ts", true},
		{"doublestar middle zero", []string{"src/**/*.ts"}, "src/app.ts", true},
		{"trailing doublestar", []string{"vendor/**"}, "vendor/a/b.go", true},
		{"dotfile needs explicit pattern", []string{"*"}, ".env", true},
		{"dotfile explicit", []string{".github/**"}, ".github/workflows/ci.yml", true},
		{"no patterns matches nothing", nil, "anything.go", false},
		{"mismatch", []string{"docs/**"}, "src/main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.patterns)
			if err != nil {
				t.Fatalf("Compile() error: %v", err)
			}
			if got := m.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
	}{
		{"empty pattern", []string{""}},
		{"empty segment", []string{"src//app.js"}},
		{"embedded doublestar", []string{"src/a**b/x"}},
		{"unclosed class", []string{"src/[abc.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.patterns); err == nil {
				t.Errorf("Compile(%v) should fail", tt.patterns)
			}
		})
	}
}

func TestRuleSetRelevant(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"include match", []string{"**/*.go"}, nil, "internal/a.go", true},
		{"include miss", []string{"**/*.go"}, nil, "README.md", false},
		{"exclude wins over include", []string{"**/*.go"}, []string{"vendor/**"}, "vendor/a.go", false},
		{"empty include means relevant", nil, nil, "anything.txt", true},
		{"empty include still excludable", nil, []string{"**/*.lock"}, "yarn.lock", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RuleSet{Include: tt.include, Exclude: tt.exclude}
			if got := r.Relevant(tt.path); got != tt.want {
				t.Errorf("Relevant(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestRuleSetCompileError(t *testing.T) {
	r := &RuleSet{Include: []string{"["}}
	if err := r.Compile(); err == nil {
		t.Error("Compile() should fail for invalid include pattern")
	}
	if r.Relevant("x") {
		t.Error("Relevant() must be false for an invalid rule set")
	}
}
